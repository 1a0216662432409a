package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const subjectKey = "subject_id"

// TokenVerifier resolves a bearer token to the id it was issued for.
type TokenVerifier interface {
	Verify(token string) (int64, error)
}

// SubjectID returns the authenticated requester or worker id.
func SubjectID(c *gin.Context) int64 {
	return c.GetInt64(subjectKey)
}

// Auth rejects requests without a token valid for verifier. The header may
// carry the bare token or a "Bearer " prefixed one.
func Auth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "You are not logged in"})
			return
		}

		id, err := verifier.Verify(token)
		if err != nil {
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "You are not logged in"})
			return
		}

		c.Set(subjectKey, id)
		c.Next()
	}
}
