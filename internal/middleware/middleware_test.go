package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type staticVerifier map[string]int64

func (v staticVerifier) Verify(token string) (int64, error) {
	id, ok := v[token]
	if !ok {
		return 0, errors.New("unknown token")
	}
	return id, nil
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(Recover(), Logging())
	r.GET("/", append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": SubjectID(c)})
	})...)
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	return r
}

func TestAuth(t *testing.T) {
	r := newRouter(Auth(staticVerifier{"good": 5}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "bare token", header: "good", want: http.StatusOK},
		{name: "bearer token", header: "Bearer good", want: http.StatusOK},
		{name: "missing", header: "", want: http.StatusUnauthorized},
		{name: "unknown", header: "Bearer bad", want: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body)
			}
		})
	}
}

func TestRecover(t *testing.T) {
	r := newRouter()
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	r := newRouter(Auth(staticVerifier{"a": 1, "b": 2}), RateLimit(60, 2))

	do := func(token string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", token)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := range 2 {
		if code := do("a"); code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i, code)
		}
	}
	if code := do("a"); code != http.StatusTooManyRequests {
		t.Fatalf("third request status = %d, want 429", code)
	}
	if code := do("b"); code != http.StatusOK {
		t.Fatalf("other subject status = %d, want 200", code)
	}
}

func TestSubjectLimitersEvictIdle(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := newSubjectLimiters(60, 1, time.Minute)
	l.now = func() time.Time { return now }

	if !l.allow(1) || !l.allow(2) {
		t.Fatal("first request of each subject was limited")
	}
	if l.allow(1) {
		t.Fatal("burst of 1 allowed a second request")
	}

	now = now.Add(30 * time.Second)
	l.allow(2)
	if got := l.size(); got != 2 {
		t.Fatalf("size = %d before ttl, want 2", got)
	}

	now = now.Add(45 * time.Second)
	l.allow(3)
	if got := l.size(); got != 2 {
		t.Fatalf("size = %d after sweep, want subject 1 evicted", got)
	}

	now = now.Add(2 * time.Minute)
	l.allow(4)
	if got := l.size(); got != 1 {
		t.Fatalf("size = %d, want only the active subject", got)
	}
}
