package middleware

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// limiterIdleTTL is how long a subject's bucket survives without requests.
const limiterIdleTTL = 10 * time.Minute

type subjectLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// subjectLimiters hands out one token bucket per subject and drops buckets
// that have been idle for longer than ttl. An idle bucket is full again, so
// dropping it does not change what the subject may send.
type subjectLimiters struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	ttl       time.Duration
	now       func() time.Time
	lastSweep time.Time
	buckets   map[int64]*subjectLimiter
}

func newSubjectLimiters(perMinute, burst int, ttl time.Duration) *subjectLimiters {
	return &subjectLimiters{
		limit:   rate.Limit(float64(perMinute) / 60),
		burst:   burst,
		ttl:     ttl,
		now:     time.Now,
		buckets: make(map[int64]*subjectLimiter),
	}
}

func (s *subjectLimiters) allow(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) >= s.ttl {
		s.sweep(now)
	}

	b, ok := s.buckets[id]
	if !ok {
		b = &subjectLimiter{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.buckets[id] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1)
}

func (s *subjectLimiters) sweep(now time.Time) {
	for id, b := range s.buckets {
		if now.Sub(b.lastSeen) >= s.ttl {
			delete(s.buckets, id)
		}
	}
	s.lastSweep = now
}

func (s *subjectLimiters) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buckets)
}

// RateLimit returns middleware that enforces a per-subject request rate.
// It must run after Auth.
func RateLimit(perMinute, burst int) gin.HandlerFunc {
	return rateLimit(newSubjectLimiters(perMinute, burst, limiterIdleTTL))
}

func rateLimit(limiters *subjectLimiters) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := SubjectID(c)
		if !limiters.allow(id) {
			slog.Debug("rate limited", "subject_id", id, "path", c.FullPath())
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"message": "Too many requests, slow down"})
			return
		}
		c.Next()
	}
}
