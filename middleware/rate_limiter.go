package middleware

import (
	"net/http"
	"sync"
	"time"

	"bookingpay/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// rateLimiterStore holds a map of client keys to their rate limiters.
type rateLimiterStore struct {
	limiters map[string]*rate.Limiter
	perMin   int
	mu       sync.Mutex
}

func newRateLimiterStore(perMin int) *rateLimiterStore {
	if perMin <= 0 {
		perMin = 100
	}
	return &rateLimiterStore{
		limiters: make(map[string]*rate.Limiter),
		perMin:   perMin,
	}
}

// getLimiter returns the rate limiter for a given key, creating one if it doesn't exist.
func (s *rateLimiterStore) getLimiter(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	limiter, exists := s.limiters[key]
	if !exists {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(s.perMin)), s.perMin)
		s.limiters[key] = limiter
	}
	return limiter
}

// RateLimitMiddleware limits requests per authenticated actor, or per IP before authentication.
func RateLimitMiddleware(perMin int) gin.HandlerFunc {
	store := newRateLimiterStore(perMin)
	return func(c *gin.Context) {
		key := c.GetString(ActorIDKey)
		if key == "" {
			key = "ip:" + clientIP(c)
		}
		if !store.getLimiter(key).Allow() {
			utils.GetLogger().Warn("Rate limit exceeded", zap.String("key", key))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, utils.ErrorResponse{
				Error:     "Rate limit exceeded. Try again later.",
				Code:      "rate_limited",
				Retryable: true,
			})
			return
		}
		c.Next()
	}
}
