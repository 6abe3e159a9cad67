package middleware

import (
	"net/http"
	"sync"

	"github.com/eddy80524/dental-quiz-app/internal/api/shared"
	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per key.
type RateLimiter struct {
	mu     sync.Mutex
	limits map[string]*rate.Limiter
	rps    rate.Limit
	burst  int
}

// NewRateLimiter creates a limiter allowing rps events per second per key with
// the given burst. A non-positive rps disables limiting.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		limits: make(map[string]*rate.Limiter),
		rps:    rate.Limit(rps),
		burst:  burst,
	}
}

func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if limiter, ok := rl.limits[key]; ok {
		return limiter
	}
	limiter := rate.NewLimiter(rl.rps, rl.burst)
	rl.limits[key] = limiter
	return limiter
}

// Allow reports whether one more event for key is allowed now.
func (rl *RateLimiter) Allow(key string) bool {
	if rl == nil || rl.rps <= 0 {
		return true
	}
	return rl.getLimiter(key).Allow()
}

// Limit rejects requests with 429 once the key returned by keyFunc runs out
// of tokens. Requests with an empty key pass through.
func (rl *RateLimiter) Limit(keyFunc func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFunc(r)
			if key != "" && !rl.Allow(key) {
				w.Header().Set("Retry-After", "1")
				shared.RespondWithErrorAndLog(w, r, http.StatusTooManyRequests,
					"Too many answers, slow down", nil, shared.WithRetryable())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
