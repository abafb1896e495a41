package api

import (
	"net/http"

	"golang.org/x/time/rate"

	"github.com/groupscholar/cohort-early-warning/pkg/metrics"
)

// RateLimiter throttles handlers with a single token bucket.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a limiter refilling at limit tokens per second.
func NewRateLimiter(limit rate.Limit, burst int) *RateLimiter {
	return &RateLimiter{limiter: rate.NewLimiter(limit, burst)}
}

// Limit rejects requests with 429 once the bucket is empty.
func (l *RateLimiter) Limit(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !l.limiter.Allow() {
			metrics.RecordRateLimited(endpoint)
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "rate_limited", ErrRateLimited)
			return
		}
		next(w, r)
	}
}
