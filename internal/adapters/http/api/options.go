package api

import "golang.org/x/time/rate"

// Default rate limiter settings for the read endpoints.
const (
	DefaultRateLimit = 20
	DefaultRateBurst = 40
)

type serverConfig struct {
	maxLimit  int
	rateLimit rate.Limit
	rateBurst int
}

func defaultServerConfig() serverConfig {
	return serverConfig{
		maxLimit:  MaxLimit,
		rateLimit: DefaultRateLimit,
		rateBurst: DefaultRateBurst,
	}
}

// Option configures a Server.
type Option func(*serverConfig)

// WithMaxLimit caps the limit parameter accepted by /scores.
func WithMaxLimit(n int) Option {
	return func(c *serverConfig) {
		if n > 0 {
			c.maxLimit = n
		}
	}
}

// WithRateLimit sets the shared token bucket for read endpoints. A
// non-positive rps disables throttling.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *serverConfig) {
		if rps <= 0 {
			c.rateLimit = rate.Inf
		} else {
			c.rateLimit = rate.Limit(rps)
		}
		if burst > 0 {
			c.rateBurst = burst
		}
	}
}
