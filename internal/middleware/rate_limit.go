package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/denimhub/dashboard/internal/metrics"
	pkghttp "github.com/denimhub/dashboard/pkg/http"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int
	IPConfig          *pkghttp.IPConfig
	Metrics           *metrics.Metrics
}

// RateLimitByIP limits requests per client address. The address is resolved the
// same way the login flow does, so forwarded headers count only from trusted proxies.
func RateLimitByIP(config RateLimitConfig) func(next http.Handler) http.Handler {
	return httprate.Limit(
		config.RequestsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			return pkghttp.ExtractClientIP(r, config.IPConfig), nil
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			config.Metrics.IncRateLimited("api")
			pkghttp.WriteError(w, http.StatusTooManyRequests, pkghttp.CodeRateLimitExceeded, "Rate limit exceeded. Please slow down.")
		}),
	)
}
