package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/mkovacic/portfolio/internal/limiter"
	"github.com/mkovacic/portfolio/internal/telemetry/metrics"
	"github.com/mkovacic/portfolio/pkg"
)

// RequestRateLimiter decides whether a request from the given client key may
// pass. Implemented by limiter.FixedWindow; the seam exists so a shared
// counter store can be swapped in if the service ever scales horizontally.
type RequestRateLimiter interface {
	Allow(key string) limiter.Result
}

var _ RequestRateLimiter = (*limiter.FixedWindow)(nil)

// RateLimit admits or rejects requests before any downstream handler runs.
// Clients are keyed by network address. Standard RateLimit-* headers are set
// on every response, allowed or not.
func RateLimit(
	rateLimiter RequestRateLimiter,
	message string,
	metricsManager *metrics.Manager,
) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientKey, err := pkg.ReadUserIP(r)
			if err != nil {
				// still admission-controlled, just under a coarser key
				clientKey = r.RemoteAddr
			}

			res := rateLimiter.Allow(clientKey)

			w.Header().Set("RateLimit-Limit", strconv.Itoa(res.Limit))
			w.Header().Set("RateLimit-Remaining", strconv.Itoa(res.Remaining))
			w.Header().Set("RateLimit-Reset", strconv.Itoa(resetSeconds(res.ResetAt)))

			if res.Allowed {
				next.ServeHTTP(w, r)
				return
			}

			if metricsManager != nil {
				metricsManager.CounterRateLimitedRequests.Inc()
			}
			pkg.WriteAPIError(w, message, http.StatusTooManyRequests)
		})
	}
}

func resetSeconds(resetAt time.Time) int {
	secs := int(time.Until(resetAt).Round(time.Second).Seconds())
	if secs < 0 {
		return 0
	}
	return secs
}
