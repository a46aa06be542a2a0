package middleware

import (
	"fmt"
	"math"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/platinummonkey/fares-validator/pkg/contextkeys"
	"github.com/platinummonkey/fares-validator/pkg/httputil"
	"github.com/platinummonkey/fares-validator/pkg/observability"
)

// KeyFunc derives the rate limit key for a request
type KeyFunc func(r *http.Request) string

// ByClientIP keys requests by client address
func ByClientIP(r *http.Request) string {
	return "ip:" + ClientIP(r)
}

// RateLimit wraps handlers with limiter. Limiter errors are logged and the
// request is let through.
func RateLimit(limiter Limiter, keyFn KeyFunc, logger *observability.Logger) func(http.Handler) http.Handler {
	if keyFn == nil {
		keyFn = ByClientIP
	}
	if logger == nil {
		logger = observability.NewLogger(observability.WarnLevel, os.Stderr)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFn(r)
			d, err := limiter.Allow(r.Context(), key)
			if err != nil {
				contextkeys.GetLogger(r.Context(), logger).
					WithError(err).
					WithField("key", key).
					Warn("Rate limiter unavailable, allowing request")
				next.ServeHTTP(w, r)
				return
			}

			setHeaders(w, d)
			if !d.Allowed {
				retryAfter := int(math.Ceil(time.Until(d.Reset).Seconds()))
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				httputil.WriteErrorMessage(w, http.StatusTooManyRequests,
					fmt.Sprintf("rate limit exceeded, retry after %ds", retryAfter))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func setHeaders(w http.ResponseWriter, d Decision) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	if d.Remaining >= 0 {
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	}
	if !d.Reset.IsZero() {
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(d.Reset.Unix(), 10))
	}
}
