// Package requesttime pins a single "now" for every operation inside one HTTP
// request, so issue dates, record timestamps and expiry checks agree.
package requesttime

import (
	"net/http"
	"time"

	"kubecred/pkg/requestcontext"
)

// Middleware captures the current UTC time, truncated to microseconds so the
// value survives a round trip through PostgreSQL timestamptz columns.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().UTC().Truncate(time.Microsecond)
		ctx := requestcontext.WithTime(r.Context(), now)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
