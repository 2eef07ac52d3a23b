package ratelimit

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"
)

var timeNow = time.Now

// Middleware admits requests under the named policy, keyed by IdentityKey.
// Denied requests get 429 with a Retry-After header and never reach next.
func Middleware(a Admitter, policy string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := a.Admit(r.Context(), policy, IdentityKey(r.Header))
			if d.Limit > 0 {
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
				w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
				w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))
			}
			if !d.Allowed {
				w.Header().Set("Retry-After", strconv.Itoa(d.RetryAfter(timeNow())))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"success": false,
					"error":   "too many requests, please try again later",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
