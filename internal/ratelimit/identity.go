package ratelimit

import (
	"net/http"
	"strings"
)

// UnknownIdentity is the shared bucket for clients without an address header.
const UnknownIdentity = "unknown"

// identityHeaders are consulted in order; the first non-empty value wins.
var identityHeaders = []string{"X-Forwarded-For", "X-Real-IP", "CF-Connecting-IP"}

// IdentityKey derives the client identity used for admission control. Only
// the first entry of a comma-separated forwarded list is used. Clients that
// send none of the headers share the UnknownIdentity quota.
func IdentityKey(h http.Header) string {
	for _, name := range identityHeaders {
		v := h.Get(name)
		if v == "" {
			continue
		}
		first, _, _ := strings.Cut(v, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	return UnknownIdentity
}
