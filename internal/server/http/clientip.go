package httpserver

import (
	"net/http"
	"strings"
)

// UnknownClient is the identifier used when no proxy header is present.
const UnknownClient = "unknown"

// ClientID returns the first X-Forwarded-For entry, else X-Real-Ip, else "unknown".
// The value keys rate limiting and log lines; it is not an authenticated identity.
func ClientID(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if real := strings.TrimSpace(r.Header.Get("X-Real-Ip")); real != "" {
		return real
	}
	return UnknownClient
}
