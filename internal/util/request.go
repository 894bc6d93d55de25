package util

import (
	"net/http"
	"strings"
)

// UnknownIP is recorded when no client address can be derived from the request headers.
const UnknownIP = "unknown"

// ClientIP returns the best-effort originating address of a request: the first
// X-Forwarded-For entry, then X-Real-IP, then UnknownIP.
func ClientIP(h http.Header) string {
	if fwd := h.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if real := strings.TrimSpace(h.Get("X-Real-IP")); real != "" {
		return real
	}
	return UnknownIP
}

// Truthy reports whether a decoded JSON value would be considered set by a browser
// form: non-empty strings, true, non-zero numbers, and any array or object.
func Truthy(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case float64:
		return val != 0
	case int:
		return val != 0
	default:
		return true
	}
}
