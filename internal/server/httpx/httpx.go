// Package httpx holds small helpers shared by the HTTP handlers: JSON
// responses, the common error mapping, and client IP extraction.
package httpx

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"tenantadmin/internal/platform/rbac"
)

// JSON writes v as a JSON response with the given status code.
func JSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes a JSON error body with the given status code.
func Error(w http.ResponseWriter, code int, msg string) {
	JSON(w, code, map[string]string{"error": msg})
}

// HandleError maps guard sentinels to 401/403 and everything unmatched to a
// generic 500. Handlers switch on their own service sentinels first and fall
// back here, so storage failures never leak details to the client.
func HandleError(w http.ResponseWriter, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, rbac.ErrUnauthenticated):
		Error(w, http.StatusUnauthorized, "authentication required")
	case errors.Is(err, rbac.ErrForbidden):
		Error(w, http.StatusForbidden, err.Error())
	default:
		log.Error("request failed", zap.Error(err))
		Error(w, http.StatusInternalServerError, "internal error")
	}
}

// Decode parses the request body as JSON into v. Unknown fields are rejected
// so typos surface as 400s instead of silently dropped fields.
func Decode(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// ClientIP returns the client IP from X-Forwarded-For, X-Real-IP, or the
// connection's remote address.
func ClientIP(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); v != "" {
		if i := strings.IndexByte(v, ','); i > 0 {
			v = strings.TrimSpace(v[:i])
		}
		if v != "" {
			return v
		}
	}
	if v := strings.TrimSpace(r.Header.Get("X-Real-IP")); v != "" {
		return v
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
