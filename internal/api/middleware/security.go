package middleware

import (
	"net/http"
	"strings"
)

// writeJSONError answers with the same {"error": ...} shape the handlers use.
func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":"` + message + `"}`))
}

// SecurityHeaders sets response headers for a JSON-only API. Poll answers
// depend on the moment they are served, so nothing may cache them.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Content-Security-Policy", "default-src 'none'")
		h.Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// MaxBodySize caps request bodies. Stroke paths are the only sizeable input.
func MaxBodySize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				writeJSONError(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// suspiciousInput lists fragments rejected in query strings. Paths are not
// checked: room ids are opaque and may contain any of these.
var suspiciousInput = []string{"..", "//", "<script", "javascript:", "vbscript:"}

func suspicious(s string) bool {
	s = strings.ToLower(s)
	for _, frag := range suspiciousInput {
		if strings.Contains(s, frag) {
			return true
		}
	}
	return false
}

// ValidateRequest rejects draw bodies that are not JSON and query strings
// carrying traversal or script fragments.
func ValidateRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.ContentLength > 0 &&
			!strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
			writeJSONError(w, http.StatusUnsupportedMediaType, "content-type must be application/json")
			return
		}

		if suspicious(r.URL.RawQuery) {
			writeJSONError(w, http.StatusBadRequest, "invalid request")
			return
		}

		next.ServeHTTP(w, r)
	})
}
