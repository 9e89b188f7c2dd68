package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name   string
		method string
		target string
		ct     string
		body   string
		want   int
	}{
		{"json post", http.MethodPost, "/api/draw/abc", "application/json", `{"path":"M0 0"}`, http.StatusOK},
		{"json with charset", http.MethodPost, "/api/draw/abc", "application/json; charset=utf-8", `{}`, http.StatusOK},
		{"form post", http.MethodPost, "/api/draw/abc", "text/plain", `path=x`, http.StatusUnsupportedMediaType},
		{"empty post", http.MethodPost, "/api/draw/abc", "", ``, http.StatusOK},
		{"dots in room id", http.MethodGet, "/api/poll/v1..v2/0", "", ``, http.StatusOK},
		{"traversal in query", http.MethodGet, "/api/stats?limit=../5", "", ``, http.StatusBadRequest},
		{"script in query", http.MethodGet, "/api/rooms?x=<script>", "", ``, http.StatusBadRequest},
		{"plain get", http.MethodGet, "/api/poll/abc/0", "", ``, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(tt.method, "/", strings.NewReader(tt.body))
			r.URL.Path = strings.SplitN(tt.target, "?", 2)[0]
			if i := strings.Index(tt.target, "?"); i >= 0 {
				r.URL.RawQuery = tt.target[i+1:]
			}
			if tt.ct != "" {
				r.Header.Set("Content-Type", tt.ct)
			}
			rec := httptest.NewRecorder()
			ValidateRequest(okHandler()).ServeHTTP(rec, r)
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestMaxBodySize(t *testing.T) {
	h := MaxBodySize(8)(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789")))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123")))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	for _, h := range []string{"X-Content-Type-Options", "X-Frame-Options", "Content-Security-Policy", "Cache-Control"} {
		if rec.Header().Get(h) == "" {
			t.Fatalf("missing header %s", h)
		}
	}
}
