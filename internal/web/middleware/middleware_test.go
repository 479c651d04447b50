package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/sheetserve/internal/logging"
)

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("ok"))
}

func TestAPIKeyAuth(t *testing.T) {
	tests := []struct {
		name     string
		required bool
		header   string
		query    string
		want     int
	}{
		{"disabled", false, "", "", http.StatusOK},
		{"missing key", true, "", "", http.StatusUnauthorized},
		{"wrong key", true, "nope", "", http.StatusForbidden},
		{"header key", true, "k2", "", http.StatusOK},
		{"query key", true, "", "k1", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := APIKeyAuth(tt.required, []string{"k1", "k2"})(http.HandlerFunc(okHandler))

			target := "/google/x"
			if tt.query != "" {
				target += "?api_key=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if tt.header != "" {
				req.Header.Set("X-API-Key", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestTrustedRealIP(t *testing.T) {
	tests := []struct {
		name    string
		trusted []string
		remote  string
		headers map[string]string
		want    string
	}{
		{
			name:    "untrusted proxy ignored",
			trusted: []string{"10.0.0.0/8"},
			remote:  "203.0.113.7:5000",
			headers: map[string]string{"X-Real-IP": "1.2.3.4"},
			want:    "203.0.113.7:5000",
		},
		{
			name:    "trusted proxy real ip",
			trusted: []string{"10.0.0.0/8"},
			remote:  "10.1.2.3:5000",
			headers: map[string]string{"X-Real-IP": "1.2.3.4"},
			want:    "1.2.3.4",
		},
		{
			name:    "trusted proxy forwarded for",
			trusted: []string{"127.0.0.1"},
			remote:  "127.0.0.1:5000",
			headers: map[string]string{"X-Forwarded-For": "5.6.7.8, 10.0.0.1"},
			want:    "5.6.7.8",
		},
		{
			name:    "invalid header kept out",
			trusted: []string{"10.0.0.0/8"},
			remote:  "10.1.2.3:5000",
			headers: map[string]string{"X-Real-IP": "not-an-ip"},
			want:    "10.1.2.3:5000",
		},
		{
			name:    "invalid trusted entry skipped",
			trusted: []string{"bogus"},
			remote:  "10.1.2.3:5000",
			headers: map[string]string{"X-Real-IP": "1.2.3.4"},
			want:    "10.1.2.3:5000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := TrustedRealIP(tt.trusted)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.RemoteAddr
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			if got != tt.want {
				t.Errorf("RemoteAddr = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = middleware.GetReqID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if len(seen) != 36 {
		t.Errorf("generated id %q is not a UUID", seen)
	}
	if rec.Header().Get(RequestIDHeader) != seen {
		t.Errorf("response header = %q, want %q", rec.Header().Get(RequestIDHeader), seen)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "abc-123" {
		t.Errorf("incoming id not reused: %q", seen)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "bad id with spaces")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen == "bad id with spaces" {
		t.Error("malformed incoming id was accepted")
	}
}

func TestLogger_RedactsAPIKey(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(logging.New(&buf, "info", "text"))
	defer slog.SetDefault(prev)

	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short"))
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x?api_key=topsecret&a=1", nil))

	out := buf.String()
	if strings.Contains(out, "topsecret") {
		t.Errorf("log leaks api key: %s", out)
	}
	if !strings.Contains(out, "status=418") || !strings.Contains(out, "bytes=5") {
		t.Errorf("log missing status or bytes: %s", out)
	}
}
