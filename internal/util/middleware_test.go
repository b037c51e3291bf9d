package util

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWithCORS(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    string
	}{
		{name: "empty list allows any", origin: "http://ui.local", want: "*"},
		{name: "listed origin echoed", allowed: []string{"http://ui.local"}, origin: "http://ui.local", want: "http://ui.local"},
		{name: "unlisted origin rejected", allowed: []string{"http://ui.local"}, origin: "http://evil.local", want: ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := WithCORS(tc.allowed, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))
			req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
			req.Header.Set("Origin", tc.origin)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tc.want {
				t.Fatalf("allow origin = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestWithCORSPreflight(t *testing.T) {
	called := false
	h := WithCORS(nil, http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	req := httptest.NewRequest(http.MethodOptions, "/api/lots/1", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent || called {
		t.Fatalf("preflight status=%d called=%v", rec.Code, called)
	}
}

func TestWithRequestLogUsesRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
	newLogger(&buf, "info", "json")

	h := WithRequestID(WithRequestLog(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("hi"))
	})))
	req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	h.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if entry["request_id"] != "req-1" || entry["service"] != "portal" {
		t.Fatalf("log entry = %v", entry)
	}
	if entry["status"] != float64(http.StatusTeapot) || entry["bytes"] != float64(2) {
		t.Fatalf("log entry = %v", entry)
	}
}

func TestStatusRecorderFlushes(t *testing.T) {
	rec := httptest.NewRecorder()
	var w http.ResponseWriter = &statusRecorder{ResponseWriter: rec}
	f, ok := w.(http.Flusher)
	if !ok {
		t.Fatalf("recorder does not implement http.Flusher")
	}
	f.Flush()
	if !rec.Flushed {
		t.Fatalf("flush not forwarded")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoggerFromContextFallsBackToDefault(t *testing.T) {
	if LoggerFromContext(nil) != slog.Default() {
		t.Fatalf("expected default logger")
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := RequestIDFromRequest(req); got != "" {
		t.Fatalf("request id outside middleware = %q", got)
	}
	if !strings.Contains(NewID(), "-") {
		t.Fatalf("expected uuid formatted id")
	}
}
