package logging

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// setProjectID pins the cached project id for the duration of a test.
func setProjectID(t *testing.T, id string) {
	t.Helper()
	orig := cachedProjectID
	cachedProjectID = id
	projectIDOnce = sync.Once{}
	projectIDOnce.Do(func() {})
	t.Cleanup(func() { cachedProjectID = orig })
}

func TestAccessLoggerHTTPRequestPayload(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)

	access := AccessLogger()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("hola"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/?x=1", nil)
	req.Header.Set("User-Agent", "curl/8.5.0")
	req = req.WithContext(WithLogger(req.Context(), zap.New(core)))
	access.ServeHTTP(httptest.NewRecorder(), req)

	entries := recorded.FilterMessage("request completed").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	if entries[0].Level != zapcore.InfoLevel {
		t.Fatalf("expected info level, got %v", entries[0].Level)
	}
	payload, ok := entries[0].ContextMap()["httpRequest"].(map[string]any)
	if !ok {
		t.Fatalf("expected httpRequest object, got %+v", entries[0].ContextMap())
	}
	want := map[string]any{
		"requestMethod": http.MethodGet,
		"requestUrl":    "/?x=1",
		"status":        http.StatusOK,
		"responseSize":  "4",
		"userAgent":     "curl/8.5.0",
		"remoteIp":      "192.0.2.1:1234",
		"protocol":      "HTTP/1.1",
	}
	for key, value := range want {
		if payload[key] != value {
			t.Errorf("httpRequest.%s = %v, want %v", key, payload[key], value)
		}
	}
	if latency, _ := payload["latency"].(string); !strings.HasSuffix(latency, "s") {
		t.Errorf("expected latency duration string, got %v", payload["latency"])
	}
}

func TestAccessLoggerLevelFollowsStatus(t *testing.T) {
	tests := []struct {
		status int
		want   zapcore.Level
	}{
		{http.StatusOK, zapcore.InfoLevel},
		{http.StatusNotFound, zapcore.WarnLevel},
		{http.StatusMethodNotAllowed, zapcore.WarnLevel},
		{http.StatusInternalServerError, zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			core, recorded := observer.New(zapcore.DebugLevel)
			access := AccessLogger()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req = req.WithContext(WithLogger(req.Context(), zap.New(core)))
			access.ServeHTTP(httptest.NewRecorder(), req)

			entries := recorded.All()
			if len(entries) != 1 || entries[0].Level != tt.want {
				t.Fatalf("expected one %v entry, got %+v", tt.want, entries)
			}
		})
	}
}

func TestRequestLoggerTraceFromTraceparent(t *testing.T) {
	setProjectID(t, "test-project")

	var traceID string
	handler := RequestLogger()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID = TraceIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("traceparent", testTraceparent)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	want := "projects/test-project/traces/3d23d071b5bfd6579171efce907685cb"
	if traceID != want {
		t.Fatalf("expected trace ID %q, got %q", want, traceID)
	}
}

func TestRequestLoggerFallsBackToRequestID(t *testing.T) {
	setProjectID(t, "")

	var (
		traceID string
		logger  *zap.Logger
	)
	handler := RequestLogger()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID = TraceIDFromContext(r.Context())
		logger = LoggerFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), chimiddleware.RequestIDKey, "test-request-id"))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if traceID != "test-request-id" {
		t.Fatalf("expected trace ID to fall back to request ID, got %q", traceID)
	}
	if logger == nil || logger == Logger() {
		t.Fatal("expected a derived request-scoped logger")
	}
}

func TestRequestLoggerWithoutIdentifiers(t *testing.T) {
	setProjectID(t, "")

	var traceID string
	handler := RequestLogger()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID = TraceIDFromContext(r.Context())
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if traceID != "" {
		t.Fatalf("expected no trace ID, got %q", traceID)
	}
}
