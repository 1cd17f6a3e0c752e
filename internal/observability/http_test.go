package observability

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRouteGroupBucketsAPIRoutes(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"/v1/chat/message", "chat"},
		{"/v1/query/validate", "query"},
		{"/v1/query/translate", "query"},
		{"/v1/fields", "fields"},
		{"/v1/ratings", "ratings"},
		{"/v1/ratings/stats", "ratings"},
		{"/v1/reports/export", "export"},
		{"/v1/health", "system"},
		{"/v1/ready", "system"},
		{"/v1/metrics", "system"},
		{"/favicon.ico", "other"},
		{"/v2/chat/message", "other"},
	}
	for _, tt := range cases {
		if got := RouteGroup(tt.path); got != tt.want {
			t.Fatalf("RouteGroup(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestTraceMiddlewarePreservesIncomingTraceID(t *testing.T) {
	h := TraceMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := TraceIDFromContext(r.Context()); got != "trace-1" {
			t.Fatalf("TraceIDFromContext() = %q", got)
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1/chat/message", nil)
	req.Header.Set(traceHeader, "trace-1")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if got := rr.Header().Get(traceHeader); got != "trace-1" {
		t.Fatalf("trace header = %q", got)
	}
}

func TestTraceMiddlewareGeneratesTraceID(t *testing.T) {
	h := TraceMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if TraceIDFromContext(r.Context()) == "" {
			t.Fatal("expected generated trace id")
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/ratings/stats", nil))

	if rr.Header().Get(traceHeader) == "" {
		t.Fatal("expected X-Trace-ID header")
	}
}

func TestLoggingMiddlewareEmitsRouteAndTrace(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	h := TraceMiddleware(LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})))

	req := httptest.NewRequest(http.MethodGet, "/v1/ratings/stats", nil)
	req.Header.Set(traceHeader, "trace-9")
	h.ServeHTTP(httptest.NewRecorder(), req)

	line := buf.String()
	if !strings.Contains(line, `"route":"ratings"`) {
		t.Fatalf("access log missing route group: %s", line)
	}
	if !strings.Contains(line, `"trace_id":"trace-9"`) {
		t.Fatalf("access log missing trace id: %s", line)
	}
	if !strings.Contains(line, `"status":202`) {
		t.Fatalf("access log missing status: %s", line)
	}
}

func TestWithTraceAttachesTraceID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	ctx := ContextWithTraceID(context.Background(), "abc123")
	WithTrace(ctx, logger).Info("query rejected by security gate")

	if !strings.Contains(buf.String(), `"trace_id":"abc123"`) {
		t.Fatalf("log line missing trace id: %s", buf.String())
	}

	buf.Reset()
	WithTrace(context.Background(), logger).Info("no trace")
	if strings.Contains(buf.String(), "trace_id") {
		t.Fatalf("trace id attached without one in context: %s", buf.String())
	}
}
