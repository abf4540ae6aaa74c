package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestOpenTelemetryConfig(t *testing.T) {
	config := defaultOTelConfig()
	if config.TracerName != defaultTracerName {
		t.Errorf("TracerName = %q, want %q", config.TracerName, defaultTracerName)
	}
	if config.IncludeQuery {
		t.Error("IncludeQuery should default to false")
	}

	filter := func(*http.Request) bool { return true }
	extractor := func(*http.Request) []attribute.KeyValue { return nil }
	for _, opt := range []OTelOption{
		WithTracerName("custom"),
		WithIncludeQuery(true),
		WithRequestFilter(filter),
		WithAttributeExtractor(extractor),
		WithPropagator(propagation.TraceContext{}),
	} {
		opt(&config)
	}
	if config.TracerName != "custom" || !config.IncludeQuery {
		t.Errorf("config = %+v", config)
	}
	if config.Filter == nil || config.AttributeExtractor == nil || config.Propagator == nil {
		t.Error("function options not applied")
	}
}

func TestOpenTelemetryMiddleware_PropagatesContext(t *testing.T) {
	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")

	var seen trace.SpanContext
	h := OpenTelemetry(WithPropagator(propagation.TraceContext{}))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = trace.SpanContextFromContext(r.Context())
			w.WriteHeader(http.StatusAccepted)
		}))

	req := httptest.NewRequest(http.MethodGet, "/blog/hello", nil)
	req.Header.Set("traceparent", "00-"+traceID.String()+"-"+spanID.String()+"-01")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusAccepted)
	}
	// With the no-op provider the extracted remote context is passed through.
	if seen.TraceID() != traceID {
		t.Errorf("TraceID = %s, want %s", seen.TraceID(), traceID)
	}
}

func TestOpenTelemetryMiddleware_Filter(t *testing.T) {
	called := false
	h := OpenTelemetry(WithRequestFilter(func(r *http.Request) bool {
		return r.URL.Path != "/healthz"
	}))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if !called {
		t.Error("filtered request did not reach the handler")
	}
}

func TestFormatSpanName(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/api/users", nil)
	if got := formatSpanName(r); got != "HTTP POST" {
		t.Errorf("formatSpanName() = %q, want %q", got, "HTTP POST")
	}
}
