package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// setupTestTracer sets up a test tracer provider and returns the span recorder.
func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	t.Cleanup(func() {
		_ = tp.Shutdown(t.Context())
	})

	return sr
}

func tracedRouter(status int) *gin.Engine {
	router := gin.New()
	router.Use(
		RequestID(),
		TracingWithConfig(TracingConfig{Enabled: true, ServiceName: "card-ledger-test"}),
		Tenant(DefaultTenantConfig()),
		SpanAttributes(),
	)
	router.POST("/api/v1/card-invoices/:id/pay", func(c *gin.Context) {
		c.Status(status)
	})
	return router
}

func findSpan(t *testing.T, sr *tracetest.SpanRecorder, name string) sdktrace.ReadOnlySpan {
	t.Helper()
	for _, span := range sr.Ended() {
		if span.Name() == name {
			return span
		}
	}
	require.Failf(t, "span not found", "no span named %q", name)
	return nil
}

func spanAttr(span sdktrace.ReadOnlySpan, key string) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestTracingWithConfig_Disabled(t *testing.T) {
	sr := setupTestTracer(t)

	router := gin.New()
	router.Use(TracingWithConfig(TracingConfig{Enabled: false}))
	router.GET("/cards", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/cards", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, sr.Ended())
}

func TestSpanAttributes_TagsRequestAndTenant(t *testing.T) {
	sr := setupTestTracer(t)
	tenantID := uuid.New()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/card-invoices/"+uuid.NewString()+"/pay", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	req.Header.Set(TenantHeaderKey, tenantID.String())
	w := httptest.NewRecorder()
	tracedRouter(http.StatusOK).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	span := findSpan(t, sr, "POST /api/v1/card-invoices/:id/pay")

	requestID, ok := spanAttr(span, "request_id")
	require.True(t, ok)
	assert.Equal(t, "req-42", requestID.AsString())
	tenant, ok := spanAttr(span, "tenant_id")
	require.True(t, ok)
	assert.Equal(t, tenantID.String(), tenant.AsString())
	assert.NotEqual(t, codes.Error, span.Status().Code)
}

func TestSpanAttributes_MarksErrorResponses(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"unprocessable", http.StatusUnprocessableEntity},
		{"not found", http.StatusNotFound},
		{"internal", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sr := setupTestTracer(t)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/card-invoices/"+uuid.NewString()+"/pay", nil)
			req.Header.Set(TenantHeaderKey, uuid.NewString())
			w := httptest.NewRecorder()
			tracedRouter(tt.status).ServeHTTP(w, req)

			span := findSpan(t, sr, "POST /api/v1/card-invoices/:id/pay")
			assert.Equal(t, codes.Error, span.Status().Code)
			status, ok := spanAttr(span, "http.status_code")
			require.True(t, ok)
			assert.Equal(t, int64(tt.status), status.AsInt64())
		})
	}
}

func TestSpanAttributes_WithoutSpan(t *testing.T) {
	router := gin.New()
	router.Use(SpanAttributes())
	router.GET("/cards", func(c *gin.Context) {
		c.Status(http.StatusTeapot)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/cards", nil))

	assert.Equal(t, http.StatusTeapot, w.Code)
}
