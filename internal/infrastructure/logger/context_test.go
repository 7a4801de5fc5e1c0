package logger

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromContext(t *testing.T) {
	t.Run("returns nop logger when absent", func(t *testing.T) {
		l := FromContext(context.Background())
		require.NotNil(t, l)
		assert.False(t, l.Core().Enabled(zapcore.ErrorLevel))
	})

	t.Run("returns attached logger", func(t *testing.T) {
		base := zap.NewExample()
		assert.Same(t, base, FromContext(WithContext(context.Background(), base)))
	})
}

func TestRequestAndTenantIDs(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, RequestID(ctx))
	assert.Equal(t, uuid.Nil, TenantID(ctx))

	tenantID := uuid.New()
	ctx = WithTenantID(WithRequestID(ctx, "req-1"), tenantID)
	assert.Equal(t, "req-1", RequestID(ctx))
	assert.Equal(t, tenantID, TenantID(ctx))
}

func TestL_EnrichesFields(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	tenantID := uuid.New()

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	spanCtx := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID})

	ctx := WithContext(context.Background(), zap.New(core))
	ctx = WithRequestID(ctx, "req-42")
	ctx = WithTenantID(ctx, tenantID)
	ctx = trace.ContextWithSpanContext(ctx, spanCtx)

	L(ctx).Info("expense charged")

	require.Equal(t, 1, recorded.Len())
	fields := recorded.All()[0].ContextMap()
	assert.Equal(t, "req-42", fields["request_id"])
	assert.Equal(t, tenantID.String(), fields["tenant_id"])
	assert.Equal(t, traceID.String(), fields["trace_id"])
	assert.Equal(t, spanID.String(), fields["span_id"])
}

func TestL_WithoutFieldsReturnsBase(t *testing.T) {
	base := zap.NewExample()
	assert.Same(t, base, L(WithContext(context.Background(), base)))
}
