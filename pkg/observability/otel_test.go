package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// TestInitOTel_Disabled tests that InitOTel returns nil when disabled
func TestInitOTel_Disabled(t *testing.T) {
	logger := NewLogger(InfoLevel, &bytes.Buffer{})

	providers, err := InitOTel(context.Background(), OTelConfig{Enabled: false}, logger)

	assert.NoError(t, err)
	assert.Nil(t, providers)
}

func TestInitOTel_MissingEndpoint(t *testing.T) {
	logger := NewLogger(InfoLevel, &bytes.Buffer{})

	providers, err := InitOTel(context.Background(), OTelConfig{Enabled: true}, logger)

	assert.Error(t, err)
	assert.Nil(t, providers)
}

// OTLP exporters connect lazily, so an unreachable collector still initializes
func TestInitOTel_UnreachableCollector(t *testing.T) {
	logger := NewLogger(InfoLevel, &bytes.Buffer{})

	providers, err := InitOTel(context.Background(), OTelConfig{
		Enabled:        true,
		Endpoint:       "127.0.0.1:1",
		ServiceName:    "gatekeep-test",
		ServiceVersion: "test",
		Insecure:       true,
	}, logger)
	require.NoError(t, err)
	require.NotNil(t, providers)
	assert.NotNil(t, providers.TracerProvider)
	assert.NotNil(t, providers.MeterProvider)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = ShutdownOTel(ctx, providers, logger)
}

func TestShutdownOTel_NilProviders(t *testing.T) {
	logger := NewLogger(InfoLevel, &bytes.Buffer{})

	assert.NoError(t, ShutdownOTel(context.Background(), nil, logger))
	assert.NoError(t, ShutdownOTel(context.Background(), &OTelProviders{}, logger))
}

func TestShutdownOTel_WithTracerProvider(t *testing.T) {
	logger := NewLogger(InfoLevel, &bytes.Buffer{})
	providers := &OTelProviders{TracerProvider: sdktrace.NewTracerProvider()}

	assert.NoError(t, ShutdownOTel(context.Background(), providers, logger))
}

func TestTraceLogger(t *testing.T) {
	t.Run("no span", func(t *testing.T) {
		logger := NewLogger(InfoLevel, &bytes.Buffer{})
		assert.Same(t, logger, TraceLogger(context.Background(), logger))
	})

	t.Run("recording span", func(t *testing.T) {
		tp := sdktrace.NewTracerProvider()
		ctx, span := tp.Tracer("test").Start(context.Background(), "authz.chain")
		defer span.End()

		var buf bytes.Buffer
		TraceLogger(ctx, NewLogger(InfoLevel, &buf)).Info("traced")

		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, span.SpanContext().TraceID().String(), entry["trace_id"])
		assert.Equal(t, span.SpanContext().SpanID().String(), entry["span_id"])
	})

	t.Run("non-recording span", func(t *testing.T) {
		tp := sdktrace.NewTracerProvider(sdktrace.WithSampler(sdktrace.NeverSample()))
		ctx, span := tp.Tracer("test").Start(context.Background(), "authz.chain")
		defer span.End()

		logger := NewLogger(InfoLevel, &bytes.Buffer{})
		assert.Same(t, logger, TraceLogger(ctx, logger))
	})
}

func TestTracer(t *testing.T) {
	assert.NotNil(t, Tracer())
}

func TestNewResource(t *testing.T) {
	res, err := newResource(context.Background(), OTelConfig{
		ServiceName:    "gatekeepd",
		ServiceVersion: "1.2.3",
		Environment:    "staging",
		Ownership:      true,
	})
	require.NoError(t, err)

	attrs := map[string]string{}
	for _, kv := range res.Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "gatekeepd", attrs["service.name"])
	assert.Equal(t, "gatekeep", attrs["service.namespace"])
	assert.Equal(t, "1.2.3", attrs["service.version"])
	assert.Equal(t, "staging", attrs["deployment.environment"])
	assert.Equal(t, "true", attrs[string(AttrOwnershipEnabled)])
	assert.Equal(t, "false", attrs[string(AttrRateLimitEnabled)])

	res, err = newResource(context.Background(), OTelConfig{ServiceName: "gatekeepd"})
	require.NoError(t, err)
	for _, kv := range res.Attributes() {
		assert.NotEqual(t, "deployment.environment", string(kv.Key))
	}
}

func TestNewSampler(t *testing.T) {
	tests := []struct {
		ratio float64
		want  string
	}{
		{0, "AlwaysOnSampler"},
		{1, "AlwaysOnSampler"},
		{2, "AlwaysOnSampler"},
		{0.25, "TraceIDRatioBased{0.25}"},
	}

	for _, tt := range tests {
		desc := newSampler(tt.ratio).Description()
		assert.Contains(t, desc, "ParentBased")
		assert.Contains(t, desc, tt.want, "ratio %v", tt.ratio)
	}
}
