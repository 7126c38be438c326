package otelx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "")
	t.Setenv("OTEL_SAMPLING_RATIO", "7")
	cfg := ConfigFromEnv("booking-service")
	assert.False(t, cfg.Enabled)
	assert.Equal(t, 1.0, cfg.SampleRatio)

	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("OTEL_SAMPLING_RATIO", "0.25")
	cfg = ConfigFromEnv("booking-service")
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 0.25, cfg.SampleRatio)
}

func TestTraceContextRoundTrip(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{})
	require.NoError(t, err)
	defer shutdown(context.Background())

	tp, ts := TraceContextStrings(context.Background())
	assert.Empty(t, tp)
	assert.Empty(t, ts)

	const parent = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"
	ctx := ContextWithTraceContext(context.Background(), parent, "")
	sc := trace.SpanContextFromContext(ctx)
	assert.True(t, sc.IsValid())
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", sc.TraceID().String())

	tp, _ = TraceContextStrings(ctx)
	assert.Equal(t, parent, tp)
}
