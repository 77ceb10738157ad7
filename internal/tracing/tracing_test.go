package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestNewProvider_Disabled(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{})
	require.NoError(t, err)
	assert.False(t, p.Enabled())
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProvider_InvalidSampling(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{Endpoint: "localhost:4318", SamplingRate: 2})
	assert.Error(t, err)
}

func TestStartSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	_, end := StartSpan(context.Background(), "settlement.settle", attribute.String("provider", "card-checkout"))
	end(errors.New("not found"))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "settlement.settle", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
}
