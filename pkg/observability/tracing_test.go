package observability

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	previous := otel.GetTracerProvider()
	install(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	t.Cleanup(func() { otel.SetTracerProvider(previous) })
	return recorder
}

func TestStartSpan_RecordsError(t *testing.T) {
	recorder := withRecorder(t)

	_, span := StartSpan(context.Background(), "backend.publish", attribute.String("workspace.id", "ws-1"))
	EndSpan(span, stderrors.New("connection refused"))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "backend.publish", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Contains(t, spans[0].Attributes(), attribute.String("workspace.id", "ws-1"))
	assert.Len(t, spans[0].Events(), 1)
}

func TestStartSpan_Nested(t *testing.T) {
	recorder := withRecorder(t)

	ctx, parent := StartSpan(context.Background(), "session.submit")
	_, child := StartSpan(ctx, "backend.publish")
	EndSpan(child, nil)
	EndSpan(parent, nil)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, spans[1].SpanContext().SpanID(), spans[0].Parent().SpanID())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
}

func TestNewTracing_RequiresEndpoint(t *testing.T) {
	_, err := NewTracing(context.Background(), TracingConfig{Environment: "development"})
	assert.Error(t, err)
}

func TestNewSampler(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), newSampler(TracingConfig{Environment: "development"}).Description())
	assert.Contains(t, newSampler(TracingConfig{Environment: "production", SampleRate: 0.5}).Description(), "0.5")
}
