package observability_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcflow/substrate/internal/observability"
)

func TestNewTracerProvider_StdoutExporterByDefault(t *testing.T) {
	shutdown, err := observability.NewTracerProvider(context.Background(), observability.TracerProviderOptions{ServiceName: "substrate-test"})
	require.NoError(t, err)
	defer shutdown(context.Background())

	_, span := observability.StartReactIteration(context.Background(), "wf1", 1)
	assert.True(t, span.SpanContext().IsValid())
	span.End()
}

func TestStartNodeExecution_ProducesValidSpan(t *testing.T) {
	shutdown, err := observability.NewTracerProvider(context.Background(), observability.TracerProviderOptions{})
	require.NoError(t, err)
	defer shutdown(context.Background())

	_, span := observability.StartNodeExecution(context.Background(), "wf1", "node-a", "tool")
	assert.True(t, span.SpanContext().IsValid())
	span.End()
}

func TestHandler_ServesPrometheusFormat(t *testing.T) {
	reg := observability.NewRegistry()
	h := observability.Handler(reg)
	assert.NotNil(t, h)
}
