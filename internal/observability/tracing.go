// Package observability wires opentelemetry tracing and Prometheus metrics
// exposition for the ReAct loop and node executor (spec.md's ambient
// stack), matching hector's own otel/prometheus composition.
package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	stdouttrace "go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the single instrumentation scope every span in this
// process is recorded under.
const TracerName = "github.com/arcflow/substrate"

// TracerProviderOptions selects the exporter: "otlp" ships spans to a
// collector via otlptracegrpc; anything else (including "" for local
// development) uses stdouttrace, the way hector defaults to console
// tracing outside production.
type TracerProviderOptions struct {
	Exporter     string // "otlp" or "stdout"
	OTLPEndpoint string
	ServiceName  string
}

// NewTracerProvider builds and registers the global TracerProvider,
// returning a shutdown func to flush on exit.
func NewTracerProvider(ctx context.Context, opts TracerProviderOptions) (shutdown func(context.Context) error, err error) {
	var exporter sdktrace.SpanExporter
	switch opts.Exporter {
	case "otlp":
		exporter, err = otlptracegrpc.New(ctx, otlptracegrpc.WithEndpoint(opts.OTLPEndpoint), otlptracegrpc.WithInsecure())
		if err != nil {
			return nil, fmt.Errorf("build otlp exporter: %w", err)
		}
	default:
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("build stdout exporter: %w", err)
		}
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

// Tracer returns the package-scoped tracer for span creation.
func Tracer() trace.Tracer { return otel.Tracer(TracerName) }

// StartReactIteration opens one span per ReAct loop iteration (spec.md's
// "one span per ReAct iteration and per node execution").
func StartReactIteration(ctx context.Context, workflowID string, step int) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "react.iteration", trace.WithAttributes(
		attrString("workflow_id", workflowID),
		attrInt("step", step),
	))
}

// StartNodeExecution opens one span per node execution.
func StartNodeExecution(ctx context.Context, workflowID, nodeID, nodeKind string) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "workflow.node_execution", trace.WithAttributes(
		attrString("workflow_id", workflowID),
		attrString("node_id", nodeID),
		attrString("node_kind", nodeKind),
	))
}
