package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation name for minutes spans.
const TracerName = "minutes"

// Span attribute keys
const (
	AttrRunID    = "run_id"
	AttrStage    = "stage"
	AttrInput    = "input_path"
	AttrOutput   = "output_path"
	AttrModel    = "model"
	AttrChunks   = "chunks"
	AttrSegments = "segments"
	AttrErrCode  = "error_code"
)

// Tracer starts spans for stages and collaborator calls.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer returns a Tracer backed by the global OpenTelemetry provider.
// Without a configured provider spans are no-ops.
func NewTracer() *Tracer {
	return &Tracer{tracer: otel.Tracer(TracerName)}
}

// StartStageSpan starts the root span for a CLI stage.
func (t *Tracer) StartStageSpan(ctx context.Context, stage, runID string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "minutes.stage."+stage,
		trace.WithAttributes(
			attribute.String(AttrStage, stage),
			attribute.String(AttrRunID, runID),
		),
	)
}

// StartCallSpan starts a span around an external collaborator call.
func (t *Tracer) StartCallSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "minutes.call."+name, trace.WithAttributes(attrs...))
}

// EndSpan records err on span, if any, and ends it.
func EndSpan(span trace.Span, err error, code string) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		if code != "" {
			span.SetAttributes(attribute.String(AttrErrCode, code))
		}
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// GetTraceID returns the trace ID from the context.
func GetTraceID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().HasTraceID() {
		return span.SpanContext().TraceID().String()
	}
	return ""
}
