package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const InstrumentationName = "github.com/danpasecinic/scopehost"

// Attribute keys recorded on host spans.
const (
	AttrScopeID = "scopehost.scope.id"
	AttrService = "scopehost.service"
	AttrPhase   = "scopehost.phase"
	AttrCount   = "scopehost.services"
)

// Span names.
const (
	SpanHostStart = "scopehost.start"
	SpanHostStop  = "scopehost.stop"
	SpanPhase     = "scopehost.phase"
)

type Tracer struct {
	tracer trace.Tracer
}

// NewTracer returns a tracer backed by tp, or a no-op tracer when tp is nil.
func NewTracer(tp trace.TracerProvider) *Tracer {
	if tp == nil {
		tp = noop.NewTracerProvider()
	}
	return &Tracer{tracer: tp.Tracer(InstrumentationName)}
}

func (t *Tracer) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// End records err on span, if any, and ends it.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

func ScopeID(id string) attribute.KeyValue {
	return attribute.String(AttrScopeID, id)
}

func Service(name string) attribute.KeyValue {
	return attribute.String(AttrService, name)
}

func Phase(name string) attribute.KeyValue {
	return attribute.String(AttrPhase, name)
}

func Count(n int) attribute.KeyValue {
	return attribute.Int(AttrCount, n)
}
