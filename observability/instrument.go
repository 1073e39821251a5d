package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/injectkit/di"
	"github.com/kbukum/injectkit/errors"
)

// Instrument traces and measures registry operations. It implements
// di.Instrument; either the tracer or the metrics may be nil.
type Instrument struct {
	tracer  trace.Tracer
	metrics *Metrics
}

var _ di.Instrument = (*Instrument)(nil)

// NewInstrument creates an Instrument.
//
//	reg := di.New(di.WithInstrument(observability.NewInstrument(observability.Tracer(), metrics)))
func NewInstrument(tracer trace.Tracer, metrics *Metrics) *Instrument {
	return &Instrument{tracer: tracer, metrics: metrics}
}

// Start opens a span for op and returns the func that closes it.
func (i *Instrument) Start(ctx context.Context, op di.Operation, key di.Key) (context.Context, func(error)) {
	start := time.Now()
	name := key.String()

	var span trace.Span
	if i.tracer != nil {
		ctx, span = i.tracer.Start(ctx, spanName(op),
			trace.WithAttributes(
				attribute.String(AttrKey, name),
				attribute.String(AttrOperation, string(op)),
			),
		)
	}
	if i.metrics != nil {
		i.metrics.RecordStart(ctx, string(op))
	}

	return ctx, func(err error) {
		code := errorCode(err)
		if span != nil {
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				span.SetAttributes(attribute.String(AttrErrorCode, code))
			}
			span.End()
		}
		if i.metrics != nil {
			i.metrics.RecordEnd(ctx, string(op), name, code, time.Since(start))
		}
	}
}

func spanName(op di.Operation) string {
	if op == di.OpInstantiate {
		return SpanInstantiate
	}
	return SpanResolve
}

func errorCode(err error) string {
	if err == nil {
		return ""
	}
	if appErr, ok := errors.AsAppError(err); ok {
		return string(appErr.Code)
	}
	return string(errors.ErrCodeInternal)
}
