package telemetry

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// Span represents a single named and timed operation of a workflow.
type Span struct {
	recorder *Recorder
	ctx      context.Context
	span     trace.Span
	logger   *slog.Logger
}

// StartSpan starts a new span.
func (r *Recorder) StartSpan(
	ctx context.Context,
	name string,
	attrs ...Attr,
) (context.Context, *Span) {
	set := attrSet{
		Namespace: r.Name,
		Attrs:     append(r.attrs[:len(r.attrs):len(r.attrs)], attrs...),
	}

	ctx, span := r.Tracer.Start(
		ctx,
		name,
		trace.WithAttributes(set.ForSpan()...),
	)

	loggerAttrs := []any{
		slog.String("span_name", name),
	}

	local := attrSet{
		Namespace: r.Name,
		Attrs:     attrs,
	}
	loggerAttrs = append(loggerAttrs, local.ForLogger()...)

	sctx := span.SpanContext()
	if sctx.HasTraceID() {
		loggerAttrs = append(
			loggerAttrs,
			slog.String("trace_id", sctx.TraceID().String()),
		)
	}

	if sctx.HasSpanID() {
		loggerAttrs = append(
			loggerAttrs,
			slog.String("span_id", sctx.SpanID().String()),
		)
	}

	return ctx, &Span{
		recorder: r,
		ctx:      ctx,
		span:     span,
		logger:   r.Logger.With(loggerAttrs...),
	}
}

// End completes the span.
func (s *Span) End() {
	s.span.End()
}

// SetAttributes sets attributes on the span.
func (s *Span) SetAttributes(attrs ...Attr) {
	set := attrSet{
		Namespace: s.recorder.Name,
		Attrs:     attrs,
	}

	s.span.SetAttributes(set.ForSpan()...)
	s.logger = s.logger.With(set.ForLogger()...)
}
