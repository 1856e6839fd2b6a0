package telemetry

import (
	"log/slog"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Debug logs a debug-level event.
func (s *Span) Debug(message string, attrs ...Attr) {
	s.event(slog.LevelDebug, message, attrs)
}

// Info logs an info-level event.
func (s *Span) Info(message string, attrs ...Attr) {
	s.event(slog.LevelInfo, message, attrs)
}

// Warn logs a warning-level event.
func (s *Span) Warn(message string, attrs ...Attr) {
	s.event(slog.LevelWarn, message, attrs)
}

// Error logs an error-level event.
//
// It marks the span as failed and increments the recorder's error counter
// regardless of whether error-level logging is enabled.
func (s *Span) Error(message string, err error, attrs ...Attr) {
	set := s.eventAttrs(attrs)

	s.span.SetStatus(codes.Error, err.Error())
	s.span.RecordError(err, trace.WithAttributes(set.ForSpan()...))
	s.recorder.errors.Add(s.ctx, 1)

	if !s.logger.Enabled(s.ctx, slog.LevelError) {
		return
	}

	s.logger.ErrorContext(
		s.ctx,
		message,
		append(
			set.ForLogger(),
			slog.String("error", err.Error()),
		)...,
	)
}

func (s *Span) event(level slog.Level, message string, attrs []Attr) {
	if !s.logger.Enabled(s.ctx, level) {
		return
	}

	set := s.eventAttrs(attrs)

	s.span.AddEvent(message, trace.WithAttributes(set.ForSpan()...))
	s.logger.Log(s.ctx, level, message, set.ForLogger()...)
}

func (s *Span) eventAttrs(attrs []Attr) attrSet {
	return attrSet{
		Namespace: s.recorder.Name,
		Attrs:     attrs,
	}
}
