package snipstore

import (
	"log/slog"

	"github.com/soletrym/snipstore/internal/config"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// WithTracerProvider is an [Option] that sets the OpenTelemetry tracer
// provider used by the store.
func WithTracerProvider(p trace.TracerProvider) Option {
	if p == nil {
		panic("tracer provider must not be nil")
	}

	return func(cfg *config.Config) {
		cfg.Telemetry.TracerProvider = p
	}
}

// WithMeterProvider is an [Option] that sets the OpenTelemetry meter provider
// used by the store.
func WithMeterProvider(p metric.MeterProvider) Option {
	if p == nil {
		panic("meter provider must not be nil")
	}

	return func(cfg *config.Config) {
		cfg.Telemetry.MeterProvider = p
	}
}

// WithLogger is an [Option] that sets the logger used by the store.
func WithLogger(l *slog.Logger) Option {
	if l == nil {
		panic("logger must not be nil")
	}

	return func(cfg *config.Config) {
		cfg.Telemetry.Logger = l
	}
}
