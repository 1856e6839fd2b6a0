package telemetry

import (
	"log/slog"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Recorder records traces, metrics and logs for a particular subsystem.
type Recorder struct {
	Name   string
	Tracer trace.Tracer
	Meter  metric.Meter
	Logger *slog.Logger

	attrs  []Attr
	errors metric.Int64Counter
}

// Int64Counter returns a new Int64Counter instrument.
func (r *Recorder) Int64Counter(
	name string,
	options ...metric.Int64CounterOption,
) metric.Int64Counter {
	c, err := r.Meter.Int64Counter(r.Name+"."+name, options...)
	if err != nil {
		panic(err)
	}
	return c
}

// Int64UpDownCounter returns a new Int64UpDownCounter instrument.
func (r *Recorder) Int64UpDownCounter(
	name string,
	options ...metric.Int64UpDownCounterOption,
) metric.Int64UpDownCounter {
	c, err := r.Meter.Int64UpDownCounter(r.Name+"."+name, options...)
	if err != nil {
		panic(err)
	}
	return c
}

// Int64Histogram returns a new Int64Histogram instrument.
func (r *Recorder) Int64Histogram(
	name string,
	options ...metric.Int64HistogramOption,
) metric.Int64Histogram {
	h, err := r.Meter.Int64Histogram(r.Name+"."+name, options...)
	if err != nil {
		panic(err)
	}
	return h
}
