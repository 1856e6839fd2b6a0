package telemetry

import (
	"log/slog"
	"reflect"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/exp/constraints"
)

// Attr is a telemetry attribute.
//
// The zero value is an empty attribute that is omitted from all telemetry.
type Attr struct {
	kv attribute.KeyValue
}

// String returns a string attribute.
func String[T ~string](k string, v T) Attr {
	return Attr{attribute.String(k, string(v))}
}

// Int returns an int64 attribute.
func Int[T constraints.Integer](k string, v T) Attr {
	return Attr{attribute.Int64(k, int64(v))}
}

// Float returns a float64 attribute.
func Float[T constraints.Float](k string, v T) Attr {
	return Attr{attribute.Float64(k, float64(v))}
}

// Bool returns a boolean attribute.
func Bool[T ~bool](k string, v T) Attr {
	return Attr{attribute.Bool(k, bool(v))}
}

// Duration returns a string attribute containing v in human readable format.
func Duration(k string, v time.Duration) Attr {
	return String(k, v.String())
}

// Type returns a string attribute set to the name of T.
func Type[T any](k string, v T) Attr {
	t := reflect.TypeOf(v)
	if t == nil {
		return String(k, "<nil>")
	}

	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	return String(k, t.String())
}

// If returns attr if cond is true, otherwise it returns an empty attribute.
func If(cond bool, attr Attr) Attr {
	if cond {
		return attr
	}
	return Attr{}
}

// attrSet is a set of attributes that belong to a particular namespace.
type attrSet struct {
	Namespace string
	Attrs     []Attr
}

// ForSpan returns the attributes as OpenTelemetry key/value pairs, with keys
// qualified by the namespace.
func (s attrSet) ForSpan() []attribute.KeyValue {
	kvs := make([]attribute.KeyValue, 0, len(s.Attrs))

	for _, a := range s.Attrs {
		if a.kv.Key == "" {
			continue
		}

		kv := a.kv
		if s.Namespace != "" {
			kv.Key = attribute.Key("snipstore." + s.Namespace + "." + string(kv.Key))
		}

		kvs = append(kvs, kv)
	}

	return kvs
}

// ForLogger returns the attributes as arguments for a [slog.Logger].
func (s attrSet) ForLogger() []any {
	attrs := make([]any, 0, len(s.Attrs))

	for _, a := range s.Attrs {
		if a.kv.Key == "" {
			continue
		}

		attrs = append(attrs, slog.Any(string(a.kv.Key), a.kv.Value.AsInterface()))
	}

	return attrs
}
