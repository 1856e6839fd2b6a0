// Package tlog provides a [slog.Logger] that writes to a test's log.
package tlog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/exp/slices"
)

// T is the subset of [testing.TB] used by the logger.
type T interface {
	Helper()
	Log(...any)
}

// New returns a logger that writes to the test's log.
func New(t T) *slog.Logger {
	return slog.New(
		&handler{T: t},
	)
}

type handler struct {
	T      T
	attrs  []slog.Attr
	groups []string
}

func (h *handler) Enabled(context.Context, slog.Level) bool {
	return true
}

func (h *handler) Handle(_ context.Context, rec slog.Record) error {
	h.T.Helper()

	buf := &strings.Builder{}
	fmt.Fprintf(buf, "[%s] %s", rec.Level, rec.Message)

	var attrs []slog.Attr
	rec.Attrs(func(attr slog.Attr) bool {
		attrs = append(attrs, attr)
		return true
	})

	for i := len(h.groups) - 1; i >= 0; i-- {
		args := make([]any, len(attrs))
		for j, a := range attrs {
			args[j] = a
		}
		attrs = []slog.Attr{
			slog.Group(h.groups[i], args...),
		}
	}

	if len(h.attrs) != 0 || len(attrs) != 0 {
		buf.WriteString("  ---")
	}

	for _, attr := range h.attrs {
		fmt.Fprintf(buf, "  %s: %s", attr.Key, attr.Value)
	}

	for _, attr := range attrs {
		fmt.Fprintf(buf, "  %s: %s", attr.Key, attr.Value)
	}

	h.T.Log(buf.String())

	return nil
}

func (h *handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &handler{
		T:      h.T,
		attrs:  append(slices.Clone(h.attrs), attrs...),
		groups: h.groups,
	}
}

func (h *handler) WithGroup(name string) slog.Handler {
	return &handler{
		T:      h.T,
		attrs:  h.attrs,
		groups: append(slices.Clone(h.groups), name),
	}
}
