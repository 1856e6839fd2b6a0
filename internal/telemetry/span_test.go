package telemetry_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	. "github.com/soletrym/snipstore/internal/telemetry"
)

func TestSpan(t *testing.T) {
	var buf bytes.Buffer

	p := &Provider{
		Logger: slog.New(
			slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}),
		),
	}

	r := p.Recorder("github.com/soletrym/snipstore", "store")
	ctx, span := r.StartSpan(context.Background(), "snippet.get", String("id", "abc123"))
	defer span.End()

	if ctx == nil {
		t.Fatal("expected a non-nil context")
	}

	span.Debug("suppressed")
	span.Info("loaded snippet", Int("size", 5))
	span.Error("lookup failed", errors.New("<error>"))

	out := buf.String()

	if strings.Contains(out, "suppressed") {
		t.Fatal("expected debug events to be suppressed")
	}

	for _, want := range []string{
		`"msg":"loaded snippet"`,
		`"span_name":"snippet.get"`,
		`"id":"abc123"`,
		`"size":5`,
		`"msg":"lookup failed"`,
		`"error":"<error>"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected log output to contain %s, got:\n%s", want, out)
		}
	}
}

func TestProvider_nil(t *testing.T) {
	var p *Provider

	r := p.Recorder("github.com/soletrym/snipstore", "store")
	_, span := r.StartSpan(context.Background(), "snippet.put")
	span.End()
}
