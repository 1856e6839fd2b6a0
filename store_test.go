package snipstore_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	. "github.com/soletrym/snipstore"
	"github.com/soletrym/snipstore/internal/test"
	"github.com/soletrym/snipstore/persistence/driver/file"
	"github.com/soletrym/snipstore/persistence/driver/memory"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"pgregory.net/rapid"
)

func newStore(t *testing.T, options ...Option) (*Store, *memory.KeyValueStore) {
	t.Helper()

	kvs := &memory.KeyValueStore{}
	tel := test.NewTelemetryProvider(t)

	s := New(
		append(
			[]Option{
				WithKeyValueStore(kvs),
				WithLogger(tel.Logger),
				WithTracerProvider(tel.TracerProvider),
				WithMeterProvider(tel.MeterProvider),
			},
			options...,
		)...,
	)

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Error(err)
		}
	})

	return s, kvs
}

func TestStore(t *testing.T) {
	t.Parallel()

	t.Run("it returns the body that was stored", func(t *testing.T) {
		t.Parallel()

		ctx, _ := test.ContextWithTimeout(t, 5*time.Second)
		s, _ := newStore(t)

		if err := s.Put(ctx, "abc123", "Hello world"); err != nil {
			t.Fatal(err)
		}

		got, err := s.Get(ctx, "abc123")
		if err != nil {
			t.Fatal(err)
		}

		test.Expect(t, "unexpected body", got, "Hello world")
	})

	t.Run("it returns a not found error for an unknown ID", func(t *testing.T) {
		t.Parallel()

		ctx, _ := test.ContextWithTimeout(t, 5*time.Second)
		s, _ := newStore(t)

		_, err := s.Get(ctx, "doesnotexist")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("unexpected error: got %v, want %v", err, ErrNotFound)
		}

		var nf NotFoundError
		if !errors.As(err, &nf) {
			t.Fatalf("expected a NotFoundError, got %T", err)
		}

		test.Expect(t, "unexpected ID in error", nf.ID, "doesnotexist")
	})

	t.Run("it treats an empty ID as not found", func(t *testing.T) {
		t.Parallel()

		ctx, _ := test.ContextWithTimeout(t, 5*time.Second)
		s, _ := newStore(t)

		if _, err := s.Get(ctx, ""); !errors.Is(err, ErrNotFound) {
			t.Fatalf("unexpected error: got %v, want %v", err, ErrNotFound)
		}
	})

	t.Run("it rejects an empty ID on put without writing", func(t *testing.T) {
		t.Parallel()

		ctx, _ := test.ContextWithTimeout(t, 5*time.Second)
		s, kvs := newStore(t)

		if err := s.Put(ctx, "", "<body>"); !errors.Is(err, ErrInvalidID) {
			t.Fatalf("unexpected error: got %v, want %v", err, ErrInvalidID)
		}

		ks, err := kvs.Open(ctx, "snippets")
		if err != nil {
			t.Fatal(err)
		}
		defer ks.Close()

		if ok, err := ks.Has(ctx, []byte{}); err != nil {
			t.Fatal(err)
		} else if ok {
			t.Fatal("did not expect a value to be written")
		}
	})

	t.Run("it distinguishes an empty body from a missing snippet", func(t *testing.T) {
		t.Parallel()

		ctx, _ := test.ContextWithTimeout(t, 5*time.Second)
		s, _ := newStore(t)

		if err := s.Put(ctx, "<id>", ""); err != nil {
			t.Fatal(err)
		}

		got, err := s.Get(ctx, "<id>")
		if err != nil {
			t.Fatal(err)
		}

		test.Expect(t, "unexpected body", got, "")
	})

	t.Run("it stores the body verbatim", func(t *testing.T) {
		t.Parallel()

		ctx, _ := test.ContextWithTimeout(t, 5*time.Second)
		s, _ := newStore(t)

		body := "  line one\n\tline two  \r\n<script>alert('æøå')</script>\x00"

		if err := s.Put(ctx, "<id>", body); err != nil {
			t.Fatal(err)
		}

		got, err := s.Get(ctx, "<id>")
		if err != nil {
			t.Fatal(err)
		}

		test.Expect(t, "unexpected body", got, body)
	})

	t.Run("it returns the last body written", func(t *testing.T) {
		t.Parallel()

		ctx, _ := test.ContextWithTimeout(t, 5*time.Second)
		s, _ := newStore(t)

		for _, body := range []string{"first", "second", "third"} {
			if err := s.Put(ctx, "<id>", body); err != nil {
				t.Fatal(err)
			}
		}

		got, err := s.Get(ctx, "<id>")
		if err != nil {
			t.Fatal(err)
		}

		test.Expect(t, "unexpected body", got, "third")
	})

	t.Run("it uses the configured keyspace", func(t *testing.T) {
		t.Parallel()

		ctx, _ := test.ContextWithTimeout(t, 5*time.Second)
		s, kvs := newStore(t, WithKeyspace("<keyspace>"))

		if err := s.Put(ctx, "<id>", "<body>"); err != nil {
			t.Fatal(err)
		}

		ks, err := kvs.Open(ctx, "<keyspace>")
		if err != nil {
			t.Fatal(err)
		}
		defer ks.Close()

		v, ok, err := ks.Get(ctx, []byte("<id>"))
		if err != nil {
			t.Fatal(err)
		}

		test.Expect(t, "unexpected presence", ok, true)
		test.Expect(t, "unexpected value", string(v), "<body>")
	})

	t.Run("snippets survive a new store over the same medium", func(t *testing.T) {
		t.Parallel()

		ctx, _ := test.ContextWithTimeout(t, 5*time.Second)
		kvs := &memory.KeyValueStore{}

		first := New(WithKeyValueStore(kvs))
		if err := first.Put(ctx, "<id>", "<body>"); err != nil {
			t.Fatal(err)
		}
		if err := first.Close(); err != nil {
			t.Fatal(err)
		}

		second := New(WithKeyValueStore(kvs))
		defer second.Close()

		got, err := second.Get(ctx, "<id>")
		if err != nil {
			t.Fatal(err)
		}

		test.Expect(t, "unexpected body", got, "<body>")
	})

	t.Run("it stores long IDs on the file medium", func(t *testing.T) {
		t.Parallel()

		ctx, _ := test.ContextWithTimeout(t, 5*time.Second)
		kvs := &file.KeyValueStore{Dir: t.TempDir()}

		s := New(WithKeyValueStore(kvs))
		defer s.Close()

		for _, size := range []int{128, 255, 1024} {
			id := strings.Repeat("a", size)

			if err := s.Put(ctx, id, "Hello world"); err != nil {
				t.Fatal(err)
			}

			got, err := s.Get(ctx, id)
			if err != nil {
				t.Fatal(err)
			}

			test.Expect(t, "unexpected body", got, "Hello world")
		}
	})

	t.Run("it returns storage failures", func(t *testing.T) {
		t.Parallel()

		ctx, _ := test.ContextWithTimeout(t, 5*time.Second)
		s, kvs := newStore(t)

		memory.FailBeforeKeyspaceSet(
			kvs,
			"snippets",
			func(k, v []byte) bool { return string(k) == "<id>" },
		)

		err := s.Put(ctx, "<id>", "<body>")
		if !errors.Is(err, memory.ErrInjected) {
			t.Fatalf("unexpected error: got %v, want %v", err, memory.ErrInjected)
		}

		if _, err := s.Get(ctx, "<id>"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected the failed write to leave no snippet, got %v", err)
		}
	})

	t.Run("it returns an error after it is closed", func(t *testing.T) {
		t.Parallel()

		ctx, _ := test.ContextWithTimeout(t, 5*time.Second)
		s, _ := newStore(t)

		if err := s.Close(); err != nil {
			t.Fatal(err)
		}

		if err := s.Put(ctx, "<id>", "<body>"); !errors.Is(err, ErrClosed) {
			t.Fatalf("unexpected error: got %v, want %v", err, ErrClosed)
		}

		if _, err := s.Get(ctx, "<id>"); !errors.Is(err, ErrClosed) {
			t.Fatalf("unexpected error: got %v, want %v", err, ErrClosed)
		}
	})
}

func TestStore_laws(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		ctx := context.Background()
		s := New(WithKeyValueStore(&memory.KeyValueStore{}))
		defer s.Close()

		model := map[string]string{}
		id := rapid.StringN(1, 16, -1)

		t.Repeat(map[string]func(*rapid.T){
			"put": func(t *rapid.T) {
				k := id.Draw(t, "id")
				body := rapid.String().Draw(t, "body")

				if err := s.Put(ctx, k, body); err != nil {
					t.Fatal(err)
				}
				model[k] = body
			},
			"put again": func(t *rapid.T) {
				if len(model) == 0 {
					t.Skip("no snippets stored yet")
				}

				k := rapid.SampledFrom(keys(model)).Draw(t, "id")
				body := model[k]

				if err := s.Put(ctx, k, body); err != nil {
					t.Fatal(err)
				}
			},
			"get": func(t *rapid.T) {
				k := id.Draw(t, "id")

				got, err := s.Get(ctx, k)

				if want, ok := model[k]; ok {
					if err != nil {
						t.Fatal(err)
					}
					test.Expect(t, "unexpected body", got, want)
				} else if !errors.Is(err, ErrNotFound) {
					t.Fatalf("unexpected error: got %v, want %v", err, ErrNotFound)
				}
			},
			"": func(t *rapid.T) {
				for k, want := range model {
					got, err := s.Get(ctx, k)
					if err != nil {
						t.Fatal(err)
					}
					test.Expect(t, "unexpected body", got, want)
				}
			},
		})
	})
}

func TestNewID(t *testing.T) {
	t.Parallel()

	seen := map[string]struct{}{}

	for range 100 {
		id := NewID()
		if id == "" {
			t.Fatal("expected a non-empty ID")
		}

		if _, ok := seen[id]; ok {
			t.Fatalf("duplicate ID: %s", id)
		}
		seen[id] = struct{}{}
	}
}

func keys(m map[string]string) []string {
	k := maps.Keys(m)
	slices.Sort(k)
	return k
}
