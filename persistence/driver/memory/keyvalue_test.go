package memory_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	. "github.com/soletrym/snipstore/persistence/driver/memory"
	"github.com/soletrym/snipstore/persistence/kv"
	"golang.org/x/sync/errgroup"
)

func TestKV(t *testing.T) {
	kv.RunTests(
		t,
		func(t *testing.T) kv.Store {
			return &KeyValueStore{}
		},
	)
}

func TestKV_failureInjection(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	t.Run("it fails before the value is written", func(t *testing.T) {
		store := &KeyValueStore{}

		FailBeforeKeyspaceSet(
			store,
			"<keyspace>",
			func(k, v []byte) bool { return string(k) == "<key>" },
		)

		ks, err := store.Open(ctx, "<keyspace>")
		if err != nil {
			t.Fatal(err)
		}
		defer ks.Close()

		if err := ks.Set(ctx, []byte("<key>"), []byte("<value>")); !errors.Is(err, ErrInjected) {
			t.Fatalf("unexpected error: %v", err)
		}

		if ok, err := ks.Has(ctx, []byte("<key>")); err != nil {
			t.Fatal(err)
		} else if ok {
			t.Fatal("did not expect the value to be written")
		}

		if err := ks.Set(ctx, []byte("<key>"), []byte("<value>")); err != nil {
			t.Fatalf("expected only the first set to fail: %v", err)
		}
	})

	t.Run("it fails after the value is written", func(t *testing.T) {
		store := &KeyValueStore{}

		FailAfterKeyspaceSet(
			store,
			"<keyspace>",
			func(k, v []byte) bool { return true },
		)

		ks, err := store.Open(ctx, "<keyspace>")
		if err != nil {
			t.Fatal(err)
		}
		defer ks.Close()

		if err := ks.Set(ctx, []byte("<key>"), []byte("<value>")); !errors.Is(err, ErrInjected) {
			t.Fatalf("unexpected error: %v", err)
		}

		if ok, err := ks.Has(ctx, []byte("<key>")); err != nil {
			t.Fatal(err)
		} else if !ok {
			t.Fatal("expected the value to be written")
		}
	})
}

func TestKV_concurrentWriters(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	store := &KeyValueStore{}

	g, ctx := errgroup.WithContext(ctx)

	for i := 0; i < 10; i++ {
		i := i
		g.Go(func() error {
			ks, err := store.Open(ctx, "<keyspace>")
			if err != nil {
				return err
			}
			defer ks.Close()

			return ks.Set(
				ctx,
				[]byte("<key>"),
				[]byte(fmt.Sprintf("<value-%d>", i)),
			)
		})
	}

	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}

	ks, err := store.Open(context.Background(), "<keyspace>")
	if err != nil {
		t.Fatal(err)
	}
	defer ks.Close()

	v, ok, err := ks.Get(context.Background(), []byte("<key>"))
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected one of the writes to win")
	}
	if len(v) == 0 {
		t.Fatal("expected a non-empty value")
	}
}
