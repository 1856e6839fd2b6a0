package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/soletrym/snipstore"
	"github.com/soletrym/snipstore/internal/config"
	"github.com/soletrym/snipstore/persistence/kv"
)

// target is an open connection to the medium named on the command line.
type target struct {
	cfg   config.Config
	store *snipstore.Store
}

// openTarget resolves the medium from dsn and keyspace, falling back to the
// environment for whichever is empty.
func openTarget(ctx context.Context, dsn, keyspace string) (*target, error) {
	options := []snipstore.Option{
		snipstore.WithOptionsFromEnvironment(),
		snipstore.WithLogger(
			slog.New(
				slog.NewTextHandler(
					os.Stderr,
					&slog.HandlerOptions{Level: slog.LevelWarn},
				),
			),
		),
	}

	if dsn != "" {
		b, err := config.BackendFromDSN(ctx, dsn)
		if err != nil {
			return nil, err
		}

		options = append(options, func(c *config.Config) {
			c.Persistence.Backend = b
		})
	}

	if keyspace != "" {
		options = append(options, snipstore.WithKeyspace(keyspace))
	}

	cfg := config.New(options)

	return &target{
		cfg:   cfg,
		store: snipstore.NewFromConfig(cfg),
	}, nil
}

// keyspace opens the keyspace directly, for operations that the store does
// not offer.
func (t *target) keyspace(ctx context.Context) (kv.Keyspace, error) {
	b := t.cfg.Persistence.Backend

	if b.Prepare != nil {
		if err := b.Prepare(ctx); err != nil {
			return nil, fmt.Errorf("unable to prepare key/value store: %w", err)
		}
	}

	return b.Store.Open(ctx, t.cfg.Persistence.Keyspace)
}

func (t *target) Close() error {
	return t.store.Close()
}

// readInput returns the contents of the named file, or of r if the name is
// empty.
func readInput(r io.Reader, name string) (string, error) {
	if name != "" {
		data, err := os.ReadFile(name)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return string(data), nil
}

// snippet is the output representation of a single snippet.
type snippet struct {
	ID   string `json:"id" yaml:"id"`
	Body string `json:"body" yaml:"body"`
}

// rangeSnippets calls fn for each snippet in the keyspace, in order of ID.
func rangeSnippets(ctx context.Context, ks kv.Keyspace, fn func(snippet) error) error {
	var snippets []snippet

	if err := ks.Range(
		ctx,
		func(ctx context.Context, k, v []byte) (bool, error) {
			snippets = append(snippets, snippet{string(k), string(v)})
			return true, nil
		},
	); err != nil {
		return err
	}

	sortSnippets(snippets)

	for _, s := range snippets {
		if err := fn(s); err != nil {
			return err
		}
	}

	return nil
}

func sortSnippets(snippets []snippet) {
	sort.Slice(snippets, func(i, j int) bool {
		return snippets[i].ID < snippets[j].ID
	})
}
