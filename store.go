package snipstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/soletrym/snipstore/internal/config"
	"github.com/soletrym/snipstore/internal/telemetry"
	"github.com/soletrym/snipstore/persistence/kv"
)

// Store persists text snippets, each addressed by a caller-chosen ID.
//
// It is safe for concurrent use. Concurrent writes to the same ID are resolved
// by the underlying key/value store, the last write wins.
type Store struct {
	backend   config.Backend
	name      string
	telemetry *telemetry.Recorder

	m      sync.Mutex
	ks     kv.Keyspace
	closed bool
}

// New returns a new store configured by the given options.
func New(options ...Option) *Store {
	return NewFromConfig(config.New(options))
}

// NewFromConfig returns a new store that uses a pre-built configuration.
//
// It is used by the commands in this module that share a single configuration
// between the store and the servers that expose it.
func NewFromConfig(cfg config.Config) *Store {
	return &Store{
		backend: cfg.Persistence.Backend,
		name:    cfg.Persistence.Keyspace,
		telemetry: cfg.Telemetry.Recorder(
			"github.com/soletrym/snipstore",
			"store",
			telemetry.String("keyspace", cfg.Persistence.Keyspace),
		),
	}
}

// Put stores body under the given ID, replacing any existing snippet with the
// same ID.
func (s *Store) Put(ctx context.Context, id, body string) error {
	if id == "" {
		return ErrInvalidID
	}

	ctx, span := s.telemetry.StartSpan(
		ctx,
		"snippet.put",
		telemetry.String("id", id),
		telemetry.Int("body_size", len(body)),
	)
	defer span.End()

	ks, err := s.keyspace(ctx)
	if err != nil {
		span.Error("could not open keyspace", err)
		return err
	}

	if err := ks.Set(ctx, []byte(id), []byte(body)); err != nil {
		span.Error("could not store snippet", err)
		return fmt.Errorf("unable to store snippet %q: %w", id, err)
	}

	span.Debug("stored snippet")

	return nil
}

// Get returns the body of the snippet with the given ID.
//
// If there is no such snippet it returns a [NotFoundError], which matches
// [ErrNotFound]. An empty ID never matches a snippet.
func (s *Store) Get(ctx context.Context, id string) (string, error) {
	if id == "" {
		return "", NotFoundError{ID: id}
	}

	ctx, span := s.telemetry.StartSpan(
		ctx,
		"snippet.get",
		telemetry.String("id", id),
	)
	defer span.End()

	ks, err := s.keyspace(ctx)
	if err != nil {
		span.Error("could not open keyspace", err)
		return "", err
	}

	v, ok, err := ks.Get(ctx, []byte(id))
	if err != nil {
		span.Error("could not fetch snippet", err)
		return "", fmt.Errorf("unable to fetch snippet %q: %w", id, err)
	}

	if !ok {
		span.Debug("snippet not found")
		return "", NotFoundError{ID: id}
	}

	span.SetAttributes(
		telemetry.Int("body_size", len(v)),
	)
	span.Debug("fetched snippet")

	return string(v), nil
}

// Close releases the resources used by the store.
//
// Subsequent operations return [ErrClosed].
func (s *Store) Close() error {
	s.m.Lock()
	defer s.m.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	var err error

	if s.ks != nil {
		err = s.ks.Close()
		s.ks = nil
	}

	if s.backend.Close != nil {
		if e := s.backend.Close(); err == nil {
			err = e
		}
	}

	return err
}

// keyspace returns the keyspace that contains the snippets, opening it on
// first use.
func (s *Store) keyspace(ctx context.Context) (kv.Keyspace, error) {
	s.m.Lock()
	defer s.m.Unlock()

	if s.closed {
		return nil, ErrClosed
	}

	if s.ks != nil {
		return s.ks, nil
	}

	if s.backend.Prepare != nil {
		if err := s.backend.Prepare(ctx); err != nil {
			return nil, fmt.Errorf("unable to prepare key/value store: %w", err)
		}
	}

	ks, err := s.backend.Store.Open(ctx, s.name)
	if err != nil {
		return nil, fmt.Errorf("unable to open keyspace %q: %w", s.name, err)
	}

	s.ks = ks

	return ks, nil
}
