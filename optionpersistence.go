package snipstore

import (
	"github.com/soletrym/snipstore/internal/config"
	"github.com/soletrym/snipstore/persistence/kv"
)

// WithKeyValueStore is an [Option] that sets the key/value store in which
// snippets are persisted.
func WithKeyValueStore(s kv.Store) Option {
	if s == nil {
		panic("key/value store must not be nil")
	}

	return func(cfg *config.Config) {
		cfg.Persistence.Backend = config.Backend{Store: s}
	}
}

// WithKeyspace is an [Option] that sets the name of the keyspace in which
// snippets are persisted.
func WithKeyspace(name string) Option {
	if name == "" {
		panic("keyspace name must not be empty")
	}

	return func(cfg *config.Config) {
		cfg.Persistence.Keyspace = name
	}
}
