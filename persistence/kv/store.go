package kv

import (
	"context"
)

// Store is a collection of keyspaces.
type Store interface {
	// Open returns the keyspace with the given name.
	//
	// Keyspaces with different names are isolated from one another. Opening
	// the same name more than once yields handles that share the same data.
	Open(ctx context.Context, name string) (Keyspace, error)
}
