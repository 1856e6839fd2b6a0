// Package memory provides a key/value store that keeps its data in memory.
//
// Data does not survive the process. It is the default medium for tests and
// for development servers, and serves as the reference implementation of
// [kv.Store].
package memory

import "github.com/soletrym/snipstore/persistence/kv"

var _ kv.Store = (*KeyValueStore)(nil)
