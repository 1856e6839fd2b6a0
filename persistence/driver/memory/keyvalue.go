package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/soletrym/snipstore/persistence/kv"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// KeyValueStore is an implementation of [kv.Store] that stores keyspaces in
// memory.
type KeyValueStore struct {
	keyspaces sync.Map // map[string]*keyspaceState
}

// Open returns the keyspace with the given name.
func (s *KeyValueStore) Open(ctx context.Context, name string) (kv.Keyspace, error) {
	state, ok := s.keyspaces.Load(name)

	if !ok {
		state, _ = s.keyspaces.LoadOrStore(
			name,
			&keyspaceState{},
		)
	}

	return &keyspaceHandle{
		state: state.(*keyspaceState),
	}, ctx.Err()
}

type keyspaceState struct {
	sync.RWMutex

	Values map[string][]byte

	BeforeSet func(k, v []byte) error
	AfterSet  func(k, v []byte) error
}

type keyspaceHandle struct {
	state *keyspaceState
}

func (h *keyspaceHandle) Get(ctx context.Context, k []byte) ([]byte, bool, error) {
	if h.state == nil {
		panic("keyspace is closed")
	}

	h.state.RLock()
	defer h.state.RUnlock()

	v, ok := h.state.Values[string(k)]
	if !ok {
		return nil, false, ctx.Err()
	}

	return clone(v), true, ctx.Err()
}

func (h *keyspaceHandle) Has(ctx context.Context, k []byte) (bool, error) {
	if h.state == nil {
		panic("keyspace is closed")
	}

	h.state.RLock()
	defer h.state.RUnlock()

	_, ok := h.state.Values[string(k)]
	return ok, ctx.Err()
}

func (h *keyspaceHandle) Set(ctx context.Context, k, v []byte) error {
	if h.state == nil {
		panic("keyspace is closed")
	}

	v = clone(v)

	h.state.Lock()
	defer h.state.Unlock()

	if h.state.BeforeSet != nil {
		if err := h.state.BeforeSet(k, v); err != nil {
			return err
		}
	}

	if h.state.Values == nil {
		h.state.Values = map[string][]byte{}
	}

	h.state.Values[string(k)] = v

	if h.state.AfterSet != nil {
		if err := h.state.AfterSet(k, v); err != nil {
			return err
		}
	}

	return ctx.Err()
}

func (h *keyspaceHandle) Delete(ctx context.Context, k []byte) error {
	if h.state == nil {
		panic("keyspace is closed")
	}

	h.state.Lock()
	defer h.state.Unlock()

	delete(h.state.Values, string(k))

	return ctx.Err()
}

func (h *keyspaceHandle) Range(
	ctx context.Context,
	fn kv.RangeFunc,
) error {
	if h.state == nil {
		panic("keyspace is closed")
	}

	h.state.RLock()
	values := maps.Clone(h.state.Values)
	h.state.RUnlock()

	for k, v := range values {
		ok, err := fn(ctx, []byte(k), clone(v))
		if !ok || err != nil {
			return err
		}
	}

	return nil
}

func (h *keyspaceHandle) Close() error {
	if h.state == nil {
		return errors.New("keyspace is already closed")
	}

	h.state = nil

	return nil
}

// clone returns a copy of v that is never nil, so that an empty value remains
// distinguishable from an absent one.
func clone(v []byte) []byte {
	if v == nil {
		return []byte{}
	}
	return slices.Clone(v)
}
