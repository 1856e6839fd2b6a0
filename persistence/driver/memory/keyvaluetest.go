package memory

import (
	"context"
	"errors"
	"sync"
)

// ErrInjected is the error returned by keyspaces that have been configured to
// fail using [FailBeforeKeyspaceSet] or [FailAfterKeyspaceSet].
var ErrInjected = errors.New("injected failure")

// FailBeforeKeyspaceSet configures the keyspace with the given name to return
// an error on the next call to Set() with a key/value pair that satisfies the
// given predicate function.
//
// The error is returned before the set is actually performed.
func FailBeforeKeyspaceSet(
	s *KeyValueStore,
	name string,
	pred func(k, v []byte) bool,
) {
	h := openHandle(s, name)
	defer h.Close()

	h.state.Lock()
	defer h.state.Unlock()

	h.state.BeforeSet = failSetOnce(pred)
}

// FailAfterKeyspaceSet configures the keyspace with the given name to return an
// error on the next call to Set() with a key/value pair that satisfies the
// given predicate function.
//
// The error is returned after the set is actually performed.
func FailAfterKeyspaceSet(
	s *KeyValueStore,
	name string,
	pred func(k, v []byte) bool,
) {
	h := openHandle(s, name)
	defer h.Close()

	h.state.Lock()
	defer h.state.Unlock()

	h.state.AfterSet = failSetOnce(pred)
}

func openHandle(s *KeyValueStore, name string) *keyspaceHandle {
	ks, err := s.Open(context.Background(), name)
	if err != nil {
		panic(err)
	}

	return ks.(*keyspaceHandle)
}

func failSetOnce(pred func(k, v []byte) bool) func(k, v []byte) error {
	var once sync.Once

	return func(k, v []byte) (err error) {
		if pred(k, v) {
			once.Do(func() {
				err = ErrInjected
			})
		}

		return err
	}
}
