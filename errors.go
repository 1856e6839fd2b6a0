package snipstore

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned (wrapped in a [NotFoundError]) when there is no
	// snippet with the requested ID.
	ErrNotFound = errors.New("snippet not found")

	// ErrInvalidID is returned when a snippet is stored with an empty ID.
	ErrInvalidID = errors.New("snippet ID must not be empty")

	// ErrClosed is returned by operations on a [Store] that has been closed.
	ErrClosed = errors.New("store is closed")
)

// NotFoundError indicates that there is no snippet with a specific ID.
type NotFoundError struct {
	ID string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("snippet %q not found", e.ID)
}

// Is returns true if target is [ErrNotFound].
func (e NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
