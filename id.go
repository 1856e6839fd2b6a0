package snipstore

import "github.com/google/uuid"

// NewID returns a new randomly generated snippet ID.
func NewID() string {
	return uuid.NewString()
}
