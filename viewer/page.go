// Package viewer renders the page that displays a single snippet.
package viewer

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/soletrym/snipstore"
)

const (
	// NotFoundMessage is displayed in place of a snippet that does not exist.
	NotFoundMessage = "Fant ingen tekst for denne lenken."

	// UnavailableMessage is displayed when the snippet could not be loaded
	// for any reason other than it not existing.
	UnavailableMessage = "Kunne ikke hente teksten akkurat nå."
)

// Lookup is the interface used by a [Page] to load snippets.
//
// It returns an error matching [snipstore.ErrNotFound] if there is no snippet
// with the given ID.
type Lookup interface {
	Get(ctx context.Context, id string) (string, error)
}

// Page is the state of the snippet viewer.
//
// The snippet is looked up when the route parameter becomes available, and
// again only if it changes to a different ID.
type Page struct {
	Lookup Lookup
	Logger *slog.Logger

	m        sync.Mutex
	resolved bool
	id       string
	text     string
	lookups  int
}

// Update informs the page of the current value of the route parameter.
//
// It performs a lookup if the parameter is present and differs from the ID
// that was last looked up. It does nothing while the parameter is absent.
func (p *Page) Update(ctx context.Context, param Param) {
	id, ok := param.ID()
	if !ok {
		return
	}

	p.m.Lock()
	defer p.m.Unlock()

	if p.resolved && p.id == id {
		return
	}

	p.lookups++
	p.id = id
	p.resolved = true

	body, err := p.Lookup.Get(ctx, id)

	switch {
	case err == nil && body != "":
		p.text = body
	case err == nil, errors.Is(err, snipstore.ErrNotFound):
		p.text = NotFoundMessage
	default:
		p.text = UnavailableMessage
		p.logger().ErrorContext(
			ctx,
			"unable to load snippet",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
	}
}

// Text returns the text to display.
//
// It is empty until the route parameter has been resolved.
func (p *Page) Text() string {
	p.m.Lock()
	defer p.m.Unlock()
	return p.text
}

// Resolved returns true once a lookup has been performed.
func (p *Page) Resolved() bool {
	p.m.Lock()
	defer p.m.Unlock()
	return p.resolved
}

// Lookups returns the number of lookups the page has performed.
func (p *Page) Lookups() int {
	p.m.Lock()
	defer p.m.Unlock()
	return p.lookups
}

func (p *Page) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}
