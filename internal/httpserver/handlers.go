package httpserver

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/soletrym/snipstore"
	"github.com/soletrym/snipstore/viewer"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleViewer(w http.ResponseWriter, r *http.Request) {
	page := &viewer.Page{
		Lookup: s.store,
		Logger: s.logger,
	}

	param := viewer.Absent()
	if id := r.PathValue("id"); id != "" {
		param = viewer.Present(id)
	}

	page.Update(r.Context(), param)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := viewer.Render(w, page); err != nil {
		s.logger.ErrorContext(
			r.Context(),
			"unable to render viewer page",
			slog.String("error", err.Error()),
		)
	}
}

func (s *Server) handleGetSnippet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	body, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	etag := entityTag(body)
	w.Header().Set("ETag", etag)

	if matchesETag(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, body)
}

func (s *Server) handlePutSnippet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSONStatus(w, http.StatusBadRequest, errorResponse{"unable to read request body"})
		return
	}

	if err := s.store.Put(r.Context(), id, string(body)); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("ETag", entityTag(string(body)))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateSnippet(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSONStatus(w, http.StatusBadRequest, errorResponse{"unable to read request body"})
		return
	}

	id := snipstore.NewID()

	if err := s.store.Put(r.Context(), id, string(body)); err != nil {
		s.writeError(w, r, err)
		return
	}

	location := "/" + url.PathEscape(id)

	w.Header().Set("Location", location)
	writeJSONStatus(w, http.StatusCreated, createResponse{
		ID:  id,
		URL: location,
	})
}

// writeError writes the response for an error returned by the store.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, snipstore.ErrNotFound):
		writeJSONStatus(w, http.StatusNotFound, errorResponse{viewer.NotFoundMessage})
	case errors.Is(err, snipstore.ErrInvalidID):
		writeJSONStatus(w, http.StatusBadRequest, errorResponse{err.Error()})
	default:
		s.logger.ErrorContext(
			r.Context(),
			"snippet store operation failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		writeJSONStatus(w, http.StatusInternalServerError, errorResponse{"internal server error"})
	}
}

// entityTag returns a strong entity tag for the given body.
func entityTag(body string) string {
	return `"` + strconv.FormatUint(xxhash.Sum64String(body), 16) + `"`
}

// matchesETag returns true if the If-None-Match header value h matches etag.
func matchesETag(h, etag string) bool {
	if h == "" {
		return false
	}

	for _, candidate := range strings.Split(h, ",") {
		candidate = strings.TrimSpace(candidate)
		candidate = strings.TrimPrefix(candidate, "W/")

		if candidate == "*" || candidate == etag {
			return true
		}
	}

	return false
}
