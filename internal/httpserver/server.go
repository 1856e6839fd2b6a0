// Package httpserver exposes a snippet store over HTTP.
package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Store is the interface used by the server to read and write snippets.
type Store interface {
	Put(ctx context.Context, id, body string) error
	Get(ctx context.Context, id string) (string, error)
}

// Server serves the snippet viewer and the snippet API.
type Server struct {
	store   Store
	logger  *slog.Logger
	mux     *http.ServeMux
	writes  *multiLimiter
	handler http.Handler

	trustedProxies []netip.Prefix
}

// Option configures optional behavior of a [Server].
type Option func(*Server)

// WithTrustedProxies returns an option that makes the server honour the
// X-Forwarded-For header on requests that arrive from one of the given
// networks. Without it, clients are identified by their remote address only.
func WithTrustedProxies(networks ...netip.Prefix) Option {
	return func(s *Server) {
		s.trustedProxies = append(s.trustedProxies, networks...)
	}
}

const (
	limiterTTL      = 10 * time.Minute
	shutdownTimeout = 10 * time.Second
)

// New returns a new server that exposes the given store.
//
// Writes are limited to limit per second for each client, with bursts of up to
// burst writes.
func New(
	store Store,
	logger *slog.Logger,
	limit rate.Limit,
	burst int,
	options ...Option,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		store:  store,
		logger: logger,
		mux:    http.NewServeMux(),
		writes: newMultiLimiter(limit, burst, limiterTTL),
	}

	for _, opt := range options {
		opt(s)
	}

	s.routes()
	s.handler = s.logRequests(s.mux)

	return s
}

// ServeHTTP implements [http.Handler].
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Run listens on addr and serves requests until ctx is canceled.
func (s *Server) Run(ctx context.Context, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	return s.Serve(ctx, lis)
}

// Serve serves requests on lis until ctx is canceled, at which point the
// server is shut down gracefully.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelError),
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.InfoContext(ctx, "http server listening", slog.String("address", lis.Addr().String()))

		if err := srv.Serve(lis); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		s.logger.Info("http server shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
