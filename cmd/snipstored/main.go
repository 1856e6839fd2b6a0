package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dogmatiq/ferrite"
	"github.com/soletrym/snipstore"
	"github.com/soletrym/snipstore/internal/config"
	"github.com/soletrym/snipstore/internal/grpcserver"
	"github.com/soletrym/snipstore/internal/httpserver"
	"golang.org/x/sync/errgroup"
)

func main() {
	ferrite.Init(ferrite.WithRegistry(snipstore.FerriteRegistry))

	logger := slog.New(
		slog.NewJSONHandler(
			os.Stdout,
			&slog.HandlerOptions{
				Level: slog.LevelDebug,
			},
		),
	)

	ctx, cancel := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	if err := run(ctx, logger); err != nil {
		logger.Error("snipstored exited with an error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg := config.New([]snipstore.Option{
		snipstore.WithOptionsFromEnvironment(),
		snipstore.WithLogger(logger),
	})

	store := snipstore.NewFromConfig(cfg)
	defer store.Close()

	httpServer := httpserver.New(
		store,
		logger,
		cfg.RateLimit.Limit,
		cfg.RateLimit.Burst,
		httpserver.WithTrustedProxies(cfg.HTTP.TrustedProxies...),
	)

	grpcServer := &grpcserver.Server{
		Store:  store,
		Logger: logger,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return httpServer.Run(ctx, cfg.HTTP.ListenAddress)
	})

	g.Go(func() error {
		return grpcServer.Run(ctx, cfg.GRPC.ListenAddress, cfg.GRPC.ServerOptions...)
	})

	return g.Wait()
}
