package grpcserver

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// LoggingInterceptor returns a unary server interceptor that logs each call.
func LoggingInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		start := time.Now()
		res, err := handler(ctx, req)
		code := status.Code(err)

		level := slog.LevelInfo
		if code == codes.Internal || code == codes.Unknown {
			level = slog.LevelWarn
		}

		logger.LogAttrs(
			ctx,
			level,
			"handled call",
			slog.String("method", info.FullMethod),
			slog.String("code", code.String()),
			slog.Duration("duration", time.Since(start)),
		)

		return res, err
	}
}
