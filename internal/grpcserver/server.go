package grpcserver

import (
	"context"
	"errors"
	"log/slog"
	"net"

	"github.com/soletrym/snipstore"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Store is the interface used by the server to read and write snippets.
type Store interface {
	Put(ctx context.Context, id, body string) error
	Get(ctx context.Context, id string) (string, error)
}

// Server is the implementation of the snippet service.
type Server struct {
	Store  Store
	Logger *slog.Logger
}

// Put stores a snippet.
func (s *Server) Put(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	id, err := stringField(req, idField, true)
	if err != nil {
		return nil, err
	}

	body, err := stringField(req, bodyField, false)
	if err != nil {
		return nil, err
	}

	if err := s.Store.Put(ctx, id, body); err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return &emptypb.Empty{}, nil
}

// Get returns the body of a snippet.
func (s *Server) Get(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	body, err := s.Store.Get(ctx, req.GetValue())
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return wrapperspb.String(body), nil
}

// Run listens on addr and serves requests until ctx is canceled.
func (s *Server) Run(ctx context.Context, addr string, options ...grpc.ServerOption) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	return s.Serve(ctx, lis, options...)
}

// Serve serves requests on lis until ctx is canceled, at which point the
// server is stopped gracefully.
func (s *Server) Serve(ctx context.Context, lis net.Listener, options ...grpc.ServerOption) error {
	srv := grpc.NewServer(
		append(
			[]grpc.ServerOption{
				grpc.UnaryInterceptor(LoggingInterceptor(s.logger())),
			},
			options...,
		)...,
	)
	Register(srv, s)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger().InfoContext(ctx, "grpc server listening", slog.String("address", lis.Addr().String()))

		if err := srv.Serve(lis); !errors.Is(err, grpc.ErrServerStopped) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		s.logger().Info("grpc server shutting down")
		srv.GracefulStop()
		return nil
	})

	return g.Wait()
}

func (s *Server) toStatus(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, snipstore.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, snipstore.ErrInvalidID):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		s.logger().ErrorContext(
			ctx,
			"snippet store operation failed",
			slog.String("error", err.Error()),
		)
		return status.Error(codes.Internal, "internal error")
	}
}

func (s *Server) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// stringField returns the string value of the named field of req.
func stringField(req *structpb.Struct, name string, required bool) (string, error) {
	v, ok := req.GetFields()[name]
	if !ok {
		if required {
			return "", status.Errorf(codes.InvalidArgument, "missing %q field", name)
		}
		return "", nil
	}

	s, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", status.Errorf(codes.InvalidArgument, "%q field must be a string", name)
	}

	return s.StringValue, nil
}
