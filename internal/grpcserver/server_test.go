package grpcserver_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/soletrym/snipstore"
	. "github.com/soletrym/snipstore/internal/grpcserver"
	"github.com/soletrym/snipstore/internal/test"
	"github.com/soletrym/snipstore/internal/tlog"
	"github.com/soletrym/snipstore/persistence/driver/memory"
	"github.com/soletrym/snipstore/viewer"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"pgregory.net/rapid"
)

func newClient(t *testing.T) (*Client, grpc.ClientConnInterface) {
	t.Helper()

	store := snipstore.New(
		snipstore.WithKeyValueStore(&memory.KeyValueStore{}),
		snipstore.WithLogger(tlog.New(t)),
	)
	t.Cleanup(func() {
		store.Close()
	})

	logger := tlog.New(t)
	conn := test.RunGRPCServer(
		t,
		func(r grpc.ServiceRegistrar) {
			Register(r, &Server{
				Store:  store,
				Logger: logger,
			})
		},
		grpc.UnaryInterceptor(LoggingInterceptor(logger)),
	)

	return &Client{Conn: conn}, conn
}

func TestService(t *testing.T) {
	t.Parallel()

	t.Run("it returns the body that was stored", func(t *testing.T) {
		t.Parallel()

		ctx, _ := test.ContextWithTimeout(t, 10*time.Second)
		client, _ := newClient(t)

		if err := client.Put(ctx, "abc123", "Hello world"); err != nil {
			t.Fatal(err)
		}

		got, err := client.Get(ctx, "abc123")
		if err != nil {
			t.Fatal(err)
		}

		test.Expect(t, "unexpected body", got, "Hello world")
	})

	t.Run("it returns not found for an unknown ID", func(t *testing.T) {
		t.Parallel()

		ctx, _ := test.ContextWithTimeout(t, 10*time.Second)
		client, _ := newClient(t)

		_, err := client.Get(ctx, "doesnotexist")
		if !errors.Is(err, snipstore.ErrNotFound) {
			t.Fatalf("unexpected error: got %v, want %v", err, snipstore.ErrNotFound)
		}

		var nf snipstore.NotFoundError
		if !errors.As(err, &nf) {
			t.Fatalf("expected a NotFoundError, got %T", err)
		}
		test.Expect(t, "unexpected ID", nf.ID, "doesnotexist")
	})

	t.Run("it rejects an empty ID on put", func(t *testing.T) {
		t.Parallel()

		ctx, _ := test.ContextWithTimeout(t, 10*time.Second)
		client, _ := newClient(t)

		if err := client.Put(ctx, "", "<body>"); !errors.Is(err, snipstore.ErrInvalidID) {
			t.Fatalf("unexpected error: got %v, want %v", err, snipstore.ErrInvalidID)
		}
	})

	t.Run("it rejects a malformed put request", func(t *testing.T) {
		t.Parallel()

		ctx, _ := test.ContextWithTimeout(t, 10*time.Second)
		_, conn := newClient(t)

		req, err := structpb.NewStruct(map[string]any{
			"id":   "<id>",
			"body": 123,
		})
		if err != nil {
			t.Fatal(err)
		}

		err = conn.Invoke(ctx, "/snipstore.v1.SnippetService/Put", req, &emptypb.Empty{})
		test.Expect(t, "unexpected status code", status.Code(err), codes.InvalidArgument)

		req, err = structpb.NewStruct(map[string]any{
			"body": "<body>",
		})
		if err != nil {
			t.Fatal(err)
		}

		err = conn.Invoke(ctx, "/snipstore.v1.SnippetService/Put", req, &emptypb.Empty{})
		test.Expect(t, "unexpected status code", status.Code(err), codes.InvalidArgument)
	})

	t.Run("it can be used by the viewer", func(t *testing.T) {
		t.Parallel()

		ctx, _ := test.ContextWithTimeout(t, 10*time.Second)
		client, _ := newClient(t)

		page := &viewer.Page{Lookup: client, Logger: tlog.New(t)}
		page.Update(ctx, viewer.Present("doesnotexist"))

		test.Expect(t, "unexpected text", page.Text(), viewer.NotFoundMessage)
	})
}

func TestService_laws(t *testing.T) {
	t.Parallel()

	ctx, _ := test.ContextWithTimeout(t, 30*time.Second)
	client, _ := newClient(t)

	rapid.Check(t, func(t *rapid.T) {
		id := "law-" + rapid.StringMatching(`[a-z0-9]{1,12}`).Draw(t, "id")
		first := rapid.String().Draw(t, "first")
		second := rapid.String().Draw(t, "second")

		if err := client.Put(ctx, id, first); err != nil {
			t.Fatal(err)
		}

		got, err := client.Get(ctx, id)
		if err != nil {
			t.Fatal(err)
		}
		test.Expect(t, "round-trip failed", got, first)

		if err := client.Put(ctx, id, second); err != nil {
			t.Fatal(err)
		}
		if err := client.Put(ctx, id, second); err != nil {
			t.Fatal(err)
		}

		got, err = client.Get(ctx, id)
		if err != nil {
			t.Fatal(err)
		}
		test.Expect(t, "overwrite failed", got, second)
	})
}

func TestServer_Serve(t *testing.T) {
	t.Parallel()

	s := &Server{
		Store:  snipstore.New(snipstore.WithKeyValueStore(&memory.KeyValueStore{})),
		Logger: tlog.New(t),
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.Run(ctx, "127.0.0.1:0"); err != nil {
		t.Fatalf("expected a graceful shutdown, got %v", err)
	}
}
