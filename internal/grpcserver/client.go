package grpcserver

import (
	"context"
	"fmt"

	"github.com/soletrym/snipstore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Client is a client of the snippet service.
//
// It returns the same errors as [snipstore.Store].
type Client struct {
	Conn grpc.ClientConnInterface
}

// Put stores body under the given ID.
func (c *Client) Put(ctx context.Context, id, body string) error {
	req := &structpb.Struct{
		Fields: map[string]*structpb.Value{
			idField:   structpb.NewStringValue(id),
			bodyField: structpb.NewStringValue(body),
		},
	}

	err := c.Conn.Invoke(ctx, putMethod, req, &emptypb.Empty{})
	return fromStatus(id, err)
}

// Get returns the body of the snippet with the given ID.
func (c *Client) Get(ctx context.Context, id string) (string, error) {
	res := &wrapperspb.StringValue{}

	if err := c.Conn.Invoke(ctx, getMethod, wrapperspb.String(id), res); err != nil {
		return "", fromStatus(id, err)
	}

	return res.GetValue(), nil
}

func fromStatus(id string, err error) error {
	if err == nil {
		return nil
	}

	switch status.Code(err) {
	case codes.NotFound:
		return snipstore.NotFoundError{ID: id}
	case codes.InvalidArgument:
		if id == "" {
			return snipstore.ErrInvalidID
		}
		return fmt.Errorf("invalid request: %w", err)
	default:
		return err
	}
}
