// Package grpcserver exposes a snippet store as a gRPC service.
//
// The service is described using protocol buffers well-known types so that no
// generated code is required:
//
//	service SnippetService {
//	  rpc Put(google.protobuf.Struct) returns (google.protobuf.Empty);
//	  rpc Get(google.protobuf.StringValue) returns (google.protobuf.StringValue);
//	}
//
// The Put request is a struct with string "id" and "body" fields.
package grpcserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully-qualified name of the snippet service.
const ServiceName = "snipstore.v1.SnippetService"

const (
	putMethod = "/" + ServiceName + "/Put"
	getMethod = "/" + ServiceName + "/Get"
)

const (
	idField   = "id"
	bodyField = "body"
)

// service is the interface implemented by the server, used by gRPC to verify
// the registered implementation.
type service interface {
	Put(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	Get(context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*service)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Put",
			Handler:    putHandler,
		},
		{
			MethodName: "Get",
			Handler:    getHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "snipstore/v1/snippet.proto",
}

// Register registers the server with r.
func Register(r grpc.ServiceRegistrar, s *Server) {
	r.RegisterService(&serviceDesc, s)
}

func putHandler(
	srv any,
	ctx context.Context,
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := &structpb.Struct{}
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(service).Put(ctx, in)
	}

	return interceptor(
		ctx,
		in,
		&grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: putMethod,
		},
		func(ctx context.Context, req any) (any, error) {
			return srv.(service).Put(ctx, req.(*structpb.Struct))
		},
	)
}

func getHandler(
	srv any,
	ctx context.Context,
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := &wrapperspb.StringValue{}
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(service).Get(ctx, in)
	}

	return interceptor(
		ctx,
		in,
		&grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: getMethod,
		},
		func(ctx context.Context, req any) (any, error) {
			return srv.(service).Get(ctx, req.(*wrapperspb.StringValue))
		},
	)
}
