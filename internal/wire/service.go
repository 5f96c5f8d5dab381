// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package wire

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// gRPC service and method names. Payloads are the JSON documents above wrapped in
// BytesValue, so no generated stubs are needed.
const (
	ServiceName = "querydesk.v1.Backend"

	MethodListSources  = "/querydesk.v1.Backend/ListSources"
	MethodSelectSource = "/querydesk.v1.Backend/SelectSource"
	MethodQuery        = "/querydesk.v1.Backend/Query"
	MethodExport       = "/querydesk.v1.Backend/Export"
)

// Response header metadata keys set by Export.
const (
	MDContentType = "artifact-content-type"
	MDFilename    = "filename"
)

// BackendServer is implemented by the gRPC side of the development server.
type BackendServer interface {
	ListSources(context.Context, *emptypb.Empty) (*wrapperspb.BytesValue, error)
	SelectSource(context.Context, *wrapperspb.BytesValue) (*emptypb.Empty, error)
	Query(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
	Export(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
}

// RegisterBackendServer attaches srv to s.
func RegisterBackendServer(s grpc.ServiceRegistrar, srv BackendServer) {
	s.RegisterService(&BackendServiceDesc, srv)
}

// BackendServiceDesc describes querydesk.v1.Backend.
var BackendServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BackendServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListSources", Handler: listSourcesHandler},
		{MethodName: "SelectSource", Handler: selectSourceHandler},
		{MethodName: "Query", Handler: queryHandler},
		{MethodName: "Export", Handler: exportHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "querydesk/v1/backend",
}

func listSourcesHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BackendServer).ListSources(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodListSources}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(BackendServer).ListSources(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func selectSourceHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BackendServer).SelectSource(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodSelectSource}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(BackendServer).SelectSource(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

func queryHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BackendServer).Query(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodQuery}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(BackendServer).Query(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

func exportHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BackendServer).Export(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodExport}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(BackendServer).Export(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}
