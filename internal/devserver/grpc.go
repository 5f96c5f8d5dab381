// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package devserver

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/pterm/pterm"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"querydesk/cli/internal/logging"
	"querydesk/cli/internal/resultset"
	"querydesk/cli/internal/wire"
)

// GRPCService exposes a Service as querydesk.v1.Backend.
type GRPCService struct {
	svc *Service
}

var _ wire.BackendServer = (*GRPCService)(nil)

// NewGRPCServer builds a gRPC server with the backend registered. When token is set every
// call must carry it as bearer authorization metadata.
func NewGRPCServer(svc *Service, token string, log *pterm.Logger, opts ...grpc.ServerOption) *grpc.Server {
	if log == nil {
		log = logging.Discard()
	}
	interceptors := []grpc.UnaryServerInterceptor{logCalls(log)}
	if token != "" {
		interceptors = append(interceptors, authorize(token))
	}
	opts = append(opts, grpc.ChainUnaryInterceptor(interceptors...))
	s := grpc.NewServer(opts...)
	wire.RegisterBackendServer(s, &GRPCService{svc: svc})
	return s
}

func logCalls(log *pterm.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		log.Info("rpc", log.Args("method", info.FullMethod, "code", status.Code(err).String(), "elapsed", time.Since(start).String()))
		return resp, err
	}
}

func authorize(token string) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		md, _ := metadata.FromIncomingContext(ctx)
		var got string
		if v := md.Get("authorization"); len(v) > 0 {
			got = wire.ParseBearer(v[0])
		}
		if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			return nil, status.Error(codes.Unauthenticated, "unauthorized")
		}
		return handler(ctx, req)
	}
}

// toStatus maps request errors onto codes the client reports as backend failures.
func toStatus(err error) error {
	var re *RequestError
	if errors.As(err, &re) {
		if re.Status == http.StatusBadRequest {
			return status.Error(codes.InvalidArgument, re.Message)
		}
		return status.Error(codes.FailedPrecondition, re.Message)
	}
	return status.Error(codes.Internal, err.Error())
}

// ListSources returns the visible databases. Failures are Internal, which clients treat
// as a load failure.
func (g *GRPCService) ListSources(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.BytesValue, error) {
	names, err := g.svc.ListSources(ctx)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	if names == nil {
		names = []string{}
	}
	b, err := json.Marshal(wire.SourcesResponse{Databases: names})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return wrapperspb.Bytes(b), nil
}

// SelectSource switches the current database.
func (g *GRPCService) SelectSource(ctx context.Context, in *wrapperspb.BytesValue) (*emptypb.Empty, error) {
	var req wire.SelectRequest
	if err := json.Unmarshal(in.GetValue(), &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid JSON body")
	}
	if err := g.svc.SelectSource(ctx, req.Database); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

// Query executes the request and returns the response document.
func (g *GRPCService) Query(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	var req wire.QueryRequest
	if err := json.Unmarshal(in.GetValue(), &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid JSON body")
	}
	b, err := resultset.Encode(g.svc.Query(ctx, req.Query))
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return wrapperspb.Bytes(b), nil
}

// Export renders a spreadsheet. The content type and file name travel as header metadata.
func (g *GRPCService) Export(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	var req wire.QueryRequest
	if err := json.Unmarshal(in.GetValue(), &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid JSON body")
	}
	data, err := g.svc.Export(ctx, req.Query)
	if err != nil {
		return nil, toStatus(err)
	}
	if err := grpc.SetHeader(ctx, metadata.Pairs(wire.MDContentType, XLSXContentType, wire.MDFilename, XLSXFilename)); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return wrapperspb.Bytes(data), nil
}
