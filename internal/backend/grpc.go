// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	qerrors "querydesk/cli/internal/errors"
	"querydesk/cli/internal/resultset"
	"querydesk/cli/internal/wire"
)

// GRPC implements API over the querydesk.v1.Backend unary service.
type GRPC struct {
	conn  *grpc.ClientConn
	token string
}

// newGRPC creates a client for addr. Without insecure, TLS is used with SNI derived from
// addr and port 443 assumed when none is given.
func newGRPC(addr, token string, insecureConn bool, opts ...grpc.DialOption) (*GRPC, error) {
	host := addr
	target := addr
	if h, _, err := net.SplitHostPort(addr); err == nil {
		host = h
	} else if !insecureConn {
		target = net.JoinHostPort(addr, "443")
	}

	creds := insecure.NewCredentials()
	if !insecureConn {
		creds = credentials.NewTLS(&tls.Config{ServerName: host, MinVersion: tls.VersionTLS12})
	}
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(creds)}, opts...)

	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", target, err)
	}
	return &GRPC{conn: conn, token: token}, nil
}

// Close releases the underlying connection.
func (g *GRPC) Close() error { return g.conn.Close() }

func (g *GRPC) outgoing(ctx context.Context) context.Context {
	if g.token == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, "authorization", wire.Bearer(g.token))
}

// ListSources invokes ListSources and decodes the JSON payload.
func (g *GRPC) ListSources(ctx context.Context) ([]string, error) {
	out := new(wrapperspb.BytesValue)
	if err := g.conn.Invoke(g.outgoing(ctx), wire.MethodListSources, &emptypb.Empty{}, out); err != nil {
		return nil, classify(err)
	}
	var resp wire.SourcesResponse
	if err := json.Unmarshal(out.GetValue(), &resp); err != nil {
		return nil, qerrors.NewTransport(fmt.Errorf("decode databases: %w", err))
	}
	return resp.Databases, nil
}

// SelectSource invokes SelectSource.
func (g *GRPC) SelectSource(ctx context.Context, source string) error {
	in, err := jsonBytes(wire.SelectRequest{Database: source})
	if err != nil {
		return err
	}
	if err := g.conn.Invoke(g.outgoing(ctx), wire.MethodSelectSource, in, &emptypb.Empty{}); err != nil {
		return classify(err)
	}
	return nil
}

// Query invokes Query. Domain errors arrive inside the JSON document.
func (g *GRPC) Query(ctx context.Context, text string) (*resultset.Response, error) {
	in, err := jsonBytes(wire.QueryRequest{Query: text})
	if err != nil {
		return nil, err
	}
	out := new(wrapperspb.BytesValue)
	if err := g.conn.Invoke(g.outgoing(ctx), wire.MethodQuery, in, out); err != nil {
		return nil, classify(err)
	}
	resp, err := resultset.Decode(out.GetValue())
	if err != nil {
		return nil, qerrors.NewTransport(err)
	}
	return resp, nil
}

// Export invokes Export and reads the artifact description from the response header.
func (g *GRPC) Export(ctx context.Context, query string) (*Artifact, error) {
	in, err := jsonBytes(wire.QueryRequest{Query: query})
	if err != nil {
		return nil, err
	}
	var header metadata.MD
	out := new(wrapperspb.BytesValue)
	if err := g.conn.Invoke(g.outgoing(ctx), wire.MethodExport, in, out, grpc.Header(&header)); err != nil {
		return nil, classify(err)
	}
	return &Artifact{
		Data:        out.GetValue(),
		ContentType: first(header.Get(wire.MDContentType)),
		Filename:    first(header.Get(wire.MDFilename)),
	}, nil
}

func jsonBytes(v any) (*wrapperspb.BytesValue, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, qerrors.NewTransport(err)
	}
	return wrapperspb.Bytes(b), nil
}

// classify maps a gRPC status onto the error taxonomy: precondition and argument failures
// are reported by the backend itself, everything else is transport.
func classify(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return qerrors.NewTransport(err)
	}
	switch st.Code() {
	case codes.FailedPrecondition, codes.InvalidArgument:
		return qerrors.NewDomain(st.Message(), "")
	default:
		return qerrors.NewTransport(err)
	}
}

func first(v []string) string {
	if len(v) == 0 {
		return ""
	}
	return v[0]
}
