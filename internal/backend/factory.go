// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Transport names accepted by New.
const (
	TransportHTTP = "http"
	TransportGRPC = "grpc"
)

// Options configure a backend client.
type Options struct {
	URL       string
	Transport string
	Token     string
	// Timeout bounds each HTTP request. Zero means no client-side timeout.
	Timeout   time.Duration
	Insecure  bool
	Endpoints Endpoints
}

// New creates a backend API implementation for the configured transport.
// The returned closer releases connections and is never nil.
func New(opts Options) (API, io.Closer, error) {
	switch strings.ToLower(opts.Transport) {
	case "", TransportHTTP:
		client := &http.Client{Timeout: opts.Timeout}
		return newHTTP(opts.URL, opts.Endpoints, opts.Token, client), nopCloser{}, nil
	case TransportGRPC:
		addr := strings.TrimPrefix(strings.TrimPrefix(opts.URL, "grpc://"), "grpcs://")
		g, err := newGRPC(strings.TrimRight(addr, "/"), opts.Token, opts.Insecure)
		if err != nil {
			return nil, nil, err
		}
		return g, g, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend transport %q (want http or grpc)", opts.Transport)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
