// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package backend provides interfaces and implementations for communicating with the query backend.
// It defines the API contract for listing and selecting data sources, executing queries and
// exporting results. HTTP and gRPC implementations share the payloads in package wire.
//
// Errors returned by implementations are *errors.E values: Transport for network failures and
// undecodable bodies, Domain for failures the backend reported explicitly.
package backend

import (
	"context"

	"querydesk/cli/internal/resultset"
)

// API defines backend operations the client depends on.
// Implementations may call real HTTP/gRPC endpoints or provide fakes for tests.
type API interface {
	// ListSources returns selectable data sources in backend order.
	ListSources(ctx context.Context) ([]string, error)
	// SelectSource switches the backend session to the named source.
	SelectSource(ctx context.Context, source string) error
	// Query executes text. A non-success status is returned in the response, not as an error.
	Query(ctx context.Context, text string) (*resultset.Response, error)
	// Export re-executes query and returns the spreadsheet artifact.
	Export(ctx context.Context, query string) (*Artifact, error)
}

// Artifact is a binary export produced by the backend.
type Artifact struct {
	Data        []byte
	ContentType string
	// Filename is the name suggested by the backend, if any.
	Filename string
}

// Endpoints are the HTTP paths of the four backend operations.
type Endpoints struct {
	Sources string `koanf:"sources"`
	Select  string `koanf:"select"`
	Query   string `koanf:"query"`
	Export  string `koanf:"export"`
}
