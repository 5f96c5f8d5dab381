// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package wire holds the request and response payloads exchanged with the query backend,
// shared by the HTTP and gRPC transports and by the development server.
package wire

import "strings"

// Default HTTP endpoint paths.
const (
	PathSources = "/get-databases"
	PathSelect  = "/set-database"
	PathQuery   = "/query"
	PathExport  = "/download-excel"
)

// SourcesResponse is returned by the list-sources call.
type SourcesResponse struct {
	Databases []string `json:"databases"`
}

// SelectRequest switches the backend session to a database.
type SelectRequest struct {
	Database string `json:"database"`
}

// QueryRequest carries query text for execution or export.
type QueryRequest struct {
	Query string `json:"query"`
}

// StatusResponse is the generic acknowledgement or error body.
// Source calls report failures in Error; query and export calls use Message.
type StatusResponse struct {
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
	Query   string `json:"query,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Text returns the first non-blank of Message and Error.
func (s StatusResponse) Text() string {
	if strings.TrimSpace(s.Message) != "" {
		return s.Message
	}
	return strings.TrimSpace(s.Error)
}

// Bearer formats an Authorization header value.
func Bearer(token string) string { return "Bearer " + token }

// ParseBearer extracts the token from a value like "Bearer <token>" case-insensitively.
// Returns "" when the value has another scheme or no token.
func ParseBearer(value string) string {
	v := strings.TrimSpace(value)
	if len(v) < 7 || !strings.EqualFold(v[:6], "bearer") || v[6] != ' ' {
		return ""
	}
	return strings.TrimSpace(v[7:])
}
