// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	qerrors "querydesk/cli/internal/errors"
	"querydesk/cli/internal/resultset"
	"querydesk/cli/internal/wire"
)

// HTTP implements API over JSON REST endpoints.
type HTTP struct {
	// baseURL is the base URL for all HTTP requests (e.g., "http://127.0.0.1:5000")
	baseURL string
	// endpoints contains the URL paths for the backend operations
	endpoints Endpoints
	// token is sent as a bearer credential when non-empty
	token  string
	client *http.Client
}

// newHTTP creates a new HTTP client with the given base URL and endpoints.
// Empty endpoints fall back to the default paths.
func newHTTP(baseURL string, endpoints Endpoints, token string, client *http.Client) *HTTP {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTP{
		baseURL:   strings.TrimRight(baseURL, "/"),
		endpoints: withDefaults(endpoints),
		token:     token,
		client:    client,
	}
}

func withDefaults(e Endpoints) Endpoints {
	if e.Sources == "" {
		e.Sources = wire.PathSources
	}
	if e.Select == "" {
		e.Select = wire.PathSelect
	}
	if e.Query == "" {
		e.Query = wire.PathQuery
	}
	if e.Export == "" {
		e.Export = wire.PathExport
	}
	return e
}

// ListSources calls GET /get-databases.
func (h *HTTP) ListSources(ctx context.Context) ([]string, error) {
	resp, err := h.do(ctx, http.MethodGet, h.endpoints.Sources, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, qerrors.NewTransport(fmt.Errorf("get-databases failed: %s", statusText(resp)))
	}
	var out wire.SourcesResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, qerrors.NewTransport(fmt.Errorf("decode databases: %w", err))
	}
	return out.Databases, nil
}

// SelectSource calls POST /set-database. Any 2xx is an acknowledgement.
func (h *HTTP) SelectSource(ctx context.Context, source string) error {
	resp, err := h.do(ctx, http.MethodPost, h.endpoints.Select, wire.SelectRequest{Database: source})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return qerrors.NewDomain(errorMessage(resp), "")
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Query calls POST /query. The HTTP status is ignored; the body's status field decides.
func (h *HTTP) Query(ctx context.Context, text string) (*resultset.Response, error) {
	resp, err := h.do(ctx, http.MethodPost, h.endpoints.Query, wire.QueryRequest{Query: text})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, qerrors.NewTransport(err)
	}
	out, err := resultset.Decode(b)
	if err != nil {
		return nil, qerrors.NewTransport(err)
	}
	return out, nil
}

// Export calls POST /download-excel and returns the binary body.
func (h *HTTP) Export(ctx context.Context, query string) (*Artifact, error) {
	resp, err := h.do(ctx, http.MethodPost, h.endpoints.Export, wire.QueryRequest{Query: query})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, qerrors.NewDomain(errorMessage(resp), "")
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, qerrors.NewTransport(err)
	}
	return &Artifact{
		Data:        data,
		ContentType: resp.Header.Get("Content-Type"),
		Filename:    attachmentName(resp.Header.Get("Content-Disposition")),
	}, nil
}

func (h *HTTP) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, qerrors.NewTransport(err)
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, rdr)
	if err != nil {
		return nil, qerrors.NewTransport(err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if h.token != "" {
		req.Header.Set("Authorization", wire.Bearer(h.token))
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, qerrors.NewTransport(err)
	}
	return resp, nil
}

// errorMessage reads {message} or {error} from a failed response, falling back to the status line.
func errorMessage(resp *http.Response) string {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var out wire.StatusResponse
	if json.Unmarshal(b, &out) == nil && out.Text() != "" {
		return out.Text()
	}
	if s := strings.TrimSpace(string(b)); s != "" && !strings.HasPrefix(s, "{") && len(s) < 512 {
		return s
	}
	return statusText(resp)
}

func statusText(resp *http.Response) string {
	return fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
}

func attachmentName(disposition string) string {
	if disposition == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return ""
	}
	return params["filename"]
}
