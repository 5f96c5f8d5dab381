// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package resultset

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// StatusSuccess is the only status value that marks a successful execution.
const StatusSuccess = "success"

// Response is the decoded body of a query submission.
//
// On success Rows holds the records and Message is empty. Otherwise Message carries the
// backend's error text and Query may carry the attempted query.
type Response struct {
	Status   string
	Query    string
	RowCount int
	Rows     []Record
	Message  string
}

// OK reports whether the backend accepted and executed the query.
func (r *Response) OK() bool { return r.Status == StatusSuccess }

type wireResponse struct {
	Status   string          `json:"status"`
	Query    string          `json:"query,omitempty"`
	RowCount int             `json:"row_count"`
	Message  json.RawMessage `json:"message,omitempty"`
}

// Decode parses a query response body. Structural problems are returned as errors;
// a non-success status is not an error here.
func Decode(data []byte) (*Response, error) {
	var w wireResponse
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode query response: %w", err)
	}
	if w.Status == "" {
		return nil, fmt.Errorf("decode query response: missing status")
	}

	resp := &Response{Status: w.Status, Query: w.Query, RowCount: w.RowCount}
	msg := bytes.TrimSpace(w.Message)
	if len(msg) == 0 || bytes.Equal(msg, []byte("null")) {
		return resp, nil
	}

	switch msg[0] {
	case '[':
		if err := json.Unmarshal(msg, &resp.Rows); err != nil {
			return nil, fmt.Errorf("decode query rows: %w", err)
		}
	case '"':
		if err := json.Unmarshal(msg, &resp.Message); err != nil {
			return nil, fmt.Errorf("decode query message: %w", err)
		}
	default:
		return nil, fmt.Errorf("decode query response: unexpected message %.32s", msg)
	}
	return resp, nil
}

// Encode writes r in the wire shape: rows as the message on success, the text otherwise.
func Encode(r *Response) ([]byte, error) {
	w := wireResponse{Status: r.Status, Query: r.Query, RowCount: r.RowCount}
	var (
		msg []byte
		err error
	)
	if r.Rows != nil {
		msg, err = json.Marshal(r.Rows)
	} else {
		msg, err = json.Marshal(r.Message)
	}
	if err != nil {
		return nil, err
	}
	w.Message = msg
	return json.Marshal(w)
}
