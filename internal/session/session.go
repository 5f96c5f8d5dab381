// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package session holds the in-memory client state shared by the workbench components:
// the currently selected source and the text of the last successfully executed query.
//
// Write access is split by owner. New returns the read-only Session together with a
// SourceWriter (held by the source selector) and a QueryWriter (held by the query runner);
// nothing else can mutate either field.
package session

import (
	"strings"
	"sync"
)

// Session is the process-wide client state. It is never persisted.
type Session struct {
	mu        sync.RWMutex
	selected  string
	lastQuery string
}

// SourceWriter grants write access to the selected source.
type SourceWriter struct {
	s *Session
}

// QueryWriter grants write access to the last generated query text.
type QueryWriter struct {
	s *Session
}

// New creates an empty session and its two owner-scoped writers.
func New() (*Session, *SourceWriter, *QueryWriter) {
	s := &Session{}
	return s, &SourceWriter{s: s}, &QueryWriter{s: s}
}

// SelectedSource returns the confirmed source, if any.
func (s *Session) SelectedSource() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected, s.selected != ""
}

// LastQuery returns the query text of the most recent successful execution.
// Blank text counts as absent.
func (s *Session) LastQuery() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastQuery, strings.TrimSpace(s.lastQuery) != ""
}

// Commit records a source the backend acknowledged.
func (w *SourceWriter) Commit(source string) {
	w.s.mu.Lock()
	defer w.s.mu.Unlock()
	w.s.selected = source
}

// Clear forgets the selected source after a failed switch.
func (w *SourceWriter) Clear() {
	w.s.mu.Lock()
	defer w.s.mu.Unlock()
	w.s.selected = ""
}

// Record stores the query text returned by a successful execution.
// It is the only way lastQuery changes; nothing clears it.
func (w *QueryWriter) Record(query string) {
	w.s.mu.Lock()
	defer w.s.mu.Unlock()
	w.s.lastQuery = query
}
