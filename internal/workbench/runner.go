// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package workbench

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/pterm/pterm"

	"querydesk/cli/internal/backend"
	qerrors "querydesk/cli/internal/errors"
	"querydesk/cli/internal/resultset"
	"querydesk/cli/internal/session"
)

// ErrBusy is returned when an operation is triggered while the same operation is in flight.
var ErrBusy = errors.New("operation already in progress")

// RunnerState is the phase of the query runner.
type RunnerState int

const (
	StateIdle RunnerState = iota
	StateSubmitting
	StateRenderedSuccess
	StateRenderedError
)

func (s RunnerState) String() string {
	switch s {
	case StateSubmitting:
		return "submitting"
	case StateRenderedSuccess:
		return "rendered_success"
	case StateRenderedError:
		return "rendered_error"
	default:
		return "idle"
	}
}

// Runner validates and submits queries and renders their outcome.
// It is the only writer of the last generated query text.
type Runner struct {
	api     backend.API
	session *session.Session
	writer  *session.QueryWriter
	surface *surface
	log     *pterm.Logger

	mu    sync.Mutex
	state RunnerState
	// last is the terminal state of the most recent submission.
	last RunnerState
}

// State returns the current phase.
func (r *Runner) State() RunnerState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// LastOutcome returns the terminal state of the most recent submission, or StateIdle.
func (r *Runner) LastOutcome() RunnerState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// Submit runs one query through the full lifecycle. Validation failures make no request.
// A call made while another submission is in flight returns ErrBusy and changes nothing.
//
// The returned error reports the outcome to the caller; it has already been rendered.
func (r *Runner) Submit(ctx context.Context, text string) (err error) {
	r.mu.Lock()
	if r.state == StateSubmitting {
		r.mu.Unlock()
		return ErrBusy
	}

	query := strings.TrimSpace(text)
	var invalid string
	switch {
	case query == "":
		invalid = MsgEnterQuery
	default:
		if _, ok := r.session.SelectedSource(); !ok {
			invalid = MsgSelectSource
		}
	}
	if invalid != "" {
		r.mu.Unlock()
		r.surface.emit(Event{Type: EventValidation, Message: invalid})
		return qerrors.NewValidation(invalid)
	}
	r.state = StateSubmitting
	r.mu.Unlock()

	outcome := StateRenderedError
	defer func() {
		if p := recover(); p != nil {
			err = recovered(r.log, "submit", p)
			outcome = StateRenderedError
		}
		r.mu.Lock()
		r.state = StateIdle
		r.last = outcome
		r.mu.Unlock()
		r.surface.restore(func(c *Controls) {
			c.Submit = Trigger{Enabled: true, Label: SubmitIdleLabel}
			c.Loading = false
		})
	}()

	r.surface.update(func(c *Controls) {
		c.Submit = Trigger{Enabled: false, Label: SubmitBusyLabel}
		c.Loading = true
	})
	r.surface.emit(Event{Type: EventResultCleared})

	r.log.Debug("submitting query", r.log.Args("length", len(query)))
	resp, err := r.api.Query(ctx, query)
	if err != nil {
		// Transport failures show the raw text and never a detail block.
		msg := err.Error()
		if e, ok := qerrors.As(err); ok {
			msg = e.Message
		}
		r.log.Warn("query request failed", r.log.Args("error", err))
		r.surface.emit(Event{Type: EventError, Message: msg})
		return err
	}

	if !resp.OK() {
		r.log.Info("query rejected by backend", r.log.Args("status", resp.Status))
		r.surface.emit(Event{Type: EventError, Message: resp.Message, Detail: resp.Query})
		return qerrors.NewDomain(resp.Message, resp.Query)
	}

	r.surface.emit(Event{Type: EventQueryText, Query: resp.Query})
	if resp.RowCount == 0 || len(resp.Rows) == 0 {
		r.surface.emit(Event{Type: EventNoData, Message: MsgNoData})
	} else {
		r.surface.emit(Event{Type: EventTable, Table: resultset.Render(resp.Rows), Records: resp.Rows})
	}
	r.surface.update(func(c *Controls) { c.Export.Enabled = true })
	r.writer.Record(resp.Query)
	outcome = StateRenderedSuccess
	r.log.Info("query executed", r.log.Args("rows", resp.RowCount))
	return nil
}
