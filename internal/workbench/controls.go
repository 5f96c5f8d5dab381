// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package workbench

import (
	"fmt"
	"sync"

	"github.com/pterm/pterm"
)

// Trigger labels.
const (
	SubmitIdleLabel = "Generate SQL & Execute"
	SubmitBusyLabel = "Processing..."
	ExportIdleLabel = "Download as Excel"
	ExportBusyLabel = "Preparing..."
)

// User-facing messages.
const (
	MsgEnterQuery       = "Please enter a query"
	MsgSelectSource     = "Please select a database first"
	MsgGenerateFirst    = "Please generate a query first"
	MsgNoData           = "No data returned from query"
	MsgNoSources        = "No databases found"
	MsgSourcesFailed    = "Error loading databases"
	MsgConnectionFailed = "Connection failed"
	MsgNoSelection      = "No database selected"
	ExportFailedPrefix  = "Excel download failed: "
)

// IndicatorState is the state of the current-source indicator.
type IndicatorState int

const (
	IndicatorUnconfirmed IndicatorState = iota
	IndicatorConfirmed
	IndicatorFailed
)

func (s IndicatorState) String() string {
	switch s {
	case IndicatorConfirmed:
		return "confirmed"
	case IndicatorFailed:
		return "failed"
	default:
		return "unconfirmed"
	}
}

// Indicator shows which source, if any, the backend acknowledged.
type Indicator struct {
	State IndicatorState
	Text  string
}

// Trigger is a clickable control such as the submit or export button.
type Trigger struct {
	Enabled bool
	Label   string
}

// Controls is a snapshot of every control the workbench drives.
type Controls struct {
	Submit    Trigger
	Export    Trigger
	Loading   bool
	Indicator Indicator
}

// InitialControls is the state before anything has happened.
func InitialControls() Controls {
	return Controls{
		Submit:    Trigger{Enabled: true, Label: SubmitIdleLabel},
		Export:    Trigger{Enabled: false, Label: ExportIdleLabel},
		Indicator: Indicator{State: IndicatorUnconfirmed, Text: MsgNoSelection},
	}
}

// surface owns the control state and forwards events to the renderer.
// Control state is updated before the renderer sees it, so a failing renderer
// never leaves the controls half-changed.
type surface struct {
	mu       sync.Mutex
	controls Controls
	renderer Renderer
	log      *pterm.Logger
}

func newSurface(r Renderer, log *pterm.Logger) *surface {
	if r == nil {
		r = Discard
	}
	return &surface{controls: InitialControls(), renderer: r, log: log}
}

func (s *surface) snapshot() Controls {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.controls
}

// emit delivers ev. A panicking renderer propagates to the operation boundary.
func (s *surface) emit(ev Event) { s.renderer.Render(ev) }

// update applies fn to the controls and announces the new snapshot.
func (s *surface) update(fn func(*Controls)) {
	s.mu.Lock()
	fn(&s.controls)
	c := s.controls
	s.mu.Unlock()
	s.emit(Event{Type: EventControls, Controls: c})
}

// restore is update for cleanup paths: the state change always lands and a renderer
// panic is logged instead of propagated.
func (s *surface) restore(fn func(*Controls)) {
	defer func() {
		if p := recover(); p != nil {
			s.log.Error("renderer panicked during cleanup", s.log.Args("panic", fmt.Sprint(p)))
		}
	}()
	s.update(fn)
}

// recovered converts a renderer panic into an error for the operation named op.
func recovered(log *pterm.Logger, op string, p any) error {
	log.Error("renderer panicked", log.Args("operation", op, "panic", fmt.Sprint(p)))
	return fmt.Errorf("%s: renderer panicked: %v", op, p)
}
