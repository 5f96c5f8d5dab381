// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package workbench implements the query client's state machine: loading and selecting data
// sources, submitting queries, and exporting the last successful result.
//
// Components never draw anything themselves. Every visible change is an Event delivered to a
// Renderer, and the state of the on-screen controls is tracked in a Controls value that can be
// inspected without any rendering surface.
package workbench

import "querydesk/cli/internal/resultset"

// EventType enumerates known workbench event kinds.
type EventType string

const (
	// EventSourcesLoaded lists the selectable sources in backend order.
	EventSourcesLoaded EventType = "sources_loaded"
	// EventSourcesEmpty reports that the backend has no sources.
	EventSourcesEmpty EventType = "sources_empty"
	// EventSourcesFailed reports that the source list could not be loaded.
	EventSourcesFailed EventType = "sources_failed"
	// EventSelectionReset asks the selection widget to drop its visible choice.
	EventSelectionReset EventType = "selection_reset"
	// EventValidation carries a local validation message. No request was made.
	EventValidation EventType = "validation"
	// EventResultCleared empties the result area.
	EventResultCleared EventType = "result_cleared"
	// EventQueryText replaces the query text area.
	EventQueryText EventType = "query_text"
	// EventNoData shows the informational no-data notice in the result area.
	EventNoData EventType = "no_data"
	// EventTable shows a rendered result table.
	EventTable EventType = "table"
	// EventError shows an error in the result area, optionally with technical details.
	EventError EventType = "error"
	// EventExportSaved reports where an export artifact was written.
	EventExportSaved EventType = "export_saved"
	// EventControls carries a new snapshot of the control state.
	EventControls EventType = "controls"
)

// Event is a generic container for workbench UI events.
// Only a subset of fields is set depending on Type.
type Event struct {
	Type EventType

	// Message is the user-facing text (validation, notice, or error message).
	Message string
	// Detail is the attempted query shown in a collapsible block under an error.
	Detail string

	Sources []string
	Query   string
	Table   resultset.Table
	// Records are the raw rows behind Table, for adapters that need typed values.
	Records  []resultset.Record
	Path     string
	Size     int
	Controls Controls
}

// Renderer is the presentation adapter. Render may be called from the goroutine running the
// operation; implementations that are shared across goroutines must synchronize.
type Renderer interface {
	Render(Event)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(Event)

func (f RendererFunc) Render(e Event) { f(e) }

// Discard is a Renderer that drops every event.
var Discard Renderer = RendererFunc(func(Event) {})
