// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package workbench

import (
	"context"
	"fmt"
	"io"

	"github.com/pterm/pterm"

	"querydesk/cli/internal/backend"
	"querydesk/cli/internal/session"
)

// ActionKind enumerates the user actions the workbench accepts.
type ActionKind int

const (
	ActionLoadSources ActionKind = iota
	ActionSelectSource
	ActionSubmit
	ActionExport
)

func (k ActionKind) String() string {
	switch k {
	case ActionLoadSources:
		return "load_sources"
	case ActionSelectSource:
		return "select_source"
	case ActionSubmit:
		return "submit"
	case ActionExport:
		return "export"
	default:
		return fmt.Sprintf("action(%d)", int(k))
	}
}

// Action is one user interaction. Only the field relevant to Kind is set.
type Action struct {
	Kind   ActionKind
	Source string
	Text   string
}

// LoadSources fetches the source list.
func LoadSources() Action { return Action{Kind: ActionLoadSources} }

// SelectSource switches the backend to name.
func SelectSource(name string) Action { return Action{Kind: ActionSelectSource, Source: name} }

// Submit runs text as a query.
func Submit(text string) Action { return Action{Kind: ActionSubmit, Text: text} }

// Export downloads the last successful query's result.
func Export() Action { return Action{Kind: ActionExport} }

// Options configure a Workbench.
type Options struct {
	API      backend.API
	Renderer Renderer
	// Sink receives export artifacts. Defaults to a FileSink in the working directory.
	Sink   ArtifactSink
	Logger *pterm.Logger
}

// Workbench wires the four components around one session.
type Workbench struct {
	session  *session.Session
	surface  *surface
	registry *Registry
	selector *Selector
	runner   *Runner
	exporter *Exporter
}

// New builds a workbench with a fresh session.
func New(opts Options) *Workbench {
	log := opts.Logger
	if log == nil {
		log = pterm.DefaultLogger.WithWriter(io.Discard)
	}
	sink := opts.Sink
	if sink == nil {
		sink = FileSink{Dir: "."}
	}

	sess, sourceWriter, queryWriter := session.New()
	surf := newSurface(opts.Renderer, log)

	selector := &Selector{api: opts.API, writer: sourceWriter, surface: surf, log: log}
	return &Workbench{
		session:  sess,
		surface:  surf,
		selector: selector,
		registry: &Registry{api: opts.API, selector: selector, surface: surf, log: log},
		runner:   &Runner{api: opts.API, session: sess, writer: queryWriter, surface: surf, log: log},
		exporter: &Exporter{api: opts.API, session: sess, sink: sink, surface: surf, log: log},
	}
}

// Dispatch performs a single action. Errors have already been rendered when returned.
func (w *Workbench) Dispatch(ctx context.Context, a Action) error {
	switch a.Kind {
	case ActionLoadSources:
		_, err := w.registry.Load(ctx)
		return err
	case ActionSelectSource:
		return w.selector.Select(ctx, a.Source)
	case ActionSubmit:
		return w.runner.Submit(ctx, a.Text)
	case ActionExport:
		_, err := w.exporter.Export(ctx)
		return err
	default:
		return fmt.Errorf("unknown action %s", a.Kind)
	}
}

// Session exposes read-only session state.
func (w *Workbench) Session() *session.Session { return w.session }

// Controls returns a snapshot of the control state.
func (w *Workbench) Controls() Controls { return w.surface.snapshot() }

// Sources returns the loaded source list.
func (w *Workbench) Sources() []string { return w.registry.Sources() }

// RunnerState returns the query runner's phase.
func (w *Workbench) RunnerState() RunnerState { return w.runner.State() }

// LastOutcome returns how the most recent submission ended.
func (w *Workbench) LastOutcome() RunnerState { return w.runner.LastOutcome() }
