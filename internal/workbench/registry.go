// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package workbench

import (
	"context"
	"sync"

	"github.com/pterm/pterm"

	"querydesk/cli/internal/backend"
)

// Registry loads the selectable sources and owns the displayed set.
type Registry struct {
	api      backend.API
	selector *Selector
	surface  *surface
	log      *pterm.Logger

	mu      sync.RWMutex
	sources []string
}

// Sources returns the most recently loaded set, in backend order.
func (r *Registry) Sources() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.sources...)
}

// Load fetches the source list. A single source is selected automatically, as if the user
// had picked it; with two or more the choice is left to the user. A failed auto-selection is
// reported through the selector and does not fail the load.
func (r *Registry) Load(ctx context.Context) (sources []string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = recovered(r.log, "load sources", p)
		}
	}()

	list, err := r.api.ListSources(ctx)
	if err != nil {
		r.set(nil)
		r.log.Warn("loading sources failed", r.log.Args("error", err))
		r.surface.emit(Event{Type: EventSourcesFailed, Message: MsgSourcesFailed})
		return nil, err
	}
	r.set(list)
	r.log.Debug("sources loaded", r.log.Args("count", len(list)))

	if len(list) == 0 {
		r.surface.emit(Event{Type: EventSourcesEmpty, Message: MsgNoSources})
		return list, nil
	}
	r.surface.emit(Event{Type: EventSourcesLoaded, Sources: append([]string(nil), list...)})

	if len(list) == 1 {
		_ = r.selector.Select(ctx, list[0])
	}
	return list, nil
}

func (r *Registry) set(list []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources = list
}
