// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package workbench

import (
	"context"
	"sync"

	"github.com/pterm/pterm"

	"querydesk/cli/internal/backend"
	qerrors "querydesk/cli/internal/errors"
	"querydesk/cli/internal/session"
)

// Exporter re-executes the last successful query as a spreadsheet and saves it.
type Exporter struct {
	api     backend.API
	session *session.Session
	sink    ArtifactSink
	surface *surface
	log     *pterm.Logger

	mu   sync.Mutex
	busy bool
}

// Export requests an artifact for the last successful query and hands it to the sink.
// It returns the saved location. Without a prior success it makes no request.
func (x *Exporter) Export(ctx context.Context) (path string, err error) {
	x.mu.Lock()
	if x.busy {
		x.mu.Unlock()
		return "", ErrBusy
	}
	query, ok := x.session.LastQuery()
	if !ok {
		x.mu.Unlock()
		x.surface.emit(Event{Type: EventValidation, Message: MsgGenerateFirst})
		return "", qerrors.NewValidation(MsgGenerateFirst)
	}
	x.busy = true
	x.mu.Unlock()

	defer func() {
		if p := recover(); p != nil {
			err = recovered(x.log, "export", p)
		}
		x.mu.Lock()
		x.busy = false
		x.mu.Unlock()
		x.surface.restore(func(c *Controls) {
			c.Export = Trigger{Enabled: true, Label: ExportIdleLabel}
		})
	}()

	x.surface.update(func(c *Controls) {
		c.Export = Trigger{Enabled: false, Label: ExportBusyLabel}
	})

	art, err := x.api.Export(ctx, query)
	if err != nil {
		x.fail(err)
		return "", err
	}
	path, err = x.sink.Save(art)
	if err != nil {
		x.fail(err)
		return "", err
	}

	x.log.Info("export saved", x.log.Args("path", path, "bytes", len(art.Data)))
	x.surface.emit(Event{Type: EventExportSaved, Path: path, Size: len(art.Data)})
	return path, nil
}

func (x *Exporter) fail(err error) {
	msg := err.Error()
	if e, ok := qerrors.As(err); ok && e.Message != "" {
		msg = e.Message
	}
	if msg == "" {
		msg = "Download failed"
	}
	x.log.Warn("export failed", x.log.Args("error", err))
	x.surface.emit(Event{Type: EventError, Message: ExportFailedPrefix + msg})
}
