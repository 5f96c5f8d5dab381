// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package workbench

import (
	"context"
	"strings"

	"github.com/pterm/pterm"

	"querydesk/cli/internal/backend"
	"querydesk/cli/internal/session"
)

// Selector commits a source choice to the backend and, on acknowledgement, to the session.
// It is the only writer of the selected source.
type Selector struct {
	api     backend.API
	writer  *session.SourceWriter
	surface *surface
	log     *pterm.Logger
}

// Select switches to source. An empty source is ignored.
//
// On failure the session's selection is cleared and the selection widget is reset, even
// though the user may still see the value they picked until the reset lands.
func (s *Selector) Select(ctx context.Context, source string) (err error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil
	}
	defer func() {
		if p := recover(); p != nil {
			err = recovered(s.log, "select source", p)
		}
	}()

	if err := s.api.SelectSource(ctx, source); err != nil {
		s.writer.Clear()
		s.log.Warn("source switch failed", s.log.Args("source", source, "error", err))
		s.surface.update(func(c *Controls) {
			c.Indicator = Indicator{State: IndicatorFailed, Text: MsgConnectionFailed}
		})
		s.surface.emit(Event{Type: EventSelectionReset})
		return err
	}

	s.writer.Commit(source)
	s.log.Info("source selected", s.log.Args("source", source))
	s.surface.update(func(c *Controls) {
		c.Indicator = Indicator{State: IndicatorConfirmed, Text: source}
	})
	return nil
}
