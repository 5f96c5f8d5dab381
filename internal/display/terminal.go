// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package display

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/pterm/pterm"

	"querydesk/cli/internal/workbench"
)

// Terminal renders workbench events as terminal text.
//
// Result data goes to Out. Everything else (notices, errors, the generated query) goes to
// Messages, which may be the same writer. With a plain format only data reaches Out, so it
// can be piped.
type Terminal struct {
	Out      io.Writer
	Messages io.Writer
	Format   Format
	// Spinner animates the loading indicator on Messages.
	Spinner bool

	mu       sync.Mutex
	prev     workbench.Controls
	seen     bool
	stopSpin func()
	errs     []error
}

// NewTerminal creates a renderer writing data to out and messages to msgs.
func NewTerminal(out, msgs io.Writer, format Format, spinner bool) *Terminal {
	return &Terminal{Out: out, Messages: msgs, Format: format, Spinner: spinner, prev: workbench.InitialControls()}
}

// Render implements workbench.Renderer.
func (t *Terminal) Render(ev workbench.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if ev.Type == workbench.EventControls {
		t.controls(ev.Controls)
		return
	}
	t.spinnerOff()

	switch ev.Type {
	case workbench.EventSourcesLoaded:
		t.sources(ev.Sources)
	case workbench.EventSourcesEmpty:
		t.msg(pterm.Warning.Sprintln(ev.Message))
	case workbench.EventSourcesFailed:
		t.msg(pterm.Error.Sprintln(ev.Message))
	case workbench.EventSelectionReset:
		// The terminal has no selection widget; the failed indicator says it all.
	case workbench.EventValidation:
		t.msg(pterm.Warning.Sprintln(Sanitize(ev.Message)))
	case workbench.EventResultCleared:
	case workbench.EventQueryText:
		t.query(ev.Query)
	case workbench.EventNoData:
		t.msg(pterm.Info.Sprintln(ev.Message))
	case workbench.EventTable:
		if err := WriteTable(t.Out, t.Format, ev.Table, ev.Records); err != nil {
			t.errs = append(t.errs, err)
		}
	case workbench.EventError:
		t.showError(ev.Message, ev.Detail)
	case workbench.EventExportSaved:
		t.msg(pterm.Success.Sprintfln("Saved results to %s (%d bytes)", ev.Path, ev.Size))
	}
}

// Err returns the first write error seen while rendering tables.
func (t *Terminal) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.errs) == 0 {
		return nil
	}
	return t.errs[0]
}

// Close stops any running spinner.
func (t *Terminal) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.spinnerOff()
}

func (t *Terminal) msg(s string) { _, _ = io.WriteString(t.Messages, s) }

func (t *Terminal) controls(c workbench.Controls) {
	prev := t.prev
	t.prev = c

	if c.Indicator != prev.Indicator || !t.seen {
		t.seen = true
		switch c.Indicator.State {
		case workbench.IndicatorConfirmed:
			t.spinnerOff()
			t.msg(pterm.NewStyle(pterm.FgGreen).Sprint("✔ ") + pterm.NewStyle(pterm.FgGreen, pterm.Bold).Sprint(Sanitize(c.Indicator.Text)) + "\n")
		case workbench.IndicatorFailed:
			t.spinnerOff()
			t.msg(pterm.NewStyle(pterm.FgRed).Sprint("✖ "+c.Indicator.Text) + "\n")
		}
	}

	if c.Loading && !prev.Loading && t.Spinner && t.stopSpin == nil {
		t.stopSpin = StartInlineSpinner(t.Messages, c.Submit.Label, SpinnerFrames, 100*time.Millisecond)
	}
	if !c.Loading {
		t.spinnerOff()
	}
}

func (t *Terminal) spinnerOff() {
	if t.stopSpin != nil {
		t.stopSpin()
		t.stopSpin = nil
	}
}

func (t *Terminal) sources(list []string) {
	items := make([]pterm.BulletListItem, 0, len(list))
	for _, s := range list {
		items = append(items, pterm.BulletListItem{Level: 0, Text: Sanitize(s)})
	}
	out, err := pterm.DefaultBulletList.WithItems(items).Srender()
	if err != nil {
		t.errs = append(t.errs, err)
		return
	}
	t.msg(pterm.NewStyle(pterm.FgLightCyan, pterm.Bold).Sprint("Available databases") + "\n")
	t.msg(out)
}

func (t *Terminal) query(q string) {
	q = strings.TrimRight(Sanitize(q), "\n")
	if q == "" {
		return
	}
	t.msg(pterm.DefaultBox.
		WithTitle(pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprint("Generated SQL")).
		Sprint(pterm.NewStyle(pterm.FgLightBlue).Sprint(q)) + "\n")
}

func (t *Terminal) showError(message, detail string) {
	t.msg(pterm.Error.Sprintln(Sanitize(message)))
	if strings.TrimSpace(detail) == "" {
		return
	}
	var b strings.Builder
	b.WriteString(pterm.NewStyle(pterm.FgGray).Sprint("  Technical Details") + "\n")
	for _, line := range strings.Split(Sanitize(detail), "\n") {
		b.WriteString(fmt.Sprintf("    %s\n", pterm.NewStyle(pterm.FgGray).Sprint(line)))
	}
	t.msg(b.String())
}
