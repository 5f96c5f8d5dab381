// Package terminal provides small terminal helpers used by interactive prompts.
package terminal

import (
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// DefaultWidth is used when the terminal width cannot be determined.
const DefaultWidth = 80

// Width returns the width of the terminal behind f, or DefaultWidth.
func Width(f *os.File) int {
	if f == nil {
		return DefaultWidth
	}
	if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
		return w
	}
	return DefaultWidth
}

// IsInteractive reports whether f is a terminal.
func IsInteractive(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}

// LinesUsed returns how many terminal rows textLength characters occupy at width,
// plus the empty row the cursor lands on after Enter.
func LinesUsed(textLength, width int) int {
	if width <= 0 {
		width = DefaultWidth
	}
	lines := (textLength + width - 1) / width
	if lines < 1 {
		lines = 1
	}
	return lines + 1
}

// ClearPreviousLines erases the rows used by a prompt of textLength characters
// (prompt plus echoed input) and leaves the cursor at the start of the first one.
func ClearPreviousLines(w io.Writer, textLength, width int) {
	n := LinesUsed(textLength, width)
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteString("\r\x1b[2K")
		if i < n-1 {
			b.WriteString("\x1b[1A")
		}
	}
	_, _ = io.WriteString(w, b.String())
}
