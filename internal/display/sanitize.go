// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package display

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/pterm/pterm"
)

// escapeSeq matches CSI, OSC and two-byte escape sequences that survive color stripping.
var escapeSeq = regexp.MustCompile(`\x1b(\[[0-?]*[ -/]*[@-~]|\][^\x07\x1b]*(\x07|\x1b\\)|[@-Z\\-_])`)

// Sanitize removes terminal escape sequences and control characters from untrusted text.
// Newlines and tabs are kept.
func Sanitize(s string) string {
	s = pterm.RemoveColorFromString(s)
	s = escapeSeq.ReplaceAllString(s, "")
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

// SanitizeLine is Sanitize for single-line cells: line breaks and tabs become spaces.
func SanitizeLine(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' || r == '\r' {
			return ' '
		}
		return r
	}, Sanitize(s))
}
