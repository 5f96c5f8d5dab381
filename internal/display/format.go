// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package display renders workbench events to a terminal and writes result tables in the
// supported output formats.
package display

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"querydesk/cli/internal/resultset"
)

// Format is a result output format.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// Formats lists accepted format names.
var Formats = []Format{FormatTable, FormatJSON, FormatCSV, FormatMarkdown, FormatHTML}

// ParseFormat resolves a format name. "md" is accepted for markdown; "" means table.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "table":
		return FormatTable, nil
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want table, json, csv, markdown or html)", s)
	}
}

// Plain reports whether f is meant for piping rather than reading in a terminal.
func (f Format) Plain() bool { return f != FormatTable }

// WriteTable writes t in format f. records back the JSON format so values keep their types;
// when nil, JSON falls back to the rendered strings.
//
// Cells are escaped for the target: terminal text is sanitized, HTML is escaped, CSV is quoted.
func WriteTable(w io.Writer, f Format, t resultset.Table, records []resultset.Record) error {
	switch f {
	case FormatJSON:
		return writeJSON(w, t, records)
	case FormatCSV:
		return writeCSV(w, t)
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.Style().Format.Header = text.FormatDefault
	header := make(table.Row, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = cellText(f, c)
	}
	tw.AppendHeader(header)
	for _, r := range t.Rows {
		row := make(table.Row, len(r))
		for i, c := range r {
			row[i] = cellText(f, c)
		}
		tw.AppendRow(row)
	}

	var out string
	switch f {
	case FormatMarkdown:
		out = tw.RenderMarkdown()
	case FormatHTML:
		out = tw.RenderHTML()
	default:
		out = tw.Render()
	}
	if _, err := io.WriteString(w, out+"\n"); err != nil {
		return err
	}
	if f == FormatTable {
		_, err := fmt.Fprintf(w, "(%d rows)\n", len(t.Rows))
		return err
	}
	return nil
}

func cellText(f Format, s string) string {
	switch f {
	case FormatTable, FormatMarkdown:
		return SanitizeLine(s)
	default:
		return s
	}
}

// writeCSV writes RFC 4180 CSV, quoting cells that hold commas, quotes or newlines.
func writeCSV(w io.Writer, t resultset.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, r := range t.Rows {
		if err := cw.Write(r); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeJSON(w io.Writer, t resultset.Table, records []resultset.Record) error {
	if records == nil {
		records = make([]resultset.Record, 0, len(t.Rows))
		for _, r := range t.Rows {
			rec := make(resultset.Record, 0, len(t.Columns))
			for i, c := range t.Columns {
				rec = append(rec, resultset.Field{Name: c, Value: r[i]})
			}
			records = append(records, rec)
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}
