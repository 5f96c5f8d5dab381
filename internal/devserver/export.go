package devserver

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"querydesk/cli/internal/resultset"
)

// Spreadsheet artifact description.
const (
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	XLSXFilename    = "query_results.xlsx"
	sheetName       = "Results"
)

// Workbook renders records as a single-sheet xlsx document with a bold header row.
func Workbook(columns []string, records []resultset.Record) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return nil, err
	}

	header := make([]any, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return nil, err
	}
	if len(columns) > 0 {
		last, err := excelize.CoordinatesToCellName(len(columns), 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(sheetName, "A1", last, headerStyle); err != nil {
			return nil, err
		}
	}

	for i, rec := range records {
		row := make([]any, len(columns))
		for j, c := range columns {
			v, _ := rec.Get(c)
			row[j] = cellValue(v)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// cellValue keeps numbers, booleans and times native and formats everything else as text.
func cellValue(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case string, bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, time.Time:
		return t
	default:
		if s, ok := v.(fmt.Stringer); ok {
			return s.String()
		}
		return resultset.Cell(v)
	}
}
