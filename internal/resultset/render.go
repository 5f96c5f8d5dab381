// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package resultset

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// NullText is how a null cell is displayed.
const NullText = "NULL"

// Table is the display structure for a result: a header row and string cells.
// Values are not escaped; each presentation adapter does that for its own surface.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Empty reports whether the table has no columns.
func (t Table) Empty() bool { return len(t.Columns) == 0 }

// Render converts records into a Table. Columns come from the first record.
// Records missing a column get an empty cell; extra fields are ignored.
func Render(rows []Record) Table {
	if len(rows) == 0 {
		return Table{}
	}
	cols := rows[0].Keys()
	t := Table{Columns: cols, Rows: make([][]string, 0, len(rows))}
	for _, rec := range rows {
		line := make([]string, len(cols))
		for i, c := range cols {
			if v, ok := rec.Get(c); ok {
				line[i] = Cell(v)
			}
		}
		t.Rows = append(t.Rows, line)
	}
	return t
}

// Cell formats a single value in its natural string form.
func Cell(v any) string {
	switch x := v.(type) {
	case nil:
		return NullText
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case []byte:
		return string(x)
	case map[string]any, []any, Record:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	default:
		return fmt.Sprint(x)
	}
}
