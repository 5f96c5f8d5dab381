// Package sqlexec runs SQL statements over database/sql and returns results as ordered
// records. Read statements stream rows; write statements run in a transaction that is
// committed on success and rolled back otherwise.
package sqlexec

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"time"
	"unicode/utf8"

	"github.com/pterm/pterm"

	"querydesk/cli/internal/resultset"
)

// Result is the outcome of one statement.
type Result struct {
	Columns      []string
	Records      []resultset.Record
	RowsAffected int64
	// ReturnsRows is set for statements classified as row-returning, even when no rows came back.
	ReturnsRows bool
}

// Executor executes SQL statements against one database handle.
type Executor struct {
	DB  *sql.DB
	log *pterm.Logger
}

// New creates an Executor. log may be nil.
func New(db *sql.DB, log *pterm.Logger) *Executor {
	if log == nil {
		log = pterm.DefaultLogger.WithWriter(io.Discard)
	}
	return &Executor{DB: db, log: log}
}

// Execute guards and runs query. Blocked statements never reach the database.
func (e *Executor) Execute(ctx context.Context, query string) (*Result, error) {
	if err := Guard(query); err != nil {
		e.log.Warn("statement blocked", e.log.Args("type", StatementType(query)))
		return nil, err
	}
	if ReturnsRows(query) {
		return e.read(ctx, query)
	}
	return e.write(ctx, query)
}

func (e *Executor) read(ctx context.Context, query string) (*Result, error) {
	start := time.Now()
	rows, err := e.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	res := &Result{Columns: cols, Records: []resultset.Record{}, ReturnsRows: true}

	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		rec := make(resultset.Record, 0, len(cols))
		for i, c := range cols {
			rec.Set(c, normalize(vals[i]))
		}
		res.Records = append(res.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	e.log.Debug("read statement done", e.log.Args("rows", len(res.Records), "elapsed", time.Since(start).String()))
	return res, nil
}

func (e *Executor) write(ctx context.Context, query string) (*Result, error) {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	r, err := tx.ExecContext(ctx, query)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit failed: %w", err)
	}
	res := &Result{}
	if n, err := r.RowsAffected(); err == nil {
		res.RowsAffected = n
	}
	e.log.Debug("write statement committed", e.log.Args("rows_affected", res.RowsAffected))
	return res, nil
}

// normalize converts driver values into JSON- and spreadsheet-friendly ones.
func normalize(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case []byte:
		if utf8.Valid(t) {
			return string(t)
		}
		if len(t) == 16 {
			return formatUUID(t)
		}
		return fmt.Sprintf("\\x%x", t)
	case [16]byte:
		return formatUUID(t[:])
	default:
		return v
	}
}

func formatUUID(b []byte) string {
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:16])
}
