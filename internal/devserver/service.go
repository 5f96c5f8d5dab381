// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package devserver

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/pterm/pterm"

	"querydesk/cli/internal/resultset"
	"querydesk/cli/internal/sqlexec"
)

// Response messages shared by both transports.
const (
	MsgNoQuery         = "No query provided"
	MsgNoSQL           = "No SQL query provided"
	MsgNoExportData    = "No data to export"
	MsgNameRequired    = "Database name required"
	MsgExecutedNoData  = "Query executed successfully (no data returned)"
	ExecFailedPrefix   = "Query execution failed: "
	StatusError        = "error"
	statusAcknowledged = "success"
)

// RequestError is a failure reported to the client with a status code.
type RequestError struct {
	Status  int
	Message string
}

func (e *RequestError) Error() string { return e.Message }

func badRequest(msg string) error { return &RequestError{Status: http.StatusBadRequest, Message: msg} }

func serverError(err error) error {
	return &RequestError{Status: http.StatusInternalServerError, Message: err.Error()}
}

// Service implements the backend operations over a Store.
type Service struct {
	store      *Store
	translator Translator
	log        *pterm.Logger
}

// NewService creates a Service. A nil translator means PassThrough.
func NewService(store *Store, tr Translator, log *pterm.Logger) *Service {
	if tr == nil {
		tr = PassThrough{}
	}
	if log == nil {
		log = pterm.DefaultLogger.WithWriter(io.Discard)
	}
	return &Service{store: store, translator: tr, log: log}
}

// ListSources returns the visible databases.
func (s *Service) ListSources(ctx context.Context) ([]string, error) {
	names, err := s.store.Databases(ctx)
	if err != nil {
		s.log.Error("listing databases failed", s.log.Args("error", err))
		return nil, serverError(err)
	}
	return names, nil
}

// SelectSource switches the current database.
func (s *Service) SelectSource(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return badRequest(MsgNameRequired)
	}
	if err := s.store.Use(ctx, name); err != nil {
		s.log.Warn("database switch failed", s.log.Args("database", name, "error", err))
		return serverError(err)
	}
	return nil
}

// Query translates and executes text. Failures are reported inside the response.
func (s *Service) Query(ctx context.Context, text string) *resultset.Response {
	if strings.TrimSpace(text) == "" {
		return &resultset.Response{Status: StatusError, Message: MsgNoQuery}
	}
	db := s.store.Current()
	if db == "" {
		return &resultset.Response{Status: StatusError, Message: ErrNoDatabase.Error()}
	}
	generated, err := s.translator.Translate(ctx, db, text)
	if err != nil {
		s.log.Warn("translation failed", s.log.Args("error", err))
		return &resultset.Response{Status: StatusError, Message: err.Error()}
	}

	res, err := s.execute(ctx, generated)
	if err != nil {
		s.log.Info("query failed", s.log.Args("database", db, "error", err))
		return &resultset.Response{Status: StatusError, Message: ExecFailedPrefix + err.Error(), Query: generated}
	}
	if !res.ReturnsRows {
		return &resultset.Response{Status: resultset.StatusSuccess, Query: generated, Message: MsgExecutedNoData}
	}
	s.log.Debug("query executed", s.log.Args("database", db, "rows", len(res.Records)))
	return &resultset.Response{
		Status:   resultset.StatusSuccess,
		Query:    generated,
		RowCount: len(res.Records),
		Rows:     res.Records,
	}
}

func (s *Service) execute(ctx context.Context, query string) (*sqlexec.Result, error) {
	exec, err := s.store.Executor()
	if err != nil {
		return nil, err
	}
	return exec.Execute(ctx, query)
}

// Export runs query and renders its rows as a spreadsheet. Statements that do not
// return rows are refused without being executed.
func (s *Service) Export(ctx context.Context, query string) ([]byte, error) {
	if strings.TrimSpace(query) == "" {
		return nil, badRequest(MsgNoSQL)
	}
	if err := sqlexec.Guard(query); err != nil {
		return nil, serverError(errors.New(ExecFailedPrefix + err.Error()))
	}
	if !sqlexec.ReturnsRows(query) {
		return nil, badRequest(MsgNoExportData)
	}
	res, err := s.execute(ctx, query)
	if err != nil {
		return nil, serverError(errors.New(ExecFailedPrefix + err.Error()))
	}
	if len(res.Records) == 0 {
		return nil, badRequest(MsgNoExportData)
	}
	data, err := Workbook(res.Columns, res.Records)
	if err != nil {
		return nil, serverError(err)
	}
	s.log.Info("export rendered", s.log.Args("rows", len(res.Records), "bytes", len(data)))
	return data, nil
}
