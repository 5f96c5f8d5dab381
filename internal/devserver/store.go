// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package devserver is a local implementation of the query backend: it lists databases,
// switches between them, executes queries and exports spreadsheets, over HTTP and gRPC.
package devserver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	"github.com/pterm/pterm"
	_ "modernc.org/sqlite" // SQLite driver

	"querydesk/cli/internal/dsn"
	"querydesk/cli/internal/logging"
	"querydesk/cli/internal/sqlexec"
)

// DefaultHidden lists the system databases never offered as sources.
var DefaultHidden = []string{"sys", "information_schema", "mysql", "performance_schema"}

// ErrNoDatabase is returned when a query arrives before any database is selected.
var ErrNoDatabase = errors.New("No database selected")

// OpenFunc opens a database handle. Tests replace it to inject mocks.
type OpenFunc func(driver, dsn string) (*sql.DB, error)

// Store owns the connection to the currently selected database.
type Store struct {
	typ     dsn.DBType
	baseDSN string
	hidden  map[string]bool
	open    OpenFunc
	log     *pterm.Logger

	mu      sync.RWMutex
	db      *sql.DB
	current string
}

// StoreOptions configure a Store.
type StoreOptions struct {
	Driver string
	DSN    string
	// Hidden databases are filtered from listings. Nil means DefaultHidden.
	Hidden []string
	Open   OpenFunc
	Logger *pterm.Logger
}

// NewStore validates the DSN and connects to the database it names, if any.
// A SQLite DSN naming only a directory starts without a current database.
func NewStore(ctx context.Context, opts StoreOptions) (*Store, error) {
	typ, err := dsn.ParseDBType(opts.Driver, opts.DSN)
	if err != nil {
		return nil, err
	}
	resolver, err := dsn.ResolverFor(typ)
	if err != nil {
		return nil, err
	}
	info, err := resolver.Parse(opts.DSN)
	if err != nil {
		return nil, err
	}

	hidden := opts.Hidden
	if hidden == nil {
		hidden = DefaultHidden
	}
	s := &Store{
		typ:     typ,
		baseDSN: opts.DSN,
		hidden:  make(map[string]bool, len(hidden)),
		open:    opts.Open,
		log:     opts.Logger,
	}
	for _, h := range hidden {
		s.hidden[strings.ToLower(h)] = true
	}
	if s.open == nil {
		s.open = sql.Open
	}
	if s.log == nil {
		s.log = pterm.DefaultLogger.WithWriter(io.Discard)
	}

	if typ == dsn.DBTypeSQLite {
		st, err := os.Stat(info.Host)
		if err != nil || !st.IsDir() {
			return nil, fmt.Errorf("sqlite directory %s not found", info.Host)
		}
		if info.Database == "" {
			return s, nil
		}
		return s, s.Use(ctx, info.Database)
	}

	db, err := s.connect(ctx, opts.DSN)
	if err != nil {
		return nil, err
	}
	s.db, s.current = db, info.Database
	return s, nil
}

// Type returns the database dialect.
func (s *Store) Type() dsn.DBType { return s.typ }

func (s *Store) connect(ctx context.Context, conn string) (*sql.DB, error) {
	db, err := s.open(s.typ.DriverName(), conn)
	if err != nil {
		return nil, errors.New(logging.Mask(err.Error()))
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.New(logging.Mask(err.Error()))
	}
	return db, nil
}

// Databases lists visible databases in name order.
func (s *Store) Databases(ctx context.Context) ([]string, error) {
	var (
		names []string
		err   error
	)
	if s.typ == dsn.DBTypeSQLite {
		names, err = s.sqliteDatabases()
	} else {
		names, err = s.queryDatabases(ctx)
	}
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(names))
	for _, n := range names {
		if !s.hidden[strings.ToLower(n)] {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) sqliteDatabases() ([]string, error) {
	info, err := dsn.NewSQLiteResolver().Parse(s.baseDSN)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(info.Host)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(e.Name(), dsn.SQLiteExt) {
			names = append(names, strings.TrimSuffix(e.Name(), dsn.SQLiteExt))
		}
	}
	return names, nil
}

func (s *Store) queryDatabases(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	db := s.db
	s.mu.RUnlock()
	if db == nil {
		return nil, ErrNoDatabase
	}

	rows, err := db.QueryContext(ctx, listDatabasesSQL(s.typ))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

func listDatabasesSQL(t dsn.DBType) string {
	switch t {
	case dsn.DBTypePostgreSQL:
		return "SELECT datname FROM pg_database WHERE NOT datistemplate AND datallowconn ORDER BY datname"
	default:
		return "SHOW DATABASES"
	}
}

// Use reconnects to database name. The previous connection stays current when this fails.
func (s *Store) Use(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("Database name required")
	}
	if s.hidden[strings.ToLower(name)] {
		return fmt.Errorf("unknown database %q", name)
	}
	conn, err := dsn.WithDatabase(s.typ, s.baseDSN, name)
	if err != nil {
		return err
	}
	if s.typ == dsn.DBTypeSQLite {
		if st, err := os.Stat(conn); err != nil || !st.Mode().IsRegular() {
			return fmt.Errorf("unknown database %q", name)
		}
	}
	db, err := s.connect(ctx, conn)
	if err != nil {
		return err
	}

	s.mu.Lock()
	old := s.db
	s.db, s.current = db, name
	s.mu.Unlock()
	if old != nil {
		_ = old.Close()
	}
	s.log.Info("database selected", s.log.Args("database", name, "driver", string(s.typ)))
	return nil
}

// Current returns the selected database name.
func (s *Store) Current() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Executor returns an executor bound to the current database.
func (s *Store) Executor() (*sqlexec.Executor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil || s.current == "" {
		return nil, ErrNoDatabase
	}
	return sqlexec.New(s.db, s.log), nil
}

// Close releases the current connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
