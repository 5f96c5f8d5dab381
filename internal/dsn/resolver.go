// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dsn

import (
	"strings"
)

// DetectDBType detects the database type from a DSN string
func DetectDBType(dsn string) DBType {
	lower := strings.ToLower(strings.TrimSpace(dsn))

	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return DBTypePostgreSQL
	case strings.HasPrefix(lower, "mysql://"),
		strings.Contains(lower, "@tcp("), strings.Contains(lower, "@unix("), strings.Contains(lower, "@/"):
		return DBTypeMySQL
	case strings.HasPrefix(lower, "sqlite://"), strings.HasPrefix(lower, "file:"):
		return DBTypeSQLite
	case lower != "" && !strings.Contains(lower, "://") && !strings.Contains(lower, "@"):
		return DBTypeSQLite
	}
	return DBTypeUnknown
}

// ParseDBType maps a configured driver name to a type.
// An empty name falls back to detection from dsn.
func ParseDBType(driver, dsn string) (DBType, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "postgres", "postgresql", "pgx", "pg":
		return DBTypePostgreSQL, nil
	case "mysql", "mariadb":
		return DBTypeMySQL, nil
	case "sqlite", "sqlite3":
		return DBTypeSQLite, nil
	case "":
		if t := DetectDBType(dsn); t != DBTypeUnknown {
			return t, nil
		}
		return DBTypeUnknown, NewParseError(dsn, "cannot detect database type", "set server.driver to mysql, postgres or sqlite")
	default:
		return DBTypeUnknown, NewParseError(dsn, "unknown driver "+driver, "use mysql, postgres or sqlite")
	}
}

// DatabaseResolver is a Resolver that can also retarget a DSN at another database.
type DatabaseResolver interface {
	Resolver
	WithDatabase(dsn, db string) (string, error)
}

// ResolverFor returns the resolver for t.
func ResolverFor(t DBType) (DatabaseResolver, error) {
	switch t {
	case DBTypePostgreSQL:
		return NewPostgreSQLResolver(), nil
	case DBTypeMySQL:
		return NewMySQLResolver(), nil
	case DBTypeSQLite:
		return NewSQLiteResolver(), nil
	default:
		return nil, NewParseError("", "unknown database type", "use postgres://, a MySQL DSN, or a SQLite directory")
	}
}

func detect(dsn string) (DatabaseResolver, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, NewParseError(dsn, "empty DSN", "provide a valid database connection string")
	}
	r, err := ResolverFor(DetectDBType(dsn))
	if err != nil {
		return nil, NewParseError(dsn, "unknown database type", "use postgres://, a MySQL DSN, or a SQLite directory")
	}
	return r, nil
}

// Parse parses a DSN string and returns the normalized connection string.
func Parse(dsn string) (string, error) {
	r, err := detect(dsn)
	if err != nil {
		return "", err
	}
	info, err := r.Parse(dsn)
	if err != nil {
		return "", err
	}
	return r.Normalize(info)
}

// Validate validates a DSN string without normalizing it
func Validate(dsn string) error {
	r, err := detect(dsn)
	if err != nil {
		return err
	}
	return r.Validate(dsn)
}

// ParseInfo parses a DSN string and returns detailed DSN info
func ParseInfo(dsn string) (*DSNInfo, error) {
	r, err := detect(dsn)
	if err != nil {
		return nil, err
	}
	return r.Parse(dsn)
}

// WithDatabase returns dsn of type t retargeted at database db.
func WithDatabase(t DBType, dsn, db string) (string, error) {
	r, err := ResolverFor(t)
	if err != nil {
		return "", err
	}
	return r.WithDatabase(dsn, db)
}
