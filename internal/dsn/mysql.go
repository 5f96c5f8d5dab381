// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dsn

import (
	"net"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// MySQLResolver handles go-sql-driver DSNs (user:pass@tcp(host:port)/db?params),
// optionally prefixed with mysql://.
type MySQLResolver struct{}

// NewMySQLResolver creates a new MySQL resolver
func NewMySQLResolver() *MySQLResolver {
	return &MySQLResolver{}
}

func (r *MySQLResolver) config(dsn string) (*mysql.Config, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, NewParseError(dsn, "empty DSN", "provide a DSN like user:password@tcp(host:3306)/")
	}
	raw := dsn
	if len(raw) >= len("mysql://") && strings.EqualFold(raw[:len("mysql://")], "mysql://") {
		raw = raw[len("mysql://"):]
	}
	cfg, err := mysql.ParseDSN(raw)
	if err != nil {
		return nil, NewParseError(dsn, err.Error(), "format should be user:password@tcp(host:port)/database")
	}
	return cfg, nil
}

// Parse parses a MySQL DSN. The database name may be empty.
func (r *MySQLResolver) Parse(dsn string) (*DSNInfo, error) {
	cfg, err := r.config(dsn)
	if err != nil {
		return nil, err
	}
	info := &DSNInfo{
		Type:     DBTypeMySQL,
		User:     cfg.User,
		Password: cfg.Passwd,
		Database: cfg.DBName,
		Params:   make(map[string]string, len(cfg.Params)),
		Original: dsn,
	}
	for k, v := range cfg.Params {
		info.Params[k] = v
	}
	if host, port, splitErr := net.SplitHostPort(cfg.Addr); splitErr == nil {
		info.Host, info.Port = host, port
	} else {
		info.Host = cfg.Addr
	}
	return info, nil
}

// Normalize formats info as a go-sql-driver DSN over TCP.
func (r *MySQLResolver) Normalize(info *DSNInfo) (string, error) {
	if info == nil {
		return "", NewParseError("", "nil DSN info", "")
	}
	cfg := mysql.NewConfig()
	cfg.User = info.User
	cfg.Passwd = info.Password
	cfg.Net = "tcp"
	cfg.Addr = info.Host
	if info.Port != "" {
		cfg.Addr = net.JoinHostPort(info.Host, info.Port)
	}
	cfg.DBName = info.Database
	if len(info.Params) > 0 {
		cfg.Params = make(map[string]string, len(info.Params))
		for k, v := range info.Params {
			cfg.Params[k] = v
		}
	}
	return cfg.FormatDSN(), nil
}

// Validate checks that dsn is accepted by the MySQL driver.
func (r *MySQLResolver) Validate(dsn string) error {
	_, err := r.config(dsn)
	return err
}

// WithDatabase returns dsn with its database replaced by db, keeping every other setting.
func (r *MySQLResolver) WithDatabase(dsn, db string) (string, error) {
	cfg, err := r.config(dsn)
	if err != nil {
		return "", err
	}
	cfg.DBName = db
	return cfg.FormatDSN(), nil
}
