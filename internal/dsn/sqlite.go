package dsn

import (
	"path/filepath"
	"strings"
)

// SQLiteExt is the file extension of databases in a SQLite directory.
const SQLiteExt = ".db"

// SQLiteResolver treats a DSN as a directory of database files, each file one database.
// A DSN naming a .db file selects that database within its directory.
type SQLiteResolver struct{}

// NewSQLiteResolver creates a new SQLite resolver
func NewSQLiteResolver() *SQLiteResolver {
	return &SQLiteResolver{}
}

func trimSQLiteScheme(dsn string) string {
	for _, p := range []string{"sqlite://", "file:"} {
		if strings.HasPrefix(strings.ToLower(dsn), p) {
			return dsn[len(p):]
		}
	}
	return dsn
}

// Parse splits dsn into its directory (Host) and database name.
func (r *SQLiteResolver) Parse(dsn string) (*DSNInfo, error) {
	path := trimSQLiteScheme(strings.TrimSpace(dsn))
	if path == "" {
		return nil, NewParseError(dsn, "empty DSN", "provide a directory containing *.db files")
	}
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	info := &DSNInfo{Type: DBTypeSQLite, Host: filepath.Clean(path), Params: map[string]string{}, Original: dsn}
	if strings.EqualFold(filepath.Ext(path), SQLiteExt) {
		info.Host = filepath.Dir(path)
		info.Database = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return info, nil
}

// Normalize returns the database file path, or the directory when no database is set.
func (r *SQLiteResolver) Normalize(info *DSNInfo) (string, error) {
	if info == nil {
		return "", NewParseError("", "nil DSN info", "")
	}
	if info.Database == "" {
		return info.Host, nil
	}
	return filepath.Join(info.Host, info.Database+SQLiteExt), nil
}

// Validate rejects empty DSNs.
func (r *SQLiteResolver) Validate(dsn string) error {
	_, err := r.Parse(dsn)
	return err
}

// WithDatabase returns the path of database db in the DSN's directory.
func (r *SQLiteResolver) WithDatabase(dsn, db string) (string, error) {
	if db == "" || db != filepath.Base(db) || db == "." || db == ".." {
		return "", NewParseError(dsn, "invalid database name "+db, "use a file name without path separators")
	}
	info, err := r.Parse(dsn)
	if err != nil {
		return "", err
	}
	info.Database = db
	return r.Normalize(info)
}
