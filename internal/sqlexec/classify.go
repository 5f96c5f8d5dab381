package sqlexec

import (
	"regexp"
	"strings"
)

// rowKeywords start statements that produce a result set.
var rowKeywords = map[string]bool{
	"SELECT":   true,
	"WITH":     true,
	"SHOW":     true,
	"DESCRIBE": true,
	"DESC":     true,
	"EXPLAIN":  true,
	"PRAGMA":   true,
	"VALUES":   true,
	"TABLE":    true,
}

var (
	reLineComment  = regexp.MustCompile(`(?m)^\s*--[^\n]*$`)
	reBlockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)
	reDangerous    = regexp.MustCompile(`(?i)\b(DROP|TRUNCATE|ALTER|DELETE)\b`)
)

func stripComments(query string) string {
	q := reBlockComment.ReplaceAllString(query, " ")
	return reLineComment.ReplaceAllString(q, " ")
}

// StatementType returns the upper-cased first keyword of query, ignoring leading comments
// and parentheses.
func StatementType(query string) string {
	q := strings.TrimLeft(strings.TrimSpace(stripComments(query)), "( \t\r\n")
	end := strings.IndexFunc(q, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '(' || r == ';'
	})
	if end >= 0 {
		q = q[:end]
	}
	return strings.ToUpper(q)
}

// ReturnsRows reports whether query produces a result set.
func ReturnsRows(query string) bool {
	return rowKeywords[StatementType(query)]
}

// BlockedError rejects statements containing destructive keywords.
type BlockedError struct {
	// Type is the statement's first keyword.
	Type string
}

func (e *BlockedError) Error() string {
	return "Blocked dangerous query type: '" + e.Type + "'"
}

// Guard returns a *BlockedError when query contains DROP, TRUNCATE, ALTER or DELETE
// as a whole word anywhere in its text.
func Guard(query string) error {
	if reDangerous.MatchString(query) {
		return &BlockedError{Type: StatementType(query)}
	}
	return nil
}
