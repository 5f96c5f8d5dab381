package devserver

import (
	"context"
	"strings"
)

// Translator turns user text into a SQL statement for the current database.
type Translator interface {
	Translate(ctx context.Context, database, text string) (string, error)
}

// TranslatorFunc adapts a function to Translator.
type TranslatorFunc func(ctx context.Context, database, text string) (string, error)

// Translate calls f.
func (f TranslatorFunc) Translate(ctx context.Context, database, text string) (string, error) {
	return f(ctx, database, text)
}

// PassThrough treats the text as SQL already.
type PassThrough struct{}

// Translate returns text trimmed, without a trailing semicolon.
func (PassThrough) Translate(_ context.Context, _ string, text string) (string, error) {
	return strings.TrimSuffix(strings.TrimSpace(text), ";"), nil
}
