// Package errors defines typed errors with categories for user-friendly reporting.
// Every failure the workbench surfaces belongs to exactly one Kind, and the kind decides
// how it is rendered: validation errors are local and immediate, transport errors show the
// raw error text, and domain errors carry the backend message plus an optional detail.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// Validation is a local precondition failure. No network call was made.
	Validation Kind = "validation"
	// Transport is a network failure or a response body that could not be parsed.
	Transport Kind = "transport"
	// Domain is a failure reported explicitly by the backend.
	Domain Kind = "domain"
)

// E wraps an error with kind and human-friendly message.
// Detail carries the attempted query text for domain errors when the backend supplied one.
type E struct {
	Kind    Kind
	Message string
	Detail  string
	Err     error
}

func (e *E) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *E) Unwrap() error { return e.Err }

func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }
func New(kind Kind, msg string) *E             { return &E{Kind: kind, Message: msg} }

// NewValidation returns a validation error with a fixed user-facing message.
func NewValidation(msg string) *E { return New(Validation, msg) }

// NewDomain returns a backend-reported error. detail may be empty.
func NewDomain(msg, detail string) *E { return &E{Kind: Domain, Message: msg, Detail: detail} }

// NewTransport wraps a network or decoding failure. The message is the raw error text.
func NewTransport(err error) *E {
	if err == nil {
		return nil
	}
	return &E{Kind: Transport, Message: err.Error(), Err: err}
}

// As extracts an *E from err's chain.
func As(err error) (*E, bool) {
	var e *E
	if stderrors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	e, ok := As(err)
	return ok && e.Kind == kind
}
