package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind Kind
	}{
		{name: "validation", err: NewValidation("Please enter a query"), kind: Validation},
		{name: "domain", err: NewDomain("no such table", "SELECT * FROM x"), kind: Domain},
		{name: "transport", err: NewTransport(stderrors.New("connection refused")), kind: Transport},
		{name: "wrapped", err: fmt.Errorf("submit: %w", NewDomain("boom", "")), kind: Domain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, Is(tt.err, tt.kind))
			e, ok := As(tt.err)
			require.True(t, ok)
			assert.Equal(t, tt.kind, e.Kind)
		})
	}
}

func TestTransportKeepsRawText(t *testing.T) {
	cause := stderrors.New(`Post "http://127.0.0.1:5000/query": dial tcp: connection refused`)
	e := NewTransport(cause)

	assert.Equal(t, cause.Error(), e.Message)
	assert.Empty(t, e.Detail)
	assert.True(t, stderrors.Is(e, cause))
	assert.Nil(t, NewTransport(nil))
}

func TestIsOnPlainError(t *testing.T) {
	assert.False(t, Is(stderrors.New("plain"), Domain))
	_, ok := As(nil)
	assert.False(t, ok)
}
