package keychain

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenLifecycle(t *testing.T) {
	m := NewWithRing(keyring.NewArrayKeyring(nil))

	_, err := m.LoadToken("http://a")
	assert.ErrorIs(t, err, ErrNoToken)

	require.NoError(t, m.SaveToken("http://a/", "tok-a"))
	require.NoError(t, m.SaveToken("http://b", "tok-b"))

	got, err := m.LoadToken("http://a")
	require.NoError(t, err)
	assert.Equal(t, "tok-a", got, "trailing slash does not matter")

	got, err = m.LoadToken("http://b")
	require.NoError(t, err)
	assert.Equal(t, "tok-b", got)

	require.NoError(t, m.ClearToken("http://a"))
	_, err = m.LoadToken("http://a")
	assert.ErrorIs(t, err, ErrNoToken)
	assert.NoError(t, m.ClearToken("http://a"), "clearing twice is fine")
}

func TestSaveEmptyToken(t *testing.T) {
	m := NewWithRing(keyring.NewArrayKeyring(nil))
	assert.Error(t, m.SaveToken("http://a", "  "))
}
