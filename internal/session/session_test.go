package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSessionIsEmpty(t *testing.T) {
	s, _, _ := New()

	_, ok := s.SelectedSource()
	assert.False(t, ok)
	_, ok = s.LastQuery()
	assert.False(t, ok)
}

func TestSourceWriter(t *testing.T) {
	s, src, _ := New()

	src.Commit("sales")
	got, ok := s.SelectedSource()
	assert.True(t, ok)
	assert.Equal(t, "sales", got)

	src.Clear()
	_, ok = s.SelectedSource()
	assert.False(t, ok)
}

func TestQueryWriter(t *testing.T) {
	s, src, q := New()

	q.Record("SELECT 1")
	src.Commit("other")

	got, ok := s.LastQuery()
	assert.True(t, ok)
	assert.Equal(t, "SELECT 1", got, "source changes must not clear the last query")

	q.Record("   ")
	_, ok = s.LastQuery()
	assert.False(t, ok, "blank query text is not exportable")
}

func TestConcurrentAccess(t *testing.T) {
	s, src, q := New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			src.Commit("db")
			_, _ = s.SelectedSource()
		}()
		go func() {
			defer wg.Done()
			q.Record("SELECT 1")
			_, _ = s.LastQuery()
		}()
	}
	wg.Wait()

	got, _ := s.SelectedSource()
	assert.Equal(t, "db", got)
}
