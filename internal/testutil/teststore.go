package testutil

import (
	"testing"

	"estuda/internal/store"
)

// NewTestStore creates an in-memory SQLite store with migrations applied.
// The store is closed when the test completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})
	return s
}
