package sqlite

import (
	"context"
	"testing"

	"go.uber.org/zap/zaptest"

	"luxvision/store/sqlite/migrations"
)

// NewTestStore returns a migrated in-memory store closed at the end of the test.
func NewTestStore(t testing.TB) *SqlStore {
	t.Helper()

	log := zaptest.NewLogger(t)
	store, err := NewSqlStore(InmemPath, log)
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if err := NewMigrator(store, log).Up(context.Background(), migrations.AllUp); err != nil {
		t.Fatalf("failed to migrate test store: %v", err)
	}
	return store
}
