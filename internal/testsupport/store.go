package testsupport

import (
	"context"
	"testing"

	"ndump/internal/config"
	"ndump/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewItem enqueues a dump for tests using the provided store.
func NewItem(t testing.TB, store *queue.Store, sourcePath, stagedPath, displayName, sha1 string, size int64) *queue.Item {
	t.Helper()

	item, err := store.NewItem(context.Background(), sourcePath, stagedPath, displayName, sha1, size)
	if err != nil {
		t.Fatalf("store.NewItem: %v", err)
	}
	return item
}
