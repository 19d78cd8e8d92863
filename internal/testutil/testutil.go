// Package testutil provides shared test helpers for setting up source trees
// and index databases.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/starford/inkwell/internal/index"
	"github.com/starford/inkwell/internal/storage"
)

// TestDB creates a temporary SQLite index that is automatically closed.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	db, err := index.Open(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestRoot creates a temporary root directory holding files, keyed by
// their "/"-separated relative path.
func TestRoot(t *testing.T, files map[string]string) *storage.FS {
	t.Helper()
	store, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for name, content := range files {
		if err := store.Write(name, []byte(content)); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return store
}
