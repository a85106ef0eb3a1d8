// Package testutil provides shared test helpers for setting up snapshot
// stores and databases.
package testutil

import (
	"os"
	"testing"

	"github.com/starford/raido/internal/index"
	"github.com/starford/raido/internal/snapshot"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "raido-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestSnapshots creates a temporary snapshot directory with an FS provider.
func TestSnapshots(t *testing.T) (string, *snapshot.FS) {
	t.Helper()
	dir := t.TempDir()
	store, err := snapshot.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}
