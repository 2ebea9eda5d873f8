package handlers

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/hoanghai1803/sportsignup/internal/service"
	"github.com/hoanghai1803/sportsignup/internal/storage"
)

// testServices bundles the services a handler test needs over one
// in-memory database.
type testServices struct {
	store *storage.Store
	creds *service.Credentials
	prefs *service.Preferences
	reg   *service.Registrar
}

// newTestServices creates an in-memory SQLite store with migrations applied
// and wires the services at the cheapest bcrypt cost. It registers a cleanup
// function to close the database when the test completes.
func newTestServices(t *testing.T) *testServices {
	t.Helper()

	db, err := storage.OpenDatabase(":memory:", 0)
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := storage.RunMigrations(db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	return wireServices(t, storage.NewStore(db))
}

// newLockedTestServices wires the services over a database file whose write
// lock is held by another connection until the test ends.
func newLockedTestServices(t *testing.T) *testServices {
	t.Helper()

	path := filepath.Join(t.TempDir(), "sports_app.db")
	holder, err := storage.OpenDatabase(path, time.Second)
	if err != nil {
		t.Fatalf("opening holder db: %v", err)
	}
	t.Cleanup(func() { holder.Close() })
	if err := storage.RunMigrations(holder); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	tx, err := holder.BeginTx(context.Background(), nil)
	if err != nil {
		t.Fatalf("beginning holder transaction: %v", err)
	}
	t.Cleanup(func() { _ = tx.Rollback() })
	if _, err := tx.Exec("INSERT INTO users (username, password) VALUES (?, ?)", "holder", "hash"); err != nil {
		t.Fatalf("writing under holder transaction: %v", err)
	}

	db, err := storage.OpenDatabase(path, 100*time.Millisecond)
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return wireServices(t, storage.NewStore(db))
}

func wireServices(t *testing.T, store *storage.Store) *testServices {
	t.Helper()

	creds, err := service.NewCredentials(store, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("creating credentials: %v", err)
	}

	return &testServices{
		store: store,
		creds: creds,
		prefs: service.NewPreferences(store),
		reg:   service.NewRegistrar(store, creds),
	}
}
