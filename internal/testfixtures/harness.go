package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/room-booking/internal/persistence/memory"
	"github.com/example/room-booking/internal/persistence/sqlite"
	"github.com/example/room-booking/internal/persistence/sqlite/migration"
	"github.com/example/room-booking/internal/storage"
)

// StoreHarness exposes one storage backend both as raw persistence repositories and through
// the application facing adapters.
type StoreHarness struct {
	Name    string
	Backend storage.Backend
	Repos   storage.Repositories
}

// NewSQLiteHarness opens a migrated SQLite database in a temporary directory. The database
// is closed when the test ends.
func NewSQLiteHarness(tb testing.TB) *StoreHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "roombooking.db")
	store, err := sqlite.OpenWithConfig(context.Background(), migration.TempFileTestSQLiteConfig(path), nil)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}
	tb.Cleanup(func() { _ = store.Close() })

	if err := store.Migrate(context.Background()); err != nil {
		tb.Fatalf("failed to migrate storage: %v", err)
	}
	return &StoreHarness{Name: "sqlite", Backend: store, Repos: storage.New(store)}
}

// NewMemoryHarness returns an empty in-memory store.
func NewMemoryHarness(tb testing.TB) *StoreHarness {
	tb.Helper()
	store := memory.New()
	tb.Cleanup(func() { _ = store.Close() })
	return &StoreHarness{Name: "memory", Backend: store, Repos: storage.New(store)}
}

// EachStore runs fn as a subtest against every storage backend.
func EachStore(t *testing.T, fn func(t *testing.T, h *StoreHarness)) {
	t.Helper()
	for _, open := range []func(testing.TB) *StoreHarness{NewSQLiteHarness, NewMemoryHarness} {
		h := open(t)
		t.Run(h.Name, func(t *testing.T) { fn(t, h) })
	}
}

// SeedRooms stores the given rooms, failing the test on error.
func (h *StoreHarness) SeedRooms(tb testing.TB, rooms ...RoomFixture) {
	tb.Helper()
	for _, room := range rooms {
		if err := h.Backend.CreateRoom(context.Background(), room.Persistence()); err != nil {
			tb.Fatalf("seed room %s: %v", room.ID, err)
		}
	}
}

// SeedRequests stores the given requests with their occurrences.
func (h *StoreHarness) SeedRequests(tb testing.TB, requests ...RequestFixture) {
	tb.Helper()
	for _, req := range requests {
		if err := h.Backend.CreateRequest(context.Background(), req.Persistence()); err != nil {
			tb.Fatalf("seed request %s: %v", req.ID, err)
		}
	}
}
