package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ptdat/roomledger/internal/cache"
	"github.com/ptdat/roomledger/internal/models"
	"github.com/ptdat/roomledger/internal/notify"
	"github.com/ptdat/roomledger/internal/storage/sqlite"
)

// testEnv wires the services against a temp-file SQLite store, an in-memory
// cache, and a no-op notifier.
type testEnv struct {
	store    *sqlite.SQLiteStore
	rooms    *RoomService
	invoices *InvoiceService
	presence *PresenceService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "roomledger-svc-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := sqlite.New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	views := cache.NewMemory()
	notifier := notify.NopNotifier{}

	return &testEnv{
		store:    store,
		rooms:    NewRoomService(store, views),
		invoices: NewInvoiceService(store, views, notifier),
		presence: NewPresenceService(store, views, notifier),
	}
}

// makeRoom creates a room with the given creator and joins the extra members.
func (e *testEnv) makeRoom(t *testing.T, creatorID string, memberIDs ...string) *models.Room {
	t.Helper()

	room, err := e.rooms.CreateRoom(context.Background(), creatorID, "Test Flat", 8)
	if err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}
	for _, id := range memberIDs {
		if err := e.rooms.Join(context.Background(), id, room.ID); err != nil {
			t.Fatalf("Join(%s) failed: %v", id, err)
		}
	}
	return room
}

// fillMonth writes a fully determined calendar for a member: `present`
// present days, the rest absent.
func (e *testEnv) fillMonth(t *testing.T, roomID, userID, month string, present int) {
	t.Helper()
	ctx := context.Background()

	days, err := models.DaysInMonth(month)
	if err != nil {
		t.Fatalf("DaysInMonth failed: %v", err)
	}
	rec := models.NewMonthPresence(roomID, userID, month, days)
	for i := range rec.Days {
		if i < present {
			rec.Days[i] = models.DayPresent
		} else {
			rec.Days[i] = models.DayAbsent
		}
	}
	if err := e.store.UpsertMonthPresence(ctx, rec); err != nil {
		t.Fatalf("UpsertMonthPresence failed: %v", err)
	}
}
