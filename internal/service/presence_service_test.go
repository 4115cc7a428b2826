package service

import (
	"context"
	"errors"
	"testing"

	"github.com/ptdat/roomledger/internal/models"
)

func TestGetMonthCreatesOwnCalendar(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	room := env.makeRoom(t, "alice", "bob")

	records, err := env.presence.GetMonth(ctx, "alice", room.ID, testMonth)
	if err != nil {
		t.Fatalf("GetMonth failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected only the caller's calendar, got %d records", len(records))
	}
	rec := records[0]
	if rec.UserID != "alice" {
		t.Errorf("Expected alice's calendar, got %s", rec.UserID)
	}
	if len(rec.Days) != 30 {
		t.Errorf("Expected 30 days, got %d", len(rec.Days))
	}
	for i, d := range rec.Days {
		if d != models.DayUndetermined {
			t.Fatalf("Expected day %d undetermined, got %v", i, d)
		}
	}

	// A second read does not create a duplicate.
	records, err = env.presence.GetMonth(ctx, "alice", room.ID, testMonth)
	if err != nil {
		t.Fatalf("GetMonth failed: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("Expected 1 record after repeat read, got %d", len(records))
	}

	// Bob's read creates his own row alongside alice's.
	records, err = env.presence.GetMonth(ctx, "bob", room.ID, testMonth)
	if err != nil {
		t.Fatalf("GetMonth failed: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("Expected 2 records, got %d", len(records))
	}

	if _, err := env.presence.GetMonth(ctx, "mallory", room.ID, testMonth); !errors.Is(err, ErrNotRoomMember) {
		t.Errorf("Expected ErrNotRoomMember, got %v", err)
	}
	if _, err := env.presence.GetMonth(ctx, "alice", room.ID, "June 2024"); err == nil {
		t.Error("Expected error for malformed month")
	}
}

func TestSetDay(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	room := env.makeRoom(t, "alice")

	rec, err := env.presence.SetDay(ctx, "alice", room.ID, testMonth, 4, models.DayPresent)
	if err != nil {
		t.Fatalf("SetDay failed: %v", err)
	}
	if rec.Days[4] != models.DayPresent {
		t.Errorf("Expected day 4 present, got %v", rec.Days[4])
	}

	// Absolute writes are idempotent.
	rec, err = env.presence.SetDay(ctx, "alice", room.ID, testMonth, 4, models.DayPresent)
	if err != nil {
		t.Fatalf("Repeated SetDay failed: %v", err)
	}
	if rec.Days[4] != models.DayPresent {
		t.Errorf("Expected day 4 still present, got %v", rec.Days[4])
	}

	if _, err := env.presence.SetDay(ctx, "alice", room.ID, testMonth, 30, models.DayAbsent); !errors.Is(err, ErrInvalidDay) {
		t.Errorf("Expected ErrInvalidDay for out-of-range index, got %v", err)
	}
	if _, err := env.presence.SetDay(ctx, "alice", room.ID, testMonth, -1, models.DayAbsent); !errors.Is(err, ErrInvalidDay) {
		t.Errorf("Expected ErrInvalidDay for negative index, got %v", err)
	}
	if _, err := env.presence.SetDay(ctx, "alice", room.ID, testMonth, 2, models.DayStatus(9)); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("Expected ErrInvalidStatus, got %v", err)
	}
	if _, err := env.presence.SetDay(ctx, "mallory", room.ID, testMonth, 2, models.DayAbsent); !errors.Is(err, ErrNotRoomMember) {
		t.Errorf("Expected ErrNotRoomMember, got %v", err)
	}
}

func TestToggleDay(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	room := env.makeRoom(t, "alice")

	want := []models.DayStatus{models.DayPresent, models.DayAbsent, models.DayUndetermined, models.DayPresent}
	for i, expected := range want {
		rec, err := env.presence.ToggleDay(ctx, "alice", room.ID, testMonth, 0)
		if err != nil {
			t.Fatalf("ToggleDay #%d failed: %v", i+1, err)
		}
		if rec.Days[0] != expected {
			t.Errorf("Toggle #%d: expected %v, got %v", i+1, expected, rec.Days[0])
		}
	}

	// Other days are untouched by the cycle.
	records, err := env.presence.GetMonth(ctx, "alice", room.ID, testMonth)
	if err != nil {
		t.Fatalf("GetMonth failed: %v", err)
	}
	if records[0].Days[1] != models.DayUndetermined {
		t.Errorf("Expected day 1 undetermined, got %v", records[0].Days[1])
	}
}

func TestPresenceWritesFeedAllocation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	room := env.makeRoom(t, "alice", "bob")

	inv, err := env.invoices.CreateInvoice(ctx, "alice", CreateInvoiceInput{
		RoomID:       room.ID,
		Title:        "Electricity",
		Amount:       300000,
		Type:         models.InvoiceUtility,
		MonthApplied: testMonth,
		ApplyTo:      []string{"alice", "bob"},
	})
	if err != nil {
		t.Fatalf("CreateInvoice failed: %v", err)
	}

	// Everyone determines every day: alice 20 present, bob 10 present.
	env.fillMonth(t, room.ID, "alice", testMonth, 20)
	env.fillMonth(t, room.ID, "bob", testMonth, 10)

	p, err := env.invoices.GetInvoice(ctx, "alice", inv.ID)
	if err != nil {
		t.Fatalf("GetInvoice failed: %v", err)
	}
	if !p.IsPayable {
		t.Error("Expected payable allocation with complete calendars")
	}
	if p.PersonalAmount != 200000 {
		t.Errorf("Expected alice's share 200000, got %v", p.PersonalAmount)
	}

	// Reverting one of alice's days to undetermined blocks collection again.
	if _, err := env.presence.SetDay(ctx, "alice", room.ID, testMonth, 0, models.DayUndetermined); err != nil {
		t.Fatalf("SetDay failed: %v", err)
	}
	p, err = env.invoices.GetInvoice(ctx, "alice", inv.ID)
	if err != nil {
		t.Fatalf("GetInvoice failed: %v", err)
	}
	if p.IsPayable {
		t.Error("Expected unpayable allocation after undetermined day returned")
	}
}
