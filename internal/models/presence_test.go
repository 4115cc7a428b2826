package models

import "testing"

func TestDayStatusToggleCycle(t *testing.T) {
	// UNDETERMINED -> PRESENT -> ABSENT -> UNDETERMINED; three toggles
	// return any day to its original value.
	for _, start := range []DayStatus{DayUndetermined, DayPresent, DayAbsent} {
		got := start.Next().Next().Next()
		if got != start {
			t.Errorf("three toggles from %v ended at %v", start, got)
		}
	}

	if DayUndetermined.Next() != DayPresent {
		t.Error("undetermined must toggle to present first")
	}
	if DayPresent.Next() != DayAbsent {
		t.Error("present must toggle to absent")
	}
	if DayAbsent.Next() != DayUndetermined {
		t.Error("absent must toggle back to undetermined")
	}
}

func TestCountedDays(t *testing.T) {
	rec := NewMonthPresence("room-1", "u1", "2024-02", 29)
	if len(rec.Days) != 29 {
		t.Fatalf("len(Days) = %d, want 29", len(rec.Days))
	}

	// A fresh calendar is all undetermined: every day counts, none trusted.
	days, undetermined := rec.CountedDays()
	if days != 29 || !undetermined {
		t.Errorf("fresh calendar: days=%d undetermined=%v, want 29/true", days, undetermined)
	}

	for i := range rec.Days {
		rec.Days[i] = DayAbsent
	}
	rec.Days[0] = DayPresent
	rec.Days[1] = DayPresent

	days, undetermined = rec.CountedDays()
	if days != 2 || undetermined {
		t.Errorf("determined calendar: days=%d undetermined=%v, want 2/false", days, undetermined)
	}
}

func TestDaysInMonth(t *testing.T) {
	tests := []struct {
		month   string
		want    int
		wantErr bool
	}{
		{"2024-01", 31, false},
		{"2024-02", 29, false}, // leap year
		{"2023-02", 28, false},
		{"2024-04", 30, false},
		{"2024-13", 0, true},
		{"2024-00", 0, true},
		{"24-01", 0, true},
		{"2024/01", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := DaysInMonth(tt.month)
		if tt.wantErr {
			if err == nil {
				t.Errorf("DaysInMonth(%q): expected error", tt.month)
			}
			continue
		}
		if err != nil {
			t.Errorf("DaysInMonth(%q) failed: %v", tt.month, err)
			continue
		}
		if got != tt.want {
			t.Errorf("DaysInMonth(%q) = %d, want %d", tt.month, got, tt.want)
		}
	}
}

func TestHasPermission(t *testing.T) {
	tests := []struct {
		action Action
		role   Role
		want   bool
	}{
		{ActionDeleteRoom, RoleAdmin, true},
		{ActionDeleteRoom, RoleModerator, false},
		{ActionChangeRole, RoleModerator, false},
		{ActionKickMember, RoleModerator, true},
		{ActionKickMember, RoleMember, false},
		{ActionDeleteInvoice, RoleAdmin, true},
		{ActionDeleteInvoice, RoleMember, false},
		{Action("unknown"), RoleAdmin, false},
	}

	for _, tt := range tests {
		if got := HasPermission(tt.action, tt.role); got != tt.want {
			t.Errorf("HasPermission(%s, %s) = %v, want %v", tt.action, tt.role, got, tt.want)
		}
	}
}
