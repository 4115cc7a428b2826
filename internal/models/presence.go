package models

import "fmt"

// DayStatus is the tri-state attendance flag for a single day.
//
// Undetermined is a real state, not a missing value: allocation treats an
// undetermined day as provisionally present when sizing the day pool, while
// its mere existence blocks payability. Keep it a closed enum, never collapse
// it into a boolean pair.
type DayStatus int

const (
	DayUndetermined DayStatus = iota
	DayPresent
	DayAbsent
)

// Valid reports whether s is one of the three known states.
func (s DayStatus) Valid() bool {
	return s == DayUndetermined || s == DayPresent || s == DayAbsent
}

// Next returns the state a toggle action moves to. The cycle order
// UNDETERMINED -> PRESENT -> ABSENT -> UNDETERMINED is part of the UI
// contract: a tap on a blank day marks it present first.
func (s DayStatus) Next() DayStatus {
	switch s {
	case DayUndetermined:
		return DayPresent
	case DayPresent:
		return DayAbsent
	default:
		return DayUndetermined
	}
}

// ParseDayStatus converts the wire representation back to a DayStatus.
func ParseDayStatus(s string) (DayStatus, error) {
	switch s {
	case "present":
		return DayPresent, nil
	case "absent":
		return DayAbsent, nil
	case "undetermined":
		return DayUndetermined, nil
	default:
		return DayUndetermined, fmt.Errorf("unknown day status %q", s)
	}
}

func (s DayStatus) String() string {
	switch s {
	case DayPresent:
		return "present"
	case DayAbsent:
		return "absent"
	default:
		return "undetermined"
	}
}

// MonthPresence is one member's attendance calendar for one month.
// Exactly one exists per (room, user, month); it is created lazily on first
// touch with every day undetermined, and only the owning user may write it.
type MonthPresence struct {
	RoomID string `json:"room_id"`
	UserID string `json:"user_id"`

	// Month is the YYYY-MM key this calendar covers.
	Month string `json:"month"`

	// Days holds one status per day of the month, index 0 = the 1st.
	// Invariant: len(Days) equals the month's true day count.
	Days []DayStatus `json:"days"`

	// UpdatedAt is the Unix timestamp of the last day write.
	UpdatedAt int64 `json:"updated_at"`
}

// NewMonthPresence creates a blank calendar with every day undetermined.
func NewMonthPresence(roomID, userID, month string, dayCount int) *MonthPresence {
	return &MonthPresence{
		RoomID: roomID,
		UserID: userID,
		Month:  month,
		Days:   make([]DayStatus, dayCount),
	}
}

// CountedDays returns the number of days that count toward the allocation
// day pool (present plus undetermined) and whether any day is undetermined.
func (p *MonthPresence) CountedDays() (days int, undetermined bool) {
	for _, d := range p.Days {
		switch d {
		case DayPresent:
			days++
		case DayUndetermined:
			days++
			undetermined = true
		}
	}
	return days, undetermined
}
