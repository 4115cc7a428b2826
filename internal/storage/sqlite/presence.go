package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/ptdat/roomledger/internal/models"
	"github.com/ptdat/roomledger/internal/storage"
)

// Day arrays are stored as one character per day: 'u' undetermined,
// 'p' present, 'a' absent. The column length always equals the month's
// day count.

func encodeDays(days []models.DayStatus) string {
	var b strings.Builder
	b.Grow(len(days))
	for _, d := range days {
		switch d {
		case models.DayPresent:
			b.WriteByte('p')
		case models.DayAbsent:
			b.WriteByte('a')
		default:
			b.WriteByte('u')
		}
	}
	return b.String()
}

func decodeDays(encoded string) ([]models.DayStatus, error) {
	days := make([]models.DayStatus, len(encoded))
	for i := 0; i < len(encoded); i++ {
		switch encoded[i] {
		case 'p':
			days[i] = models.DayPresent
		case 'a':
			days[i] = models.DayAbsent
		case 'u':
			days[i] = models.DayUndetermined
		default:
			return nil, fmt.Errorf("invalid day marker %q at index %d", encoded[i], i)
		}
	}
	return days, nil
}

// GetMonthPresence retrieves all presence rows for a room and month.
func (s *SQLiteStore) GetMonthPresence(ctx context.Context, roomID, month string) ([]*models.MonthPresence, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT room_id, user_id, month, days, updated_at
		FROM month_presence
		WHERE room_id = ? AND month = ?
		ORDER BY user_id
	`, roomID, month)
	if err != nil {
		return nil, fmt.Errorf("failed to get month presence: %w", err)
	}
	defer rows.Close()

	var records []*models.MonthPresence
	for rows.Next() {
		rec, err := scanPresence(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate presence rows: %w", err)
	}

	return records, nil
}

// GetMemberPresence retrieves one member's row for a month.
func (s *SQLiteStore) GetMemberPresence(ctx context.Context, roomID, userID, month string) (*models.MonthPresence, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT room_id, user_id, month, days, updated_at
		FROM month_presence
		WHERE room_id = ? AND user_id = ? AND month = ?
	`, roomID, userID, month)

	rec, err := scanPresence(row)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// UpsertMonthPresence writes a member's full month calendar.
func (s *SQLiteStore) UpsertMonthPresence(ctx context.Context, rec *models.MonthPresence) error {
	if rec.UpdatedAt == 0 {
		rec.UpdatedAt = time.Now().Unix()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO month_presence (room_id, user_id, month, days, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (room_id, user_id, month)
		DO UPDATE SET days = excluded.days, updated_at = excluded.updated_at
	`, rec.RoomID, rec.UserID, rec.Month, encodeDays(rec.Days), rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert month presence: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPresence(row rowScanner) (*models.MonthPresence, error) {
	rec := &models.MonthPresence{}
	var encoded string
	if err := row.Scan(&rec.RoomID, &rec.UserID, &rec.Month, &encoded, &rec.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan presence row: %w", err)
	}
	days, err := decodeDays(encoded)
	if err != nil {
		return nil, fmt.Errorf("corrupt presence row for %s/%s/%s: %w", rec.RoomID, rec.UserID, rec.Month, err)
	}
	rec.Days = days
	return rec, nil
}
