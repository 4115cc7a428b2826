package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ptdat/roomledger/internal/cache"
	"github.com/ptdat/roomledger/internal/models"
	"github.com/ptdat/roomledger/internal/notify"
	"github.com/ptdat/roomledger/internal/storage"
)

// PresenceService manages per-member attendance calendars.
type PresenceService struct {
	store    storage.Store
	views    cache.Cache
	notifier notify.Notifier
}

// NewPresenceService creates a new presence service.
func NewPresenceService(store storage.Store, views cache.Cache, notifier notify.Notifier) *PresenceService {
	return &PresenceService{store: store, views: views, notifier: notifier}
}

// GetMonth returns every member's presence row for the month. The caller's
// own row is created blank on first touch, so the caller always gets a
// calendar back; other members' rows may still be missing, which is exactly
// the incomplete-data condition the allocation engine tolerates.
func (s *PresenceService) GetMonth(ctx context.Context, callerID, roomID, month string) ([]*models.MonthPresence, error) {
	dayCount, err := models.DaysInMonth(month)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if _, err := s.store.GetMembership(ctx, roomID, callerID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotRoomMember
		}
		return nil, err
	}

	records, err := s.store.GetMonthPresence(ctx, roomID, month)
	if err != nil {
		return nil, err
	}

	for _, rec := range records {
		if rec.UserID == callerID {
			return records, nil
		}
	}

	// First touch creates a blank calendar for the caller.
	blank := models.NewMonthPresence(roomID, callerID, month, dayCount)
	if err := s.store.UpsertMonthPresence(ctx, blank); err != nil {
		return nil, err
	}
	slog.Debug("Created blank presence calendar", "room_id", roomID, "user_id", callerID, "month", month)
	return append(records, blank), nil
}

// SetDay writes one day of the caller's own calendar. The write is an
// absolute upsert, so resending it is safe.
func (s *PresenceService) SetDay(ctx context.Context, callerID, roomID, month string, dayIndex int, status models.DayStatus) (*models.MonthPresence, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	rec, err := s.loadOwnCalendar(ctx, callerID, roomID, month, dayIndex)
	if err != nil {
		return nil, err
	}

	rec.Days[dayIndex] = status
	return s.saveOwnCalendar(ctx, rec)
}

// ToggleDay cycles one day of the caller's own calendar through
// UNDETERMINED -> PRESENT -> ABSENT -> UNDETERMINED.
func (s *PresenceService) ToggleDay(ctx context.Context, callerID, roomID, month string, dayIndex int) (*models.MonthPresence, error) {
	rec, err := s.loadOwnCalendar(ctx, callerID, roomID, month, dayIndex)
	if err != nil {
		return nil, err
	}

	rec.Days[dayIndex] = rec.Days[dayIndex].Next()
	return s.saveOwnCalendar(ctx, rec)
}

// loadOwnCalendar validates the coordinates and returns the caller's row,
// creating a blank one if they never touched the month.
func (s *PresenceService) loadOwnCalendar(ctx context.Context, callerID, roomID, month string, dayIndex int) (*models.MonthPresence, error) {
	dayCount, err := models.DaysInMonth(month)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if dayIndex < 0 || dayIndex >= dayCount {
		return nil, ErrInvalidDay
	}
	if _, err := s.store.GetMembership(ctx, roomID, callerID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotRoomMember
		}
		return nil, err
	}

	rec, err := s.store.GetMemberPresence(ctx, roomID, callerID, month)
	if errors.Is(err, storage.ErrNotFound) {
		return models.NewMonthPresence(roomID, callerID, month, dayCount), nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *PresenceService) saveOwnCalendar(ctx context.Context, rec *models.MonthPresence) (*models.MonthPresence, error) {
	rec.UpdatedAt = time.Now().Unix()
	if err := s.store.UpsertMonthPresence(ctx, rec); err != nil {
		return nil, err
	}

	// Presence feeds presence-weighted shares, so cached invoice views for
	// the room are stale now.
	s.views.InvalidateRoom(ctx, rec.RoomID)
	s.notifier.Notify(ctx, notify.Event{
		Type:   notify.EventPresenceUpdated,
		RoomID: rec.RoomID,
		UserID: rec.UserID,
	})

	return rec, nil
}
