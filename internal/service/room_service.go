package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ptdat/roomledger/internal/cache"
	"github.com/ptdat/roomledger/internal/models"
	"github.com/ptdat/roomledger/internal/storage"
)

const defaultMaxMembers = 8

// RoomService manages rooms and memberships.
type RoomService struct {
	store storage.Store
	views cache.Cache
}

// NewRoomService creates a new room service.
func NewRoomService(store storage.Store, views cache.Cache) *RoomService {
	return &RoomService{store: store, views: views}
}

// CreateRoom creates a room with the creator as its admin.
func (s *RoomService) CreateRoom(ctx context.Context, creatorID, name string, maxMembers int) (*models.Room, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: room name must not be empty", ErrValidation)
	}
	if maxMembers <= 0 {
		maxMembers = defaultMaxMembers
	}

	room := &models.Room{Name: name, MaxMembers: maxMembers}
	if err := s.store.CreateRoom(ctx, room, creatorID); err != nil {
		slog.Error("CreateRoom failed", "creator", creatorID, "error", err)
		return nil, err
	}

	slog.Info("Room created", "room_id", room.ID, "creator", creatorID)
	return s.store.GetRoom(ctx, room.ID)
}

// GetRoom returns the room with members. Only members may view a room.
func (s *RoomService) GetRoom(ctx context.Context, callerID, roomID string) (*models.Room, error) {
	if _, err := s.membership(ctx, roomID, callerID); err != nil {
		return nil, err
	}
	return s.store.GetRoom(ctx, roomID)
}

// Join adds the caller to the room as a plain member, enforcing the
// max-member cap.
func (s *RoomService) Join(ctx context.Context, userID, roomID string) error {
	room, err := s.store.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}

	if _, err := s.store.GetMembership(ctx, roomID, userID); err == nil {
		return ErrAlreadyMember
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	if len(room.Members) >= room.MaxMembers {
		return ErrRoomFull
	}

	m := &models.Membership{RoomID: roomID, UserID: userID, Role: models.RoleMember}
	if err := s.store.AddMember(ctx, m); err != nil {
		return err
	}

	slog.Info("Member joined", "room_id", roomID, "user_id", userID)
	return nil
}

// Leave removes the caller's own membership.
func (s *RoomService) Leave(ctx context.Context, userID, roomID string) error {
	if err := s.store.RemoveMember(ctx, roomID, userID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotRoomMember
		}
		return err
	}
	slog.Info("Member left", "room_id", roomID, "user_id", userID)
	return nil
}

// Kick removes another member. The caller needs kick permission and must
// strictly outrank the target.
func (s *RoomService) Kick(ctx context.Context, callerID, roomID, targetID string) error {
	caller, err := s.membership(ctx, roomID, callerID)
	if err != nil {
		return err
	}
	target, err := s.store.GetMembership(ctx, roomID, targetID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotRoomMember
		}
		return err
	}

	if !models.HasPermission(models.ActionKickMember, caller.Role) || !caller.Role.Above(target.Role) {
		return ErrPermissionDenied
	}

	if err := s.store.RemoveMember(ctx, roomID, targetID); err != nil {
		return err
	}
	slog.Info("Member kicked", "room_id", roomID, "user_id", targetID, "by", callerID)
	return nil
}

// ChangeRole sets another member's role. Admin only.
func (s *RoomService) ChangeRole(ctx context.Context, callerID, roomID, targetID string, role models.Role) error {
	caller, err := s.membership(ctx, roomID, callerID)
	if err != nil {
		return err
	}
	if !models.HasPermission(models.ActionChangeRole, caller.Role) {
		return ErrPermissionDenied
	}
	if !role.Valid() {
		return fmt.Errorf("%w: invalid role %q", ErrValidation, role)
	}

	if err := s.store.UpdateMemberRole(ctx, roomID, targetID, role); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotRoomMember
		}
		return err
	}
	slog.Info("Role changed", "room_id", roomID, "user_id", targetID, "role", role, "by", callerID)
	return nil
}

// DeleteRoom removes the room. Memberships, invoices, and presence records
// cascade with it. Admin only.
func (s *RoomService) DeleteRoom(ctx context.Context, callerID, roomID string) error {
	caller, err := s.membership(ctx, roomID, callerID)
	if err != nil {
		return err
	}
	if !models.HasPermission(models.ActionDeleteRoom, caller.Role) {
		return ErrPermissionDenied
	}

	if err := s.store.DeleteRoom(ctx, roomID); err != nil {
		return err
	}
	s.views.InvalidateRoom(ctx, roomID)

	slog.Info("Room deleted", "room_id", roomID, "by", callerID)
	return nil
}

// membership loads the caller's membership, mapping absence to
// ErrNotRoomMember.
func (s *RoomService) membership(ctx context.Context, roomID, userID string) (*models.Membership, error) {
	m, err := s.store.GetMembership(ctx, roomID, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotRoomMember
		}
		return nil, err
	}
	return m, nil
}
