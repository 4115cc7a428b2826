// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/ptdat/roomledger/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Store defines the interface for roomledger storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	// CreateUser persists a new user account.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail retrieves a user by email. Returns nil, nil when no
	// user exists (absence is an expected condition during registration).
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// CreateRoom persists a new room together with its creator's admin
	// membership in one transaction.
	CreateRoom(ctx context.Context, room *models.Room, creatorID string) error

	// GetRoom retrieves a room with its memberships loaded.
	GetRoom(ctx context.Context, roomID string) (*models.Room, error)

	// DeleteRoom removes a room and cascades memberships, invoices, and
	// presence records.
	DeleteRoom(ctx context.Context, roomID string) error

	// AddMember inserts a membership. The (room, user) pair is unique.
	AddMember(ctx context.Context, m *models.Membership) error

	// RemoveMember deletes a membership.
	RemoveMember(ctx context.Context, roomID, userID string) error

	// GetMembership retrieves one membership row.
	GetMembership(ctx context.Context, roomID, userID string) (*models.Membership, error)

	// UpdateMemberRole changes a member's role.
	UpdateMemberRole(ctx context.Context, roomID, userID string, role models.Role) error

	// CreateInvoice persists an invoice with its member list, split table,
	// and any seed payments.
	CreateInvoice(ctx context.Context, inv *models.Invoice) error

	// GetInvoice retrieves a complete invoice.
	GetInvoice(ctx context.Context, invoiceID string) (*models.Invoice, error)

	// ListRoomInvoices retrieves all invoices for a room, newest first.
	ListRoomInvoices(ctx context.Context, roomID string) ([]*models.Invoice, error)

	// DeleteInvoice removes an invoice and its dependent rows.
	DeleteInvoice(ctx context.Context, invoiceID string) error

	// UpsertPayment writes a payer's cumulative payment entry for an
	// invoice. The entry is keyed by (invoice, payer): writing the same
	// value twice is a no-op, and a concurrent double-write resolves to
	// last-write-wins.
	UpsertPayment(ctx context.Context, invoiceID string, p models.Payment) error

	// GetMonthPresence retrieves all presence rows for a room and month.
	// Members who never touched the month have no row.
	GetMonthPresence(ctx context.Context, roomID, month string) ([]*models.MonthPresence, error)

	// GetMemberPresence retrieves one member's row for a month, or
	// ErrNotFound if they have none yet.
	GetMemberPresence(ctx context.Context, roomID, userID, month string) (*models.MonthPresence, error)

	// UpsertMonthPresence writes a member's full month calendar, keyed by
	// (room, user, month).
	UpsertMonthPresence(ctx context.Context, rec *models.MonthPresence) error

	// Close releases any resources held by the store.
	Close() error
}
