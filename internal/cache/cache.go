// Package cache provides the room-view cache: personalized invoice lists are
// expensive to derive (every invoice needs presence data), so services cache
// the rendered view per (room, user) and invalidate the whole room on any
// mutation.
//
// The cache is an explicit handle passed through the call chain, never a
// package-level singleton, and keys are a typed struct rather than ad hoc
// strings.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Key identifies one cached view.
type Key struct {
	// RoomID scopes the entry; InvalidateRoom drops every key for a room.
	RoomID string

	// UserID scopes personalized views. Empty for room-wide views.
	UserID string

	// View names what is cached (e.g. "invoices").
	View string
}

// ViewInvoices is the personalized invoice list for one member.
const ViewInvoices = "invoices"

func (k Key) String() string {
	return fmt.Sprintf("room:%s:user:%s:%s", k.RoomID, k.UserID, k.View)
}

// Cache stores serialized room views with a TTL.
type Cache interface {
	// Get returns the cached value and whether it was present.
	Get(ctx context.Context, key Key) ([]byte, bool)

	// Set stores a value. A zero TTL uses the implementation default.
	Set(ctx context.Context, key Key, value []byte, ttl time.Duration)

	// InvalidateRoom drops every entry scoped to the room.
	InvalidateRoom(ctx context.Context, roomID string)

	// Close releases any resources held by the cache.
	Close() error
}

// New creates the room-view cache. With a Redis address it tries Redis first
// and falls back to the in-memory cache when the server is unreachable, so a
// missing Redis never blocks startup.
func New(ctx context.Context, redisAddr, redisPassword string) Cache {
	if redisAddr == "" {
		return NewMemory()
	}
	c, err := NewRedis(ctx, redisAddr, redisPassword)
	if err != nil {
		slog.Warn("Redis unavailable, falling back to in-memory room-view cache",
			"addr", redisAddr, "error", err)
		return NewMemory()
	}
	slog.Info("Using Redis room-view cache", "addr", redisAddr)
	return c
}
