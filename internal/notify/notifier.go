// Package notify delivers room lifecycle events to connected clients.
// Delivery is fire-and-forget: failures are logged and never block the
// mutation that triggered them.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/olahol/melody"
)

// Event kinds broadcast to a room's connected members.
const (
	EventInvoiceCreated  = "invoice_created"
	EventInvoiceUpdated  = "invoice_updated"
	EventInvoiceDeleted  = "invoice_deleted"
	EventPaymentApplied  = "payment_applied"
	EventPresenceUpdated = "presence_updated"
)

// Event is the JSON payload pushed over the room websocket.
type Event struct {
	Type      string `json:"type"`
	RoomID    string `json:"room_id"`
	InvoiceID string `json:"invoice_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	At        int64  `json:"at"`
}

// Notifier is how services announce room events. Implementations must never
// block or return an error into the mutating path.
type Notifier interface {
	Notify(ctx context.Context, event Event)
}

const sessionRoomKey = "room_id"

// Hub is a melody-backed Notifier broadcasting to websocket sessions
// subscribed to a room.
type Hub struct {
	m *melody.Melody
}

// NewHub creates the websocket hub.
func NewHub() *Hub {
	m := melody.New()
	m.Config.MaxMessageSize = 1024
	m.Config.PingPeriod = 30 * time.Second
	m.Config.PongWait = 60 * time.Second

	m.HandleDisconnect(func(s *melody.Session) {
		roomID, _ := s.Get(sessionRoomKey)
		slog.Debug("Websocket client disconnected", "room_id", roomID)
	})
	m.HandleError(func(s *melody.Session, err error) {
		slog.Warn("Websocket error", "error", err)
	})

	return &Hub{m: m}
}

// Subscribe upgrades an HTTP request to a websocket session bound to roomID.
func (h *Hub) Subscribe(w http.ResponseWriter, r *http.Request, roomID string) error {
	return h.m.HandleRequestWithKeys(w, r, map[string]interface{}{
		sessionRoomKey: roomID,
	})
}

// Notify broadcasts the event to every session subscribed to its room.
func (h *Hub) Notify(_ context.Context, event Event) {
	if event.At == 0 {
		event.At = time.Now().Unix()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		slog.Error("Failed to marshal event", "type", event.Type, "error", err)
		return
	}

	err = h.m.BroadcastFilter(payload, func(s *melody.Session) bool {
		roomID, exists := s.Get(sessionRoomKey)
		return exists && roomID == event.RoomID
	})
	if err != nil {
		slog.Warn("Failed to broadcast event", "type", event.Type, "room_id", event.RoomID, "error", err)
	}
}

// Close tears down all websocket sessions.
func (h *Hub) Close() error {
	return h.m.Close()
}

// NopNotifier discards events. Used in tests.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, Event) {}
