package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/dukerupert/shiftline/internal/model"
)

const (
	TypeShiftSaved   = "shift_saved"
	TypeShiftDeleted = "shift_deleted"
	TypeDayRollover  = "day_rollover"
)

// Message is a sync notification pushed to browser sessions. Date scopes the
// message to sessions viewing that day; an empty Date reaches everyone.
type Message struct {
	Type    string         `json:"type"`
	ShiftID string         `json:"shift_id,omitempty"`
	OwnerID string         `json:"owner_id,omitempty"`
	Date    string         `json:"date,omitempty"`
	Extra   map[string]any `json:"extra,omitempty"`
}

// ShiftMessage describes a change to s. Recurring shifts touch every date, so
// the message is not date-scoped.
func ShiftMessage(typ string, s model.Shift) Message {
	msg := Message{Type: typ, ShiftID: s.ID, OwnerID: s.OwnerID()}
	if !s.IsRecurring && !s.ShiftDate.IsZero() {
		msg.Date = s.ShiftDate.Format("2006-01-02")
	}
	return msg
}

// DayRollover tells sessions the current day is now date; open dirty buffers
// are to be discarded and views refetched.
func DayRollover(date string) Message {
	return Message{Type: TypeDayRollover, Extra: map[string]any{"today": date}}
}

// Hub maintains the set of active WebSocket clients and broadcasts messages.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Broadcast sends msg to every client watching msg.Date, or to all clients
// when msg.Date is empty. Clients with a full buffer miss the message.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	dropped := 0
	for c := range h.clients {
		if !c.wants(msg.Date) {
			continue
		}
		select {
		case c.send <- data:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		h.logger.Warn("dropped broadcast", "type", msg.Type, "clients", dropped)
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
