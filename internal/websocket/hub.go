package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/dukerupert/clubexpense/internal/ledger"
	"github.com/dukerupert/clubexpense/internal/metrics"
	"github.com/dukerupert/clubexpense/internal/model"
)

const (
	TypeSnapshot = "document_snapshot"
	TypeUpdated  = "document_updated"
)

// Message is pushed to every client after the document changes, and once
// to each new client on connect.
type Message struct {
	Type       string           `json:"type"`
	Action     string           `json:"action,omitempty"`
	ID         string           `json:"id,omitempty"`
	Document   model.Document   `json:"document"`
	Totals     map[string]int64 `json:"totals"`
	GrandTotal int64            `json:"grandTotal"`
}

// NewMessage builds a message carrying doc and its totals.
func NewMessage(typ, action, id string, doc model.Document) Message {
	s := ledger.Totals(doc)
	return Message{
		Type:       typ,
		Action:     action,
		ID:         id,
		Document:   doc,
		Totals:     s.Members,
		GrandTotal: s.GrandTotal,
	}
}

// Hub maintains the set of active WebSocket clients and broadcasts messages.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

// NewHub creates a new Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

// Follow broadcasts every change applied to book until the returned
// function is called.
func (h *Hub) Follow(book *ledger.Book) (stop func()) {
	return book.Subscribe(func(c ledger.Change) {
		h.Broadcast(NewMessage(TypeUpdated, c.Action, c.ID, c.Document))
	})
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	metrics.Subscribers.Inc()
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	if ok {
		metrics.Subscribers.Dec()
	}
}

// Broadcast sends a message to all connected clients.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		if !c.enqueue(data) {
			h.logger.Warn("dropping message for slow client", "type", msg.Type, "action", msg.Action)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
