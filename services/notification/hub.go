package notification

import (
	"context"
	"encoding/json"
	"sync"

	"bookingpay/models"

	"go.uber.org/zap"
)

// Hub tracks live websocket connections per actor and pushes booking events to them.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	logger     *zap.Logger

	mu      sync.RWMutex
	clients map[string]map[*Client]bool
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
		clients:    make(map[string]map[*Client]bool),
	}
}

// Run processes registrations until ctx ends, then closes every connection.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.actorID] == nil {
				h.clients[client.actorID] = make(map[*Client]bool)
			}
			h.clients[client.actorID][client] = true
			h.mu.Unlock()
			h.logger.Debug("Websocket client registered", zap.String("actorId", client.actorID))

		case client := <-h.unregister:
			h.remove(client)
			h.logger.Debug("Websocket client unregistered", zap.String("actorId", client.actorID))

		case <-ctx.Done():
			h.mu.Lock()
			for actorID, set := range h.clients {
				for client := range set {
					close(client.send)
				}
				delete(h.clients, actorID)
			}
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[client.actorID]
	if !ok || !set[client] {
		return
	}
	delete(set, client)
	close(client.send)
	if len(set) == 0 {
		delete(h.clients, client.actorID)
	}
}

// Connected reports how many live connections an actor has.
func (h *Hub) Connected(actorID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[actorID])
}

func (h *Hub) Name() string { return "websocket" }

// Deliver writes the event to every live connection of both parties. Slow clients are dropped.
func (h *Hub) Deliver(_ context.Context, event models.BookingEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	var slow []*Client
	h.mu.RLock()
	for _, actorID := range event.Recipients() {
		for client := range h.clients[actorID] {
			select {
			case client.send <- data:
			default:
				slow = append(slow, client)
			}
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		h.logger.Warn("Websocket client too slow, disconnecting", zap.String("actorId", client.actorID))
		h.remove(client)
	}
	return nil
}
