package infrastructure

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"

	"mesaYaAvailability/internal/modules/availability/application/port"
	"mesaYaAvailability/internal/modules/availability/domain"
)

// Hub fans availability messages out to the console sessions watching each
// restaurant. Clients subscribe per restaurant; a message targets the
// restaurant named in its envelope.
type Hub struct {
	restaurants map[string]map[*Client]struct{}
	mu          sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{restaurants: make(map[string]map[*Client]struct{})}
}

func (h *Hub) attach(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.restaurants[c.restaurantID] == nil {
		h.restaurants[c.restaurantID] = make(map[*Client]struct{})
	}
	h.restaurants[c.restaurantID][c] = struct{}{}
	slog.Info("ws client attached", slog.String("userId", c.userID), slog.String("restaurantId", c.restaurantID))
}

func (h *Hub) detach(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs, ok := h.restaurants[c.restaurantID]; ok {
		delete(subs, c)
		if len(subs) == 0 {
			delete(h.restaurants, c.restaurantID)
		}
	}
	c.close()
	slog.Info("ws client detached", slog.String("userId", c.userID), slog.String("restaurantId", c.restaurantID))
}

// Broadcast delivers the message to every client watching its restaurant. Slow
// clients are detached rather than blocking the publisher.
func (h *Hub) Broadcast(_ context.Context, msg *domain.Message) {
	if msg == nil {
		return
	}
	restaurant := strings.TrimSpace(msg.RestaurantID)
	if restaurant == "" && msg.Metadata != nil {
		restaurant = strings.TrimSpace(msg.Metadata["restaurantId"])
	}
	if restaurant == "" {
		return
	}

	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("broadcast marshal error", slog.Any("error", err))
		return
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.restaurants[restaurant]))
	for c := range h.restaurants[restaurant] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		select {
		case c.send <- data:
		default:
			slog.Warn("ws send buffer full", slog.String("userId", c.userID), slog.String("restaurantId", c.restaurantID))
			go h.detach(c)
		}
	}
}

var _ port.EventPublisher = (*Hub)(nil)
