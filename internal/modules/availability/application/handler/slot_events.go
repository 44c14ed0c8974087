package handler

import (
	"context"
	"strings"

	"mesaYaAvailability/internal/modules/availability/application/port"
	"mesaYaAvailability/internal/modules/availability/domain"
)

// SlotStreamHandler reenvía eventos de horarios consumidos de Kafka a los
// clientes WebSocket. Other services mutate slots too (imports, admin tools),
// so the gateway mirrors their events instead of only its own edits.
type SlotStreamHandler struct {
	kafkaTopic     string
	allowedActions map[string]struct{}
	publisher      port.EventPublisher
}

func NewSlotStreamHandler(kafkaTopic string, allowedActions []string, publisher port.EventPublisher) *SlotStreamHandler {
	actionSet := make(map[string]struct{}, len(allowedActions))
	for _, a := range allowedActions {
		if v := strings.TrimSpace(strings.ToLower(a)); v != "" {
			actionSet[v] = struct{}{}
		}
	}
	return &SlotStreamHandler{
		kafkaTopic:     kafkaTopic,
		allowedActions: actionSet,
		publisher:      publisher,
	}
}

func (h *SlotStreamHandler) Topic() string { return h.kafkaTopic }

func (h *SlotStreamHandler) Handle(ctx context.Context, msg *domain.Message) error {
	if msg == nil {
		return nil
	}
	if len(h.allowedActions) > 0 {
		if _, ok := h.allowedActions[strings.ToLower(msg.Action)]; !ok {
			return nil
		}
	}
	if msg.Entity == "" {
		msg.Entity = domain.Entity
	}
	if msg.Topic == "" && msg.Action != "" {
		msg.Topic = domain.CustomTopic(msg.Action)
	}
	h.publisher.Broadcast(ctx, msg)
	return nil
}

var _ port.TopicHandler = (*SlotStreamHandler)(nil)
