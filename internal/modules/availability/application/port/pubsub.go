package port

import (
	"context"

	"mesaYaAvailability/internal/modules/availability/domain"
)

// TopicHandler processes realtime messages consumed from one broker topic.
type TopicHandler interface {
	Topic() string
	Handle(ctx context.Context, msg *domain.Message) error
}
