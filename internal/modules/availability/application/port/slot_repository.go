package port

import (
	"context"
	"errors"

	"mesaYaAvailability/internal/modules/availability/domain"
	"mesaYaAvailability/internal/shared/auth"
)

var (
	ErrSlotsForbidden   = errors.New("availability access forbidden")
	ErrSlotsNotFound    = errors.New("availability not found")
	ErrSlotsUnavailable = errors.New("availability backend unavailable")
)

// SlotRepository is the boundary to the platform backend that owns slot data.
// Every operation is scoped by the explicit session credential; implementations
// never read tokens from ambient state.
type SlotRepository interface {
	// FetchSlots returns the restaurant's current weekly mapping. A not-found or
	// empty response yields an empty mapping, not an error.
	FetchSlots(ctx context.Context, session auth.Session, restaurantID string) (domain.WeeklyAvailability, error)
	// SaveSlot persists one (day, range) pair. The change's identifier decides
	// create versus update semantics on the backend.
	SaveSlot(ctx context.Context, session auth.Session, restaurantID string, day domain.DayOfWeek, change domain.SlotChange) (domain.SlotRecord, error)
	// DeleteDaySlots removes every range configured for one day.
	DeleteDaySlots(ctx context.Context, session auth.Session, restaurantID string, day domain.DayOfWeek) error
	// DeleteSlot removes a single range by its identifier, regardless of day.
	DeleteSlot(ctx context.Context, session auth.Session, slotID string) error
}

// EventPublisher pushes availability messages to realtime subscribers.
type EventPublisher interface {
	Broadcast(ctx context.Context, msg *domain.Message)
}
