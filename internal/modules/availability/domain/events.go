package domain

import (
	"strings"
	"time"
)

const (
	Entity = "availability"

	ActionSnapshot = "snapshot"
	ActionUpdated  = "updated"
	ActionDeleted  = "deleted"
	ActionError    = "error"
)

// Message is the realtime envelope pushed to websocket subscribers and decoded
// from the backend's kafka events.
type Message struct {
	Topic        string            `json:"topic"`
	Entity       string            `json:"entity"`
	Action       string            `json:"action"`
	RestaurantID string            `json:"restaurantId,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	Data         any               `json:"data,omitempty"`
	Timestamp    time.Time         `json:"timestamp"`
}

// SnapshotTopic returns the canonical snapshot topic.
func SnapshotTopic() string { return Entity + "." + ActionSnapshot }

// UpdatedTopic returns the canonical updated topic.
func UpdatedTopic() string { return Entity + "." + ActionUpdated }

// DeletedTopic returns the canonical deleted topic.
func DeletedTopic() string { return Entity + "." + ActionDeleted }

// CustomTopic returns the canonical topic for an arbitrary action.
func CustomTopic(action string) string {
	cleaned := strings.TrimSpace(action)
	if cleaned == "" {
		return ""
	}
	return Entity + "." + cleaned
}

// BuildWeekMessage composes the realtime message carrying a restaurant's fresh
// weekly mapping after a mutation or snapshot.
func BuildWeekMessage(action, restaurantID string, week WeeklyAvailability, at time.Time) *Message {
	trimmed := strings.TrimSpace(restaurantID)
	if trimmed == "" {
		return nil
	}

	days := make(map[string][]map[string]string, len(week))
	for day, ranges := range week {
		slots := make([]map[string]string, 0, len(ranges))
		for _, r := range ranges {
			slots = append(slots, map[string]string{
				"uuid":       r.ID,
				"slot_start": string(r.Start),
				"slot_end":   string(r.End),
			})
		}
		days[string(day)] = slots
	}

	return &Message{
		Topic:        CustomTopic(action),
		Entity:       Entity,
		Action:       action,
		RestaurantID: trimmed,
		Metadata: map[string]string{
			"restaurantId": trimmed,
		},
		Data:      days,
		Timestamp: at.UTC(),
	}
}
