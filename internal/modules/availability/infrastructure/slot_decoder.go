package infrastructure

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"mesaYaAvailability/internal/modules/availability/domain"
	"mesaYaAvailability/internal/shared/normalization"
)

// decodeWeeklyAvailability turns a slot-info body into the canonical weekly
// mapping. An empty body reads as "no configured hours".
func decodeWeeklyAvailability(body io.Reader) (domain.WeeklyAvailability, error) {
	var payload any
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		if err == io.EOF {
			return domain.WeeklyAvailability{}, nil
		}
		return nil, fmt.Errorf("decode slot-info: %w", err)
	}
	return domain.NormalizeWeeklyAvailability(payload), nil
}

// decodeSlotRecord extracts whatever identifier the create-or-update response
// carries. The backend is not strict about the envelope, so absence is tolerated.
func decodeSlotRecord(body io.Reader) domain.SlotRecord {
	var payload any
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return domain.SlotRecord{}
	}

	container := normalization.MapFromPayload(payload)
	if len(container) == 0 {
		return domain.SlotRecord{}
	}
	if nested, ok := container["slot"].(map[string]any); ok {
		container = nested
	}

	record := domain.SlotRecord{
		Status:          normalization.AsString(container["status"]),
		IntervalMinutes: normalization.AsInt(container["interval_time"]),
	}
	record.ID = normalization.AsString(container["uuid"])
	if record.ID == "" {
		if numeric := normalization.AsInt(container["id"]); numeric > 0 {
			record.ID = strconv.Itoa(numeric)
		}
	}
	return record
}
