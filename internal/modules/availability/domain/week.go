package domain

import (
	"strconv"

	"mesaYaAvailability/internal/shared/normalization"
)

// WeeklyAvailability maps each configured day to its reservation-hour ranges.
// Days without hours are simply absent. The mapping is a refetched view of
// backend state, never the authoritative store.
type WeeklyAvailability map[DayOfWeek][]TimeRange

// AvailableDays returns the weekdays that still have no configured hours, in
// the console's monday-first order. These populate the add-form day picker.
func (w WeeklyAvailability) AvailableDays() []DayOfWeek {
	available := make([]DayOfWeek, 0, len(WeekDays))
	for _, day := range WeekDays {
		if len(w[day]) == 0 {
			available = append(available, day)
		}
	}
	return available
}

// FullyCovered reports whether every weekday already has at least one range.
// It only gates the add-hours action; editing existing days stays possible.
func (w WeeklyAvailability) FullyCovered() bool {
	for _, day := range WeekDays {
		if len(w[day]) == 0 {
			return false
		}
	}
	return true
}

// Ranges returns a copy of the ranges configured for one day.
func (w WeeklyAvailability) Ranges(day DayOfWeek) []TimeRange {
	slots := w[day]
	if len(slots) == 0 {
		return nil
	}
	out := make([]TimeRange, len(slots))
	copy(out, slots)
	return out
}

// NormalizeWeeklyAvailability projects the loosely typed slot-info payload into
// the canonical mapping. Unknown days and malformed ranges are dropped; an
// empty or missing body normalizes to an empty mapping, which the editor treats
// as "no configured hours" rather than an error.
func NormalizeWeeklyAvailability(payload any) WeeklyAvailability {
	week := WeeklyAvailability{}
	container := normalization.MapFromPayload(payload)
	if len(container) == 0 {
		return week
	}

	for rawDay, rawSlots := range container {
		day := NormalizeDay(rawDay)
		if day == "" {
			continue
		}
		items := normalization.AsInterfaceSlice(rawSlots)
		if len(items) == 0 {
			continue
		}
		ranges := make([]TimeRange, 0, len(items))
		for _, item := range items {
			rawMap, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if r, ok := normalizeSlot(rawMap); ok {
				ranges = append(ranges, r)
			}
		}
		if len(ranges) > 0 {
			week[day] = ranges
		}
	}
	return week
}

func normalizeSlot(raw map[string]any) (TimeRange, bool) {
	start, err := ParseTimeOfDay(normalization.AsString(raw["slot_start"]))
	if err != nil {
		return TimeRange{}, false
	}
	end, err := ParseTimeOfDay(normalization.AsString(raw["slot_end"]))
	if err != nil {
		return TimeRange{}, false
	}

	id := normalization.AsString(raw["uuid"])
	if id == "" {
		if numeric := normalization.AsInt(raw["id"]); numeric > 0 {
			id = strconv.Itoa(numeric)
		}
	}

	return TimeRange{Start: start, End: end, ID: id}, true
}
