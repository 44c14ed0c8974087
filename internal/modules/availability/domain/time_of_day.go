package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// TimeOfDay is a wall-clock value in the stored "HH:MM" form used by the REST
// layer. Values sit on a 15-minute grid from 00:00 to 23:45; 24:00 is accepted
// only as the conceptual end-of-day upper bound for range ends.
type TimeOfDay string

// InvalidClockLabel is the fixed fallback the console shows for unusable values.
const InvalidClockLabel = "Invalid Time"

// MinutesPerDay bounds range ends: nothing may finish after 24:00.
const MinutesPerDay = 24 * 60

// SlotIntervalMinutes is the picker granularity and the interval the backend
// stores alongside every slot.
const SlotIntervalMinutes = 15

// ParseTimeOfDay validates a stored "HH:MM" value. Hour 24 is only allowed as
// "24:00".
func ParseTimeOfDay(value string) (TimeOfDay, error) {
	trimmed := strings.TrimSpace(value)
	hour, minute, err := splitClock(trimmed)
	if err != nil {
		return "", err
	}
	if hour == 24 && minute != 0 {
		return "", fmt.Errorf("time of day %q is past the end of the day", trimmed)
	}
	return TimeOfDay(fmt.Sprintf("%02d:%02d", hour, minute)), nil
}

// ParseClock12 parses the 12-hour display form ("h:mm AM|PM") generated for the
// pickers. "12 AM" maps to hour 00 and "12 PM" stays at hour 12.
func ParseClock12(value string) (TimeOfDay, error) {
	trimmed := strings.TrimSpace(value)
	parts := strings.Fields(trimmed)
	if len(parts) != 2 {
		return "", fmt.Errorf("display time %q is not in h:mm AM/PM form", value)
	}

	period := strings.ToUpper(parts[1])
	if period != "AM" && period != "PM" {
		return "", fmt.Errorf("display time %q has unknown period %q", value, parts[1])
	}

	hour, minute, err := splitClock(parts[0])
	if err != nil {
		return "", err
	}
	if hour < 1 || hour > 12 {
		return "", fmt.Errorf("display time %q has hour outside 1-12", value)
	}

	if period == "PM" && hour != 12 {
		hour += 12
	} else if period == "AM" && hour == 12 {
		hour = 0
	}
	return TimeOfDay(fmt.Sprintf("%02d:%02d", hour, minute)), nil
}

// Clock12 renders the stored value in the console's 12-hour display form,
// falling back to the fixed invalid label when the value is empty or malformed.
func (t TimeOfDay) Clock12() string {
	hour, minute, err := splitClock(string(t))
	if err != nil {
		return InvalidClockLabel
	}

	period := "AM"
	if hour >= 12 {
		period = "PM"
	}
	display := hour % 12
	if display == 0 {
		display = 12
	}
	return fmt.Sprintf("%d:%02d %s", display, minute, period)
}

// Minutes returns minutes since midnight for ordering comparisons, or -1 when
// the value is malformed. The result is never displayed.
func (t TimeOfDay) Minutes() int {
	hour, minute, err := splitClock(string(t))
	if err != nil {
		return -1
	}
	return hour*60 + minute
}

// ClockOptions generates the shared 96-entry option list at 15-minute
// granularity, in display form, used for both start and end pickers.
func ClockOptions() []string {
	options := make([]string, 0, MinutesPerDay/SlotIntervalMinutes)
	for slot := 0; slot < MinutesPerDay/SlotIntervalMinutes; slot++ {
		hour := slot / 4
		minute := (slot % 4) * SlotIntervalMinutes
		stored := TimeOfDay(fmt.Sprintf("%02d:%02d", hour, minute))
		options = append(options, stored.Clock12())
	}
	return options
}

func splitClock(value string) (int, int, error) {
	hourRaw, minuteRaw, found := strings.Cut(value, ":")
	if !found {
		return 0, 0, fmt.Errorf("clock value %q is missing a colon", value)
	}
	hour, err := strconv.Atoi(hourRaw)
	if err != nil || hour < 0 || hour > 24 {
		return 0, 0, fmt.Errorf("clock value %q has a bad hour", value)
	}
	if len(minuteRaw) != 2 {
		return 0, 0, fmt.Errorf("clock value %q has a bad minute", value)
	}
	minute, err := strconv.Atoi(minuteRaw)
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("clock value %q has a bad minute", value)
	}
	return hour, minute, nil
}
