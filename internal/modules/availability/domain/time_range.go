package domain

import "errors"

// MaxRangesPerDay caps how many reservation-hour ranges a day may stage in the
// editor. The backend does not enforce this; it is a client contract.
const MaxRangesPerDay = 3

var (
	ErrRangeCapReached  = errors.New("at most 3 time ranges per day")
	ErrRangeIndex       = errors.New("time range index out of bounds")
	ErrRangeNotPersisted = errors.New("time range has no identifier yet")
)

// TimeRange is one start-end pair of reservation hours. ID is the backend
// identifier, present once the range has been persisted and empty while it only
// exists as local staging.
type TimeRange struct {
	Start TimeOfDay
	End   TimeOfDay
	ID    string
}

// Persisted reports whether the backend already knows this range.
func (r TimeRange) Persisted() bool {
	return r.ID != ""
}

// DefaultRange is the staging seed used when a form opens without existing hours.
func DefaultRange() TimeRange {
	return TimeRange{Start: "00:00", End: "01:00"}
}

// SlotRecord is the backend's view of one persisted (day, range) pair.
type SlotRecord struct {
	ID              string
	Day             DayOfWeek
	Range           TimeRange
	Status          string
	IntervalMinutes int
}

// SlotChange is the tagged create-vs-update variant handed to the repository.
// The collaborator API distinguishes the two by the presence of an identifier;
// keeping the branch explicit here stops staging bugs from silently turning
// updates into duplicates.
type SlotChange struct {
	ID    string
	Range TimeRange
}

// NewSlot stages a create for a range the backend has never seen.
func NewSlot(r TimeRange) SlotChange {
	return SlotChange{Range: TimeRange{Start: r.Start, End: r.End}}
}

// ExistingSlot stages an update against a persisted identifier.
func ExistingSlot(id string, r TimeRange) SlotChange {
	return SlotChange{ID: id, Range: TimeRange{Start: r.Start, End: r.End, ID: id}}
}

// IsUpdate reports whether the change targets an existing record.
func (c SlotChange) IsUpdate() bool {
	return c.ID != ""
}

// StagedRanges holds the ranges being edited in an open form, enforcing the
// per-day cap before anything reaches validation or the network.
type StagedRanges struct {
	ranges []TimeRange
}

// NewStagedRanges seeds staging with the single default range the add form opens with.
func NewStagedRanges() *StagedRanges {
	return &StagedRanges{ranges: []TimeRange{DefaultRange()}}
}

// SeedStagedRanges seeds staging from a day's persisted ranges for the edit form,
// carrying identifiers. An empty slice falls back to the default range.
func SeedStagedRanges(existing []TimeRange) *StagedRanges {
	if len(existing) == 0 {
		return NewStagedRanges()
	}
	ranges := make([]TimeRange, len(existing))
	copy(ranges, existing)
	return &StagedRanges{ranges: ranges}
}

// Add appends another default range; a fourth add is refused.
func (s *StagedRanges) Add() error {
	if len(s.ranges) >= MaxRangesPerDay {
		return ErrRangeCapReached
	}
	s.ranges = append(s.ranges, DefaultRange())
	return nil
}

// Set replaces the start and end of the range at index, keeping its identifier.
func (s *StagedRanges) Set(index int, start, end TimeOfDay) error {
	if index < 0 || index >= len(s.ranges) {
		return ErrRangeIndex
	}
	s.ranges[index].Start = start
	s.ranges[index].End = end
	return nil
}

// At returns the range at index.
func (s *StagedRanges) At(index int) (TimeRange, error) {
	if index < 0 || index >= len(s.ranges) {
		return TimeRange{}, ErrRangeIndex
	}
	return s.ranges[index], nil
}

// Remove drops the range at index from staging.
func (s *StagedRanges) Remove(index int) error {
	if index < 0 || index >= len(s.ranges) {
		return ErrRangeIndex
	}
	s.ranges = append(s.ranges[:index], s.ranges[index+1:]...)
	return nil
}

// Len returns the number of staged ranges.
func (s *StagedRanges) Len() int {
	return len(s.ranges)
}

// Ranges returns a copy of the staged ranges in staging order.
func (s *StagedRanges) Ranges() []TimeRange {
	out := make([]TimeRange, len(s.ranges))
	copy(out, s.ranges)
	return out
}
