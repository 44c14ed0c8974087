package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrRangeOrder    = errors.New("end time must be after start time")
	ErrRangeOverflow = errors.New("end time cannot be after 24:00")
	ErrRangeOverlap  = errors.New("time ranges overlap")
)

// OverlapPolicy decides whether two ranges on the same day may intersect. The
// legacy console accepted overlapping ranges, so allow is the default; reject is
// available for deployments that want the stricter contract.
type OverlapPolicy string

const (
	OverlapAllow  OverlapPolicy = "allow"
	OverlapReject OverlapPolicy = "reject"
)

// ParseOverlapPolicy maps configuration text onto a policy, defaulting to allow.
func ParseOverlapPolicy(raw string) OverlapPolicy {
	if strings.EqualFold(strings.TrimSpace(raw), string(OverlapReject)) {
		return OverlapReject
	}
	return OverlapAllow
}

// ValidateRanges checks a staged range set as a whole; the first violation fails
// the entire set, and nothing is partially accepted.
//   - Every range must end strictly after it starts (same-day arithmetic, so an
//     end wrapping past midnight reads as zero minutes and is rejected).
//   - No range may end past the 24:00 boundary. The pickers cannot produce such
//     a value; this guards conversions, and offenders are rejected, not clamped.
//   - Under OverlapReject, ranges on the same day must not intersect.
func ValidateRanges(ranges []TimeRange, policy OverlapPolicy) error {
	for _, r := range ranges {
		startMinutes := r.Start.Minutes()
		endMinutes := r.End.Minutes()
		if startMinutes < 0 || endMinutes < 0 || endMinutes <= startMinutes {
			return fmt.Errorf("%w: %s-%s", ErrRangeOrder, r.Start, r.End)
		}
		if endMinutes > MinutesPerDay {
			return fmt.Errorf("%w: %s", ErrRangeOverflow, r.End)
		}
	}

	if policy == OverlapReject {
		for i := range ranges {
			for j := i + 1; j < len(ranges); j++ {
				if ranges[i].Start.Minutes() < ranges[j].End.Minutes() &&
					ranges[j].Start.Minutes() < ranges[i].End.Minutes() {
					return fmt.Errorf("%w: %s-%s and %s-%s",
						ErrRangeOverlap,
						ranges[i].Start, ranges[i].End,
						ranges[j].Start, ranges[j].End)
				}
			}
		}
	}

	return nil
}
