package domain

import (
	"sort"
	"time"
)

// Interval is a half-open time range [Start, End)
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) intersect.
// Touching intervals (aEnd == bStart) do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// IsEmpty returns true for zero-length or inverted intervals
func (i Interval) IsEmpty() bool {
	return !i.Start.Before(i.End)
}

// Duration returns the length of the interval
func (i Interval) Duration() time.Duration {
	if i.IsEmpty() {
		return 0
	}
	return i.End.Sub(i.Start)
}

// Overlaps reports whether two intervals intersect
func (i Interval) Overlaps(o Interval) bool {
	return Overlaps(i.Start, i.End, o.Start, o.End)
}

// Contains reports whether o lies entirely within i
func (i Interval) Contains(o Interval) bool {
	return !o.Start.Before(i.Start) && !o.End.After(i.End)
}

// Subtract removes o from i, leaving zero, one or two pieces
func (i Interval) Subtract(o Interval) []Interval {
	if !i.Overlaps(o) {
		return []Interval{i}
	}

	var out []Interval
	if i.Start.Before(o.Start) {
		out = append(out, Interval{Start: i.Start, End: o.Start})
	}
	if o.End.Before(i.End) {
		out = append(out, Interval{Start: o.End, End: i.End})
	}
	return out
}

// SubtractAll removes every interval of cut from i
func (i Interval) SubtractAll(cut []Interval) []Interval {
	pieces := []Interval{i}
	for _, c := range cut {
		next := make([]Interval, 0, len(pieces))
		for _, p := range pieces {
			next = append(next, p.Subtract(c)...)
		}
		pieces = next
	}
	return pieces
}

// UnionIntervals merges overlapping intervals and returns them sorted by start
func UnionIntervals(intervals []Interval) []Interval {
	if len(intervals) == 0 {
		return nil
	}

	sorted := make([]Interval, 0, len(intervals))
	for _, iv := range intervals {
		if !iv.IsEmpty() {
			sorted = append(sorted, iv)
		}
	}
	sort.SliceStable(sorted, func(a, b int) bool {
		return sorted[a].Start.Before(sorted[b].Start)
	})

	var out []Interval
	for _, iv := range sorted {
		if n := len(out); n > 0 && iv.Start.Before(out[n-1].End) {
			if iv.End.After(out[n-1].End) {
				out[n-1].End = iv.End
			}
			continue
		}
		out = append(out, iv)
	}
	return out
}

// FindConflicts returns active bookings overlapping the interval.
// A booking with excludeID is ignored so a booking never conflicts with itself.
func FindConflicts(target Interval, bookings []*Booking, excludeID int64) []*Booking {
	var conflicts []*Booking
	for _, b := range bookings {
		if b.ID == excludeID || !b.IsActive() {
			continue
		}
		if target.Overlaps(b.Interval()) {
			conflicts = append(conflicts, b)
		}
	}
	return conflicts
}

// HasConflict reports whether any active booking overlaps the interval
func HasConflict(target Interval, bookings []*Booking, excludeID int64) bool {
	return len(FindConflicts(target, bookings, excludeID)) > 0
}
