package domain

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/m04kA/SMC-LessonService/pkg/types"
)

var (
	// ErrInvalidTimeRange is returned when start is not before end
	ErrInvalidTimeRange = errors.New("domain: start time must be before end time")

	// ErrInvalidDayOfWeek is returned for day_of_week outside 0..6
	ErrInvalidDayOfWeek = errors.New("domain: day of week must be between 0 and 6")

	// ErrInvalidSlotDuration is returned for a lesson length that is not offered
	ErrInvalidSlotDuration = errors.New("domain: slot duration must be one of 45, 60, 90, 120")
)

// InstructorAvailability is a recurring weekly rule of open hours.
// StartTime and EndTime are local times of day in the studio timezone.
type InstructorAvailability struct {
	ID                  int64
	InstructorID        int64
	DayOfWeek           int // 0 = Sunday .. 6 = Saturday
	StartTime           types.TimeString
	EndTime             types.TimeString
	SlotDurationMinutes int
	IsActive            bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Validate checks the rule invariants
func (a *InstructorAvailability) Validate() error {
	if a.DayOfWeek < 0 || a.DayOfWeek > 6 {
		return ErrInvalidDayOfWeek
	}
	if err := a.StartTime.Validate(); err != nil {
		return err
	}
	if err := a.EndTime.Validate(); err != nil {
		return err
	}
	if !a.StartTime.IsBefore(a.EndTime) {
		return ErrInvalidTimeRange
	}
	if !IsAllowedSlotDuration(a.SlotDurationMinutes) {
		return ErrInvalidSlotDuration
	}
	return nil
}

// Weekday returns the rule's day as time.Weekday
func (a *InstructorAvailability) Weekday() time.Weekday {
	return time.Weekday(a.DayOfWeek)
}

// IntervalOn places the rule on a concrete date in loc
func (a *InstructorAvailability) IntervalOn(date time.Time, loc *time.Location) Interval {
	return Interval{Start: a.StartTime.OnDate(date, loc), End: a.EndTime.OnDate(date, loc)}
}

// OverlapsRule reports whether two active rules of one instructor collide on the same weekday
func (a *InstructorAvailability) OverlapsRule(other *InstructorAvailability) bool {
	if a.InstructorID != other.InstructorID || a.DayOfWeek != other.DayOfWeek {
		return false
	}
	if !a.IsActive || !other.IsActive {
		return false
	}
	return a.StartTime.IsBefore(other.EndTime) && a.EndTime.IsAfter(other.StartTime)
}

// AvailabilityOverride is a date-specific exception to the weekly rules.
// Without StartTime/EndTime it covers the entire day.
type AvailabilityOverride struct {
	ID                  int64
	InstructorID        int64
	OverrideDate        time.Time
	StartTime           *types.TimeString
	EndTime             *types.TimeString
	IsAvailable         bool    // false = blackout, true = extra availability
	Reason              *string
	SlotDurationMinutes *int // extra availability only, nil = default
	CreatedAt           time.Time
}

// IsBlackout returns true if the override removes availability
func (o *AvailabilityOverride) IsBlackout() bool {
	return !o.IsAvailable
}

// IsFullDay returns true if the override has no explicit time range
func (o *AvailabilityOverride) IsFullDay() bool {
	return o.StartTime == nil || o.EndTime == nil
}

// Validate checks the override invariants
func (o *AvailabilityOverride) Validate() error {
	if o.OverrideDate.IsZero() {
		return fmt.Errorf("%w: override date is required", ErrInvalidTimeRange)
	}
	if (o.StartTime == nil) != (o.EndTime == nil) {
		return fmt.Errorf("%w: both start and end time must be set", ErrInvalidTimeRange)
	}
	if !o.IsFullDay() {
		if err := o.StartTime.Validate(); err != nil {
			return err
		}
		if err := o.EndTime.Validate(); err != nil {
			return err
		}
		if !o.StartTime.IsBefore(*o.EndTime) {
			return ErrInvalidTimeRange
		}
	}
	if o.SlotDurationMinutes != nil && !IsAllowedSlotDuration(*o.SlotDurationMinutes) {
		return ErrInvalidSlotDuration
	}
	return nil
}

// AppliesTo returns true if the override is for the given calendar date
func (o *AvailabilityOverride) AppliesTo(date time.Time) bool {
	y1, m1, d1 := o.OverrideDate.Date()
	y2, m2, d2 := date.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// IntervalOn returns the time covered by the override on its date in loc
func (o *AvailabilityOverride) IntervalOn(loc *time.Location) Interval {
	if o.IsFullDay() {
		return DayInterval(o.OverrideDate, loc)
	}
	return Interval{
		Start: o.StartTime.OnDate(o.OverrideDate, loc),
		End:   o.EndTime.OnDate(o.OverrideDate, loc),
	}
}

// Window is an effective availability window on a concrete date
type Window struct {
	Interval
	SlotDurationMinutes int
}

// DayInterval returns [00:00, next day 00:00) of the date in loc
func DayInterval(date time.Time, loc *time.Location) Interval {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := date.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc)
	return Interval{Start: start, End: start.AddDate(0, 0, 1)}
}

// EffectiveWindows merges the weekly rules and the overrides of one date.
//
// Recurring windows of the weekday are unioned first, then blackouts are
// subtracted from them, then extra windows are added for the time not
// already covered. The result is disjoint and sorted by start.
func EffectiveWindows(
	date time.Time,
	rules []*InstructorAvailability,
	overrides []*AvailabilityOverride,
	loc *time.Location,
	defaultDuration int,
) []Window {
	if loc == nil {
		loc = time.UTC
	}
	if defaultDuration <= 0 {
		defaultDuration = DefaultSlotDurationMinutes
	}

	var recurring []Window
	for _, rule := range rules {
		if !rule.IsActive || rule.Weekday() != date.Weekday() {
			continue
		}
		recurring = append(recurring, Window{
			Interval:            rule.IntervalOn(date, loc),
			SlotDurationMinutes: rule.SlotDurationMinutes,
		})
	}
	recurring = unionWindows(recurring)

	var extras []Window
	for _, o := range overrides {
		if !o.AppliesTo(date) {
			continue
		}

		if o.IsBlackout() {
			if o.IsFullDay() {
				recurring = nil
				continue
			}
			recurring = subtractFromWindows(recurring, []Interval{o.IntervalOn(loc)})
			continue
		}

		duration := defaultDuration
		if o.SlotDurationMinutes != nil {
			duration = *o.SlotDurationMinutes
		}
		extras = append(extras, Window{Interval: o.IntervalOn(loc), SlotDurationMinutes: duration})
	}

	covered := make([]Interval, 0, len(recurring))
	for _, w := range recurring {
		covered = append(covered, w.Interval)
	}

	result := append([]Window{}, recurring...)
	result = append(result, subtractFromWindows(unionWindows(extras), covered)...)

	sort.SliceStable(result, func(a, b int) bool {
		return result[a].Start.Before(result[b].Start)
	})
	return result
}

// unionWindows merges overlapping windows; a merged window keeps the slot
// duration of the earliest-starting window in the group
func unionWindows(windows []Window) []Window {
	if len(windows) == 0 {
		return nil
	}

	sorted := make([]Window, 0, len(windows))
	for _, w := range windows {
		if !w.IsEmpty() {
			sorted = append(sorted, w)
		}
	}
	sort.SliceStable(sorted, func(a, b int) bool {
		return sorted[a].Start.Before(sorted[b].Start)
	})

	var out []Window
	for _, w := range sorted {
		if n := len(out); n > 0 && w.Start.Before(out[n-1].End) {
			if w.End.After(out[n-1].End) {
				out[n-1].End = w.End
			}
			continue
		}
		out = append(out, w)
	}
	return out
}

func subtractFromWindows(windows []Window, cut []Interval) []Window {
	var out []Window
	for _, w := range windows {
		for _, piece := range w.Interval.SubtractAll(cut) {
			if piece.IsEmpty() {
				continue
			}
			out = append(out, Window{Interval: piece, SlotDurationMinutes: w.SlotDurationMinutes})
		}
	}
	return out
}
