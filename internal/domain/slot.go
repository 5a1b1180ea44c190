package domain

import "time"

// TimeSlot represents a bookable lesson slot. Slots are derived and never stored
type TimeSlot struct {
	InstructorID    int64
	StartTime       time.Time
	EndTime         time.Time
	DurationMinutes int
}

// Interval returns the slot as a half-open interval
func (s TimeSlot) Interval() Interval {
	return Interval{Start: s.StartTime, End: s.EndTime}
}

// Matches returns true if the slot covers exactly the given interval
func (s TimeSlot) Matches(start, end time.Time) bool {
	return s.StartTime.Equal(start) && s.EndTime.Equal(end)
}

// TileWindows cuts every window into consecutive slots of the window's
// duration starting at its start. A trailing remainder shorter than one
// slot is dropped.
func TileWindows(instructorID int64, windows []Window) []TimeSlot {
	var slots []TimeSlot
	for _, w := range windows {
		if w.SlotDurationMinutes <= 0 {
			continue
		}
		step := time.Duration(w.SlotDurationMinutes) * time.Minute
		for start := w.Start; !start.Add(step).After(w.End); start = start.Add(step) {
			slots = append(slots, TimeSlot{
				InstructorID:    instructorID,
				StartTime:       start,
				EndTime:         start.Add(step),
				DurationMinutes: w.SlotDurationMinutes,
			})
		}
	}
	return slots
}
