package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-LessonService/pkg/ptr"
	"github.com/m04kA/SMC-LessonService/pkg/types"
)

// monday 2025-03-10
var monday = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func rule(start, end string, duration int) *InstructorAvailability {
	return &InstructorAvailability{
		InstructorID:        1,
		DayOfWeek:           int(time.Monday),
		StartTime:           types.TimeString(start),
		EndTime:             types.TimeString(end),
		SlotDurationMinutes: duration,
		IsActive:            true,
	}
}

func override(date time.Time, start, end string, available bool) *AvailabilityOverride {
	o := &AvailabilityOverride{InstructorID: 1, OverrideDate: date, IsAvailable: available}
	if start != "" {
		o.StartTime = ptr.Ptr(types.TimeString(start))
		o.EndTime = ptr.Ptr(types.TimeString(end))
	}
	return o
}

func window(start, end time.Time, duration int) Window {
	return Window{Interval: Interval{Start: start, End: end}, SlotDurationMinutes: duration}
}

func TestEffectiveWindows_BlackoutSplitsWindow(t *testing.T) {
	got := EffectiveWindows(monday,
		[]*InstructorAvailability{rule("10:00", "18:00", 60)},
		[]*AvailabilityOverride{override(monday, "14:00", "16:00", false)},
		time.UTC, 60)

	assert.Equal(t, []Window{
		window(at(10, 0), at(14, 0), 60),
		window(at(16, 0), at(18, 0), 60),
	}, got)
}

func TestEffectiveWindows_FullDayBlackout(t *testing.T) {
	got := EffectiveWindows(monday,
		[]*InstructorAvailability{rule("10:00", "18:00", 60)},
		[]*AvailabilityOverride{override(monday, "", "", false)},
		time.UTC, 60)

	assert.Empty(t, got)
}

func TestEffectiveWindows_OverlappingRulesUnionedBeforeBlackout(t *testing.T) {
	got := EffectiveWindows(monday,
		[]*InstructorAvailability{
			rule("12:00", "15:00", 90),
			rule("10:00", "13:00", 60),
		},
		[]*AvailabilityOverride{override(monday, "11:00", "15:00", false)},
		time.UTC, 60)

	assert.Equal(t, []Window{window(at(10, 0), at(11, 0), 60)}, got)
}

func TestEffectiveWindows_IgnoresOtherDaysAndInactiveRules(t *testing.T) {
	tuesday := rule("10:00", "12:00", 60)
	tuesday.DayOfWeek = int(time.Tuesday)
	inactive := rule("13:00", "15:00", 60)
	inactive.IsActive = false

	otherDate := override(monday.AddDate(0, 0, 7), "", "", false)

	got := EffectiveWindows(monday,
		[]*InstructorAvailability{tuesday, inactive, rule("16:00", "17:00", 60)},
		[]*AvailabilityOverride{otherDate},
		time.UTC, 60)

	assert.Equal(t, []Window{window(at(16, 0), at(17, 0), 60)}, got)
}

func TestEffectiveWindows_ExtraAvailability(t *testing.T) {
	extra := override(monday, "09:00", "11:00", true)
	extra.SlotDurationMinutes = ptr.Ptr(45)

	got := EffectiveWindows(monday,
		[]*InstructorAvailability{rule("10:00", "12:00", 60)},
		[]*AvailabilityOverride{extra, override(monday, "18:00", "19:00", true)},
		time.UTC, 60)

	assert.Equal(t, []Window{
		window(at(9, 0), at(10, 0), 45),
		window(at(10, 0), at(12, 0), 60),
		window(at(18, 0), at(19, 0), 60),
	}, got)
}

func TestEffectiveWindows_ExtraOnDayWithoutRules(t *testing.T) {
	got := EffectiveWindows(monday, nil,
		[]*AvailabilityOverride{override(monday, "10:00", "11:30", true)},
		time.UTC, 0)

	assert.Equal(t, []Window{window(at(10, 0), at(11, 30), DefaultSlotDurationMinutes)}, got)
}

func TestEffectiveWindows_Timezone(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Moscow")
	require.NoError(t, err)

	date := time.Date(2025, 3, 10, 0, 0, 0, 0, loc)
	got := EffectiveWindows(date, []*InstructorAvailability{rule("10:00", "11:00", 60)}, nil, loc, 60)

	require.Len(t, got, 1)
	assert.True(t, got[0].Start.Equal(time.Date(2025, 3, 10, 7, 0, 0, 0, time.UTC)))
}

func TestInstructorAvailability_Validate(t *testing.T) {
	assert.NoError(t, rule("10:00", "12:00", 90).Validate())
	assert.ErrorIs(t, rule("12:00", "10:00", 60).Validate(), ErrInvalidTimeRange)
	assert.ErrorIs(t, rule("10:00", "10:00", 60).Validate(), ErrInvalidTimeRange)
	assert.ErrorIs(t, rule("10:00", "12:00", 30).Validate(), ErrInvalidSlotDuration)

	bad := rule("10:00", "12:00", 60)
	bad.DayOfWeek = 7
	assert.ErrorIs(t, bad.Validate(), ErrInvalidDayOfWeek)
}

func TestInstructorAvailability_OverlapsRule(t *testing.T) {
	assert.True(t, rule("10:00", "12:00", 60).OverlapsRule(rule("11:00", "13:00", 60)))
	assert.False(t, rule("10:00", "12:00", 60).OverlapsRule(rule("12:00", "13:00", 60)))

	other := rule("10:00", "12:00", 60)
	other.InstructorID = 2
	assert.False(t, rule("10:00", "12:00", 60).OverlapsRule(other))
}

func TestAvailabilityOverride_Validate(t *testing.T) {
	assert.NoError(t, override(monday, "", "", false).Validate())
	assert.NoError(t, override(monday, "10:00", "11:00", true).Validate())
	assert.ErrorIs(t, override(monday, "11:00", "10:00", false).Validate(), ErrInvalidTimeRange)

	halfOpen := override(monday, "", "", false)
	halfOpen.StartTime = ptr.Ptr(types.TimeString("10:00"))
	assert.ErrorIs(t, halfOpen.Validate(), ErrInvalidTimeRange)

	badDuration := override(monday, "10:00", "11:00", true)
	badDuration.SlotDurationMinutes = ptr.Ptr(50)
	assert.ErrorIs(t, badDuration.Validate(), ErrInvalidSlotDuration)
}
