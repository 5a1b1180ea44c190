package domain

// Default scheduling values
const (
	DefaultSlotDurationMinutes = 60
	DefaultCancellationHours   = 24
	DefaultPendingTTLHours     = 48
)

// Business validation constants
const (
	MaxNotesLength              = 500
	MaxCancellationReasonLength = 500
	MaxMessageLength            = 2000
	MaxOverrideReasonLength     = 255
)

// Time format constants
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)

// AllowedSlotDurations lesson lengths an instructor may offer
var AllowedSlotDurations = []int{45, 60, 90, 120}

// NonTerminalStatuses statuses that still block the instructor's time
var NonTerminalStatuses = []BookingStatus{
	StatusPending,
	StatusConfirmed,
}

// TerminalStatuses statuses that can no longer change
var TerminalStatuses = []BookingStatus{
	StatusCompleted,
	StatusDeclined,
	StatusCancelledByMember,
	StatusCancelledByInstructor,
	StatusNoShow,
	StatusExpired,
}

// IsAllowedSlotDuration checks that the duration is one of AllowedSlotDurations
func IsAllowedSlotDuration(minutes int) bool {
	for _, d := range AllowedSlotDurations {
		if d == minutes {
			return true
		}
	}
	return false
}

// StatusStrings converts statuses to strings for SQL filters
func StatusStrings(statuses []BookingStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
