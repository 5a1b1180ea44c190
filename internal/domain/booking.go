package domain

import "time"

// BookingStatus represents the status of a private lesson booking
type BookingStatus string

const (
	StatusPending               BookingStatus = "pending"
	StatusConfirmed             BookingStatus = "confirmed"
	StatusCompleted             BookingStatus = "completed"
	StatusDeclined              BookingStatus = "declined"
	StatusCancelledByMember     BookingStatus = "cancelled_by_member"
	StatusCancelledByInstructor BookingStatus = "cancelled_by_instructor"
	StatusNoShow                BookingStatus = "no_show"
	StatusExpired               BookingStatus = "expired"
)

// IsValid returns true if the status is one of the known statuses
func (s BookingStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusDeclined,
		StatusCancelledByMember, StatusCancelledByInstructor, StatusNoShow, StatusExpired:
		return true
	}
	return false
}

// IsTerminal returns true if no further transitions are possible from the status
func (s BookingStatus) IsTerminal() bool {
	return s != StatusPending && s != StatusConfirmed
}

// Booking represents a private lesson between an instructor and a member
type Booking struct {
	ID           int64
	InstructorID int64
	MemberID     int64
	StartTime    time.Time
	EndTime      time.Time
	Status       BookingStatus

	Notes              *string
	CancellationReason *string
	CancelledAt        *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsActive returns true while the booking still blocks the instructor's time
func (b *Booking) IsActive() bool {
	return !b.Status.IsTerminal()
}

// Interval returns the booked time as a half-open interval
func (b *Booking) Interval() Interval {
	return Interval{Start: b.StartTime, End: b.EndTime}
}

// DurationMinutes returns the length of the lesson in minutes
func (b *Booking) DurationMinutes() int {
	return int(b.EndTime.Sub(b.StartTime) / time.Minute)
}

// IsParticipant returns true if the user is the member or the instructor of the booking
func (b *Booking) IsParticipant(userID int64) bool {
	return b.MemberID == userID || b.InstructorID == userID
}

// Counterpart returns the other participant of the booking thread
func (b *Booking) Counterpart(userID int64) int64 {
	if b.MemberID == userID {
		return b.InstructorID
	}
	return b.MemberID
}

// BookingsFilter фильтр для выборки бронирований участника
type BookingsFilter struct {
	InstructorID    *int64         // Бронирования инструктора
	MemberID        *int64         // Бронирования ученика
	ParticipantID   *int64         // Бронирования, где пользователь ученик или инструктор
	From            *time.Time     // Начало периода (по start_time, включительно)
	To              *time.Time     // Конец периода (по start_time, не включительно)
	Status          *BookingStatus // Конкретный статус (опционально)
	IncludeInactive bool           // Включать ли терминальные статусы
}
