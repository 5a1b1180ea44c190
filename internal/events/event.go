package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-LessonService/internal/domain"
)

// Type тип события
type Type string

const (
	TypeBookingCreated       Type = "booking.created"
	TypeBookingStatusChanged Type = "booking.status_changed"
	TypeAvailabilityChanged  Type = "availability.changed"
	TypeMessageSent          Type = "message.sent"
	TypeThreadRead           Type = "thread.read"
)

// Event событие об изменении бронирования, расписания или переписки
type Event struct {
	ID             uuid.UUID `json:"id"`
	Type           Type      `json:"type"`
	BookingID      int64     `json:"bookingId,omitempty"`
	InstructorID   int64     `json:"instructorId"`
	MemberID       int64     `json:"memberId,omitempty"`
	ActorID        int64     `json:"actorId,omitempty"`
	Status         string    `json:"status,omitempty"`
	PreviousStatus string    `json:"previousStatus,omitempty"`
	OccurredAt     time.Time `json:"occurredAt"`
}

func newEvent(t Type, at time.Time) Event {
	return Event{ID: uuid.New(), Type: t, OccurredAt: at}
}

func fromBooking(t Type, b *domain.Booking, at time.Time) Event {
	e := newEvent(t, at)
	e.BookingID = b.ID
	e.InstructorID = b.InstructorID
	e.MemberID = b.MemberID
	e.Status = string(b.Status)
	return e
}

// BookingCreated событие создания бронирования
func BookingCreated(b *domain.Booking, actorID int64, at time.Time) Event {
	e := fromBooking(TypeBookingCreated, b, at)
	e.ActorID = actorID
	return e
}

// BookingStatusChanged событие смены статуса бронирования
func BookingStatusChanged(b *domain.Booking, from domain.BookingStatus, actorID int64, at time.Time) Event {
	e := fromBooking(TypeBookingStatusChanged, b, at)
	e.PreviousStatus = string(from)
	e.ActorID = actorID
	return e
}

// AvailabilityChanged событие изменения правил или исключений инструктора
func AvailabilityChanged(instructorID int64, at time.Time) Event {
	e := newEvent(TypeAvailabilityChanged, at)
	e.InstructorID = instructorID
	e.ActorID = instructorID
	return e
}

// MessageSent событие нового сообщения в переписке
func MessageSent(b *domain.Booking, senderID int64, at time.Time) Event {
	e := fromBooking(TypeMessageSent, b, at)
	e.ActorID = senderID
	return e
}

// ThreadRead событие прочтения переписки участником
func ThreadRead(b *domain.Booking, readerID int64, at time.Time) Event {
	e := fromBooking(TypeThreadRead, b, at)
	e.ActorID = readerID
	return e
}
