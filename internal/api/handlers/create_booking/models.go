package create_booking

import (
	"time"

	createBooking "github.com/m04kA/SMC-LessonService/internal/usecase/create_booking"
)

// CreateBookingRequest HTTP request model
// memberId задает инструктор, когда записывает ученика сам
type CreateBookingRequest struct {
	InstructorID int64     `json:"instructorId" validate:"required,gt=0"`
	MemberID     *int64    `json:"memberId,omitempty" validate:"omitempty,gt=0"`
	StartTime    time.Time `json:"startTime" validate:"required"`
	EndTime      time.Time `json:"endTime" validate:"required,gtfield=StartTime"`
	Notes        *string   `json:"notes,omitempty" validate:"omitempty,max=500"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CreateBookingRequest) ToUseCaseRequest(actorID int64) *createBooking.Request {
	req := &createBooking.Request{
		ActorID:      actorID,
		InstructorID: r.InstructorID,
		StartTime:    r.StartTime,
		EndTime:      r.EndTime,
		Notes:        r.Notes,
	}
	if r.MemberID != nil {
		req.MemberID = *r.MemberID
	}
	return req
}
