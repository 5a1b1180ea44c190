package get_available_slots

import (
	"time"

	"github.com/m04kA/SMC-LessonService/internal/domain"
	getAvailableSlots "github.com/m04kA/SMC-LessonService/internal/usecase/get_available_slots"
)

// AvailableSlotsResponse HTTP response model
type AvailableSlotsResponse struct {
	InstructorID int64           `json:"instructorId"`
	From         string          `json:"from"`
	To           string          `json:"to"`
	Slots        []AvailableSlot `json:"slots"`
}

// AvailableSlot модель свободного слота
type AvailableSlot struct {
	StartTime       time.Time `json:"startTime"`
	EndTime         time.Time `json:"endTime"`
	DurationMinutes int       `json:"durationMinutes"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *getAvailableSlots.Response) *AvailableSlotsResponse {
	slots := make([]AvailableSlot, len(resp.Slots))
	for i, slot := range resp.Slots {
		slots[i] = AvailableSlot{
			StartTime:       slot.StartTime,
			EndTime:         slot.EndTime,
			DurationMinutes: slot.DurationMinutes,
		}
	}

	return &AvailableSlotsResponse{
		InstructorID: resp.InstructorID,
		From:         resp.From.Format(domain.DateFormat),
		To:           resp.To.Format(domain.DateFormat),
		Slots:        slots,
	}
}
