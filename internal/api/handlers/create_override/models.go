package create_override

import (
	"time"

	"github.com/m04kA/SMC-LessonService/internal/domain"
	"github.com/m04kA/SMC-LessonService/internal/service/availability/models"
)

// CreateOverrideRequest HTTP request model
// Без startTime и endTime исключение действует на весь день
type CreateOverrideRequest struct {
	Date                string  `json:"date" validate:"required"` // YYYY-MM-DD
	StartTime           *string `json:"startTime,omitempty"`
	EndTime             *string `json:"endTime,omitempty"`
	IsAvailable         bool    `json:"isAvailable"`
	Reason              *string `json:"reason,omitempty" validate:"omitempty,max=255"`
	SlotDurationMinutes *int    `json:"slotDurationMinutes,omitempty"`
}

// ToServiceRequest конвертирует HTTP request в модель сервиса
func (r *CreateOverrideRequest) ToServiceRequest(userID, instructorID int64) (*models.CreateOverrideRequest, error) {
	date, err := time.Parse(domain.DateFormat, r.Date)
	if err != nil {
		return nil, err
	}

	return &models.CreateOverrideRequest{
		UserID:              userID,
		InstructorID:        instructorID,
		Date:                date,
		StartTime:           r.StartTime,
		EndTime:             r.EndTime,
		IsAvailable:         r.IsAvailable,
		Reason:              r.Reason,
		SlotDurationMinutes: r.SlotDurationMinutes,
	}, nil
}
