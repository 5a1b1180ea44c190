package put_availability

import (
	"github.com/m04kA/SMC-LessonService/internal/service/availability/models"
)

// PutAvailabilityRequest HTTP request model
// Без id создается новое правило, с id изменяется существующее
type PutAvailabilityRequest struct {
	ID                  *int64 `json:"id,omitempty" validate:"omitempty,gt=0"`
	DayOfWeek           int    `json:"dayOfWeek" validate:"min=0,max=6"`
	StartTime           string `json:"startTime" validate:"required"`
	EndTime             string `json:"endTime" validate:"required"`
	SlotDurationMinutes int    `json:"slotDurationMinutes" validate:"required"`
	IsActive            *bool  `json:"isActive,omitempty"`
}

// ToServiceRequest конвертирует HTTP request в модель сервиса
func (r *PutAvailabilityRequest) ToServiceRequest(userID, instructorID int64) *models.PutAvailabilityRequest {
	return &models.PutAvailabilityRequest{
		UserID:              userID,
		InstructorID:        instructorID,
		ID:                  r.ID,
		DayOfWeek:           r.DayOfWeek,
		StartTime:           r.StartTime,
		EndTime:             r.EndTime,
		SlotDurationMinutes: r.SlotDurationMinutes,
		IsActive:            r.IsActive,
	}
}
