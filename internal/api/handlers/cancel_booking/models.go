package cancel_booking

import (
	"github.com/m04kA/SMC-LessonService/internal/service/bookings/models"
)

// CancelBookingRequest HTTP request model, тело необязательно
type CancelBookingRequest struct {
	CancellationReason *string `json:"cancellationReason,omitempty" validate:"omitempty,max=500"`
}

// ToServiceRequest конвертирует HTTP request в модель сервиса
func (r *CancelBookingRequest) ToServiceRequest(userID int64) *models.TransitionRequest {
	return &models.TransitionRequest{
		UserID: userID,
		Reason: r.CancellationReason,
	}
}
