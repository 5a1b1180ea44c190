package delete_availability

import (
	"context"

	"github.com/m04kA/SMC-LessonService/internal/service/availability/models"
)

type AvailabilityService interface {
	DeleteAvailability(ctx context.Context, userID, availabilityID int64) (*models.DeleteAvailabilityResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
