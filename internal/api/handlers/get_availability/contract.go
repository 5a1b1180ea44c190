package get_availability

import (
	"context"

	"github.com/m04kA/SMC-LessonService/internal/service/availability/models"
)

type AvailabilityService interface {
	GetAvailability(ctx context.Context, instructorID int64, includeInactive bool) (*models.AvailabilityResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
