package delete_override

import (
	"context"

	"github.com/m04kA/SMC-LessonService/internal/service/availability/models"
)

type AvailabilityService interface {
	DeleteOverride(ctx context.Context, userID, overrideID int64) (*models.OverrideChangeResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
