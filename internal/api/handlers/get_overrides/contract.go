package get_overrides

import (
	"context"
	"time"

	"github.com/m04kA/SMC-LessonService/internal/service/availability/models"
)

type AvailabilityService interface {
	GetOverrides(ctx context.Context, instructorID int64, from, to time.Time) (*models.OverridesResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
