package get_available_slots

import (
	"context"
	"time"

	"github.com/m04kA/SMC-LessonService/internal/domain"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	// GetOverlapping получает активные бронирования инструктора, пересекающиеся с [start, end)
	GetOverlapping(ctx context.Context, instructorID int64, start, end time.Time) ([]*domain.Booking, error)
}

// AvailabilityRepository интерфейс репозитория расписания инструктора
type AvailabilityRepository interface {
	GetRulesByInstructor(ctx context.Context, instructorID int64, includeInactive bool) ([]*domain.InstructorAvailability, error)
	GetOverrides(ctx context.Context, instructorID int64, from, to time.Time) ([]*domain.AvailabilityOverride, error)
}

// Cache интерфейс кэша слотов
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// MetricsRecorder интерфейс для учета попаданий в кэш
type MetricsRecorder interface {
	RecordCacheResult(cache string, hit bool)
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
