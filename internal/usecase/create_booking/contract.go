package create_booking

import (
	"context"
	"time"

	"github.com/m04kA/SMC-LessonService/internal/domain"
	"github.com/m04kA/SMC-LessonService/internal/events"
	"github.com/m04kA/SMC-LessonService/internal/integrations/userservice"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
	GetOverlapping(ctx context.Context, instructorID int64, start, end time.Time) ([]*domain.Booking, error)
}

// AvailabilityRepository интерфейс репозитория расписания инструктора
type AvailabilityRepository interface {
	GetRulesByInstructor(ctx context.Context, instructorID int64, includeInactive bool) ([]*domain.InstructorAvailability, error)
	GetOverrides(ctx context.Context, instructorID int64, from, to time.Time) ([]*domain.AvailabilityOverride, error)
}

// UserServiceClient интерфейс клиента для UserService
type UserServiceClient interface {
	GetProfileWithGracefulDegradation(ctx context.Context, userID int64) (*userservice.Profile, error)
}

// EventPublisher интерфейс публикации событий
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event)
}

// MetricsRecorder интерфейс для учета переходов статусов
type MetricsRecorder interface {
	RecordBookingTransition(status string)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
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
