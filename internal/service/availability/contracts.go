package availability

import (
	"context"
	"time"

	"github.com/m04kA/SMC-LessonService/internal/domain"
	"github.com/m04kA/SMC-LessonService/internal/events"
)

// AvailabilityRepository интерфейс репозитория правил и исключений
type AvailabilityRepository interface {
	GetRulesByInstructor(ctx context.Context, instructorID int64, includeInactive bool) ([]*domain.InstructorAvailability, error)
	GetRuleByID(ctx context.Context, id int64) (*domain.InstructorAvailability, error)
	CreateRule(ctx context.Context, rule *domain.InstructorAvailability) (*domain.InstructorAvailability, error)
	UpdateRule(ctx context.Context, rule *domain.InstructorAvailability) (*domain.InstructorAvailability, error)
	DeactivateRule(ctx context.Context, id int64) error
	GetOverrides(ctx context.Context, instructorID int64, from, to time.Time) ([]*domain.AvailabilityOverride, error)
	GetOverrideByID(ctx context.Context, id int64) (*domain.AvailabilityOverride, error)
	CreateOverride(ctx context.Context, o *domain.AvailabilityOverride) (*domain.AvailabilityOverride, error)
	DeleteOverride(ctx context.Context, id int64) error
}

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByFilter(ctx context.Context, filter domain.BookingsFilter) ([]*domain.Booking, error)
	TransitionStatus(ctx context.Context, id int64, from, to domain.BookingStatus, reason *string) (*domain.Booking, error)
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
	Do(ctx context.Context, fn func(ctx context.Context) error) error
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
