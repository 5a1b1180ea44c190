package messages

import (
	"context"
	"time"

	"github.com/m04kA/SMC-LessonService/internal/domain"
	"github.com/m04kA/SMC-LessonService/internal/events"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	GetByFilter(ctx context.Context, filter domain.BookingsFilter) ([]*domain.Booking, error)
}

// MessageRepository интерфейс репозитория переписки
type MessageRepository interface {
	Create(ctx context.Context, msg *domain.BookingMessage) (*domain.BookingMessage, error)
	GetByBooking(ctx context.Context, bookingID int64) ([]*domain.BookingMessage, error)
	GetLatestFromOthers(ctx context.Context, viewerID int64, bookingIDs []int64) (map[int64]*domain.BookingMessage, error)
	GetReadMarkers(ctx context.Context, userID int64, bookingIDs []int64) (map[int64]time.Time, error)
	UpsertReadMarker(ctx context.Context, bookingID, userID int64, readAt time.Time) error
}

// UserServiceClient интерфейс для получения имен собеседников
type UserServiceClient interface {
	GetNames(ctx context.Context, userIDs []int64) map[int64]string
}

// Cache интерфейс кэша непрочитанных сообщений
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// EventPublisher интерфейс публикации событий
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event)
}

// MetricsRecorder интерфейс для учета попаданий в кэш
type MetricsRecorder interface {
	RecordCacheResult(cache string, hit bool)
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
