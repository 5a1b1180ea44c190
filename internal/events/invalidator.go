package events

import (
	"context"
	"errors"

	"github.com/m04kA/SMC-LessonService/internal/infra/cache"
)

// Cache интерфейс кэша, который нужно сбрасывать при изменениях
type Cache interface {
	Delete(ctx context.Context, keys ...string) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CacheInvalidator сбрасывает кэш слотов и непрочитанных сообщений
type CacheInvalidator struct {
	cache Cache
}

// NewCacheInvalidator создает обработчик инвалидации кэша
func NewCacheInvalidator(c Cache) *CacheInvalidator {
	return &CacheInvalidator{cache: c}
}

// Handle сбрасывает ключи, затронутые событием:
// - слоты инструктора при любом изменении бронирований или расписания
// - непрочитанные сообщения участников при изменении бронирования или переписки
func (i *CacheInvalidator) Handle(ctx context.Context, event Event) error {
	var errs []error

	switch event.Type {
	case TypeBookingCreated, TypeBookingStatusChanged, TypeAvailabilityChanged:
		if err := i.cache.DeleteByPattern(ctx, cache.SlotsPattern(event.InstructorID)); err != nil {
			errs = append(errs, err)
		}
	}

	var unreadKeys []string
	switch event.Type {
	case TypeBookingStatusChanged, TypeMessageSent:
		unreadKeys = append(unreadKeys, cache.UnreadKey(event.InstructorID), cache.UnreadKey(event.MemberID))
	case TypeThreadRead:
		unreadKeys = append(unreadKeys, cache.UnreadKey(event.ActorID))
	}
	if err := i.cache.Delete(ctx, unreadKeys...); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
