package events

import (
	"context"
	"sync"
)

// Handler обработчик события
type Handler func(ctx context.Context, event Event) error

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Bus синхронная шина событий внутри процесса
// Ошибки обработчиков логируются и не возвращаются отправителю
type Bus struct {
	mu       sync.RWMutex
	handlers map[Type][]Handler
	all      []Handler
	logger   Logger
}

// NewBus создает пустую шину
func NewBus(logger Logger) *Bus {
	return &Bus{
		handlers: make(map[Type][]Handler),
		logger:   logger,
	}
}

// Subscribe подписывает обработчик на события указанных типов
// Без типов обработчик получает все события
func (b *Bus) Subscribe(handler Handler, types ...Type) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(types) == 0 {
		b.all = append(b.all, handler)
		return
	}
	for _, t := range types {
		b.handlers[t] = append(b.handlers[t], handler)
	}
}

// Publish доставляет событие всем подписчикам
func (b *Bus) Publish(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.all)+len(b.handlers[event.Type]))
	handlers = append(handlers, b.handlers[event.Type]...)
	handlers = append(handlers, b.all...)
	b.mu.RUnlock()

	for _, h := range handlers {
		if err := h(ctx, event); err != nil {
			b.logger.Error("events: handler failed for %s id=%s booking=%d: %v",
				event.Type, event.ID, event.BookingID, err)
		}
	}
}

// NopPublisher публикатор, который ничего не делает (для тестов и утилит)
type NopPublisher struct{}

// Publish игнорирует событие
func (NopPublisher) Publish(context.Context, Event) {}
