package get_available_slots

import (
	"time"

	"github.com/m04kA/SMC-LessonService/internal/domain"
)

// Options параметры генерации слотов
type Options struct {
	Location            *time.Location // Часовой пояс студии
	MaxRangeDays        int            // Максимальная длина периода в днях
	MinBookingNotice    time.Duration  // Минимальное время до начала слота
	DefaultSlotDuration int            // Длительность слота для дополнительных окон без своей длительности
	CacheTTL            time.Duration  // Время жизни кэша слотов
}

// Request модель запроса на получение доступных слотов
type Request struct {
	InstructorID int64     // ID инструктора
	From         time.Time // Первая дата периода (включительно)
	To           time.Time // Последняя дата периода (включительно)
}

// Response модель ответа со списком доступных слотов
type Response struct {
	InstructorID int64             // ID инструктора
	From         time.Time         // Первая дата периода
	To           time.Time         // Последняя дата периода (после ограничения MaxRangeDays)
	Slots        []domain.TimeSlot // Слоты по возрастанию времени начала
}
