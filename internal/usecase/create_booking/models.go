package create_booking

import (
	"time"

	"github.com/m04kA/SMC-LessonService/internal/domain"
)

// Options параметры создания бронирования
type Options struct {
	Location            *time.Location // Часовой пояс студии
	MinBookingNotice    time.Duration  // Минимальное время до начала занятия для ученика
	DefaultSlotDuration int            // Длительность слота дополнительных окон по умолчанию
}

// Request модель запроса на создание бронирования
type Request struct {
	ActorID      int64     // ID пользователя, создающего бронирование
	InstructorID int64     // ID инструктора
	MemberID     int64     // ID ученика (0 = сам пользователь)
	StartTime    time.Time // Начало занятия
	EndTime      time.Time // Конец занятия
	Notes        *string   // Заметки к занятию (опционально)
}

// Response модель ответа с созданным бронированием
type Response struct {
	Booking *domain.Booking
}
