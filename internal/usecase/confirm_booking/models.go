package confirm_booking

import "github.com/m04kA/SMC-LessonService/internal/domain"

// Request модель запроса на подтверждение бронирования
type Request struct {
	BookingID int64 // ID бронирования
	ActorID   int64 // ID пользователя, подтверждающего бронирование
}

// Response модель ответа с подтвержденным бронированием
type Response struct {
	Booking *domain.Booking
}
