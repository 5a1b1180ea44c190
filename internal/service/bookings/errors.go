package bookings

import "errors"

var (
	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("bookings: booking not found")

	// ErrAccessDenied возвращается, когда у пользователя нет прав на операцию
	ErrAccessDenied = errors.New("bookings: access denied")

	// ErrInvalidState возвращается, когда текущий статус не допускает переход
	ErrInvalidState = errors.New("bookings: booking was already updated")

	// ErrCancellationWindow возвращается при отмене учеником подтвержденного занятия меньше чем за окно отмены
	ErrCancellationWindow = errors.New("bookings: confirmed lessons cannot be cancelled this close to the start")

	// ErrTooEarly возвращается, когда занятие еще не началось или не закончилось
	ErrTooEarly = errors.New("bookings: lesson time has not come yet")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("bookings: invalid input data")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("bookings: internal error")
)
