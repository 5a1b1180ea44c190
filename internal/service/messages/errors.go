package messages

import "errors"

var (
	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("messages: booking not found")

	// ErrAccessDenied возвращается, когда пользователь не участник бронирования
	ErrAccessDenied = errors.New("messages: access denied")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("messages: invalid input data")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("messages: internal error")
)
