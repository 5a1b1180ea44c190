package create_booking

import "errors"

var (
	// ErrInstructorNotFound возвращается, когда инструктор не найден или пользователь не инструктор
	ErrInstructorNotFound = errors.New("create_booking: instructor not found")

	// ErrAccessDenied возвращается, когда бронирование создает не ученик и не инструктор
	ErrAccessDenied = errors.New("create_booking: only the member or the instructor can create the booking")

	// ErrBookingInPast возвращается при попытке забронировать прошедшее время
	ErrBookingInPast = errors.New("create_booking: booking time is in the past")

	// ErrTooLateToBook возвращается, когда попытка забронировать слот нарушает минимальное время до начала
	ErrTooLateToBook = errors.New("create_booking: too late to book this slot")

	// ErrInvalidTimeSlot возвращается, когда интервал не совпадает ни с одним слотом инструктора
	ErrInvalidTimeSlot = errors.New("create_booking: invalid time slot")

	// ErrSlotNotAvailable возвращается, когда интервал пересекается с активным бронированием
	ErrSlotNotAvailable = errors.New("create_booking: slot is not available")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("create_booking: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_booking: internal error")
)
