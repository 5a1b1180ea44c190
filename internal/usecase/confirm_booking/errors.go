package confirm_booking

import "errors"

var (
	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("confirm_booking: booking not found")

	// ErrAccessDenied возвращается, когда подтверждает не инструктор бронирования
	ErrAccessDenied = errors.New("confirm_booking: only the instructor of the booking can confirm it")

	// ErrInvalidState возвращается, когда бронирование уже не в статусе pending
	ErrInvalidState = errors.New("confirm_booking: booking was already updated")

	// ErrSlotNotAvailable возвращается, когда время уже занято другим активным бронированием
	ErrSlotNotAvailable = errors.New("confirm_booking: slot is not available")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("confirm_booking: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("confirm_booking: internal error")
)
