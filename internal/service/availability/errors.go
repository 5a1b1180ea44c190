package availability

import "errors"

var (
	// ErrAvailabilityNotFound возвращается, когда правило доступности не найдено
	ErrAvailabilityNotFound = errors.New("availability: availability rule not found")

	// ErrOverrideNotFound возвращается, когда исключение не найдено
	ErrOverrideNotFound = errors.New("availability: override not found")

	// ErrAccessDenied возвращается, когда пользователь меняет чужое расписание
	ErrAccessDenied = errors.New("availability: access denied")

	// ErrAvailabilityConflict возвращается при пересечении с другим активным правилом того же дня
	ErrAvailabilityConflict = errors.New("availability: rule overlaps another active rule")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("availability: invalid input data")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("availability: internal error")
)
