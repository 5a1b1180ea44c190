package confirm_booking

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-LessonService/internal/domain"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.BookingID <= 0 {
		return fmt.Errorf("%w: bookingID must be positive", ErrInvalidInput)
	}

	if req.ActorID <= 0 {
		return fmt.Errorf("%w: actorID must be positive", ErrInvalidInput)
	}

	return nil
}

// mapTransitionError переводит ошибки жизненного цикла в ошибки usecase
func mapTransitionError(err error) error {
	switch {
	case errors.Is(err, domain.ErrActorNotAllowed):
		return ErrAccessDenied
	case errors.Is(err, domain.ErrTransitionNotAllowed):
		return ErrInvalidState
	default:
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}
}
