package create_booking

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/m04kA/SMC-LessonService/internal/domain"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.ActorID <= 0 {
		return fmt.Errorf("%w: actorID must be positive", ErrInvalidInput)
	}

	if req.InstructorID <= 0 {
		return fmt.Errorf("%w: instructorID must be positive", ErrInvalidInput)
	}

	if req.MemberID <= 0 {
		return fmt.Errorf("%w: memberID must be positive", ErrInvalidInput)
	}

	if req.MemberID == req.InstructorID {
		return fmt.Errorf("%w: member and instructor must be different users", ErrInvalidInput)
	}

	if req.StartTime.IsZero() || req.EndTime.IsZero() {
		return fmt.Errorf("%w: startTime and endTime are required", ErrInvalidInput)
	}

	if !req.StartTime.Before(req.EndTime) {
		return fmt.Errorf("%w: startTime must be before endTime", ErrInvalidInput)
	}

	if req.Notes != nil && utf8.RuneCountInString(*req.Notes) > domain.MaxNotesLength {
		return fmt.Errorf("%w: notes must be at most %d characters", ErrInvalidInput, domain.MaxNotesLength)
	}

	return nil
}

// validateBookingTime проверяет, что занятие не в прошлом и не нарушает минимальное время до начала
func validateBookingTime(start, now time.Time, minNotice time.Duration) error {
	if !start.After(now) {
		return ErrBookingInPast
	}

	if minNotice > 0 && start.Before(now.Add(minNotice)) {
		return fmt.Errorf("%w: must book at least %s in advance", ErrTooLateToBook, minNotice)
	}

	return nil
}

// matchesSlot проверяет, что интервал в точности совпадает с одним из слотов
func matchesSlot(slots []domain.TimeSlot, start, end time.Time) bool {
	for _, slot := range slots {
		if slot.Matches(start, end) {
			return true
		}
	}
	return false
}
