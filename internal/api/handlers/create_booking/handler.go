package create_booking

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-LessonService/internal/api/handlers"
	"github.com/m04kA/SMC-LessonService/internal/api/middleware"
	bookingModels "github.com/m04kA/SMC-LessonService/internal/service/bookings/models"
	createBooking "github.com/m04kA/SMC-LessonService/internal/usecase/create_booking"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgMissingUserID      = "отсутствует ID пользователя"
	msgInstructorNotFound = "инструктор не найден"
	msgForbidden          = "бронирование может создать только ученик или сам инструктор"
	msgBookingInPast      = "нельзя забронировать прошедшее время"
	msgTooLateToBook      = "слишком поздно для бронирования этого слота"
	msgInvalidTimeSlot    = "время не совпадает со свободным слотом инструктора"
	msgSlotNotAvailable   = "это время уже недоступно, обновите список слотов"
	msgInvalidInput       = "некорректные данные бронирования"
)

type Handler struct {
	useCase CreateBookingUseCase
	logger  Logger
}

func NewHandler(useCase CreateBookingUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/bookings
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("POST /bookings - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req CreateBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /bookings - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.useCase.Execute(r.Context(), req.ToUseCaseRequest(userID))
	if err != nil {
		switch {
		case errors.Is(err, createBooking.ErrInstructorNotFound):
			h.logger.Warn("POST /bookings - Instructor not found: instructor_id=%d", req.InstructorID)
			handlers.RespondNotFound(w, msgInstructorNotFound)

		case errors.Is(err, createBooking.ErrAccessDenied):
			h.logger.Warn("POST /bookings - Access denied: user_id=%d, instructor_id=%d", userID, req.InstructorID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, createBooking.ErrBookingInPast):
			h.logger.Warn("POST /bookings - Booking in past: start=%s", req.StartTime)
			handlers.RespondBadRequest(w, msgBookingInPast)

		case errors.Is(err, createBooking.ErrTooLateToBook):
			h.logger.Warn("POST /bookings - Too late to book: start=%s", req.StartTime)
			handlers.RespondBadRequest(w, msgTooLateToBook)

		case errors.Is(err, createBooking.ErrInvalidTimeSlot):
			h.logger.Warn("POST /bookings - Invalid time slot: instructor_id=%d, start=%s, end=%s",
				req.InstructorID, req.StartTime, req.EndTime)
			handlers.RespondBadRequest(w, msgInvalidTimeSlot)

		case errors.Is(err, createBooking.ErrSlotNotAvailable):
			h.logger.Warn("POST /bookings - Slot not available: instructor_id=%d, start=%s",
				req.InstructorID, req.StartTime)
			handlers.RespondConflict(w, msgSlotNotAvailable)

		case errors.Is(err, createBooking.ErrInvalidInput):
			h.logger.Warn("POST /bookings - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		default:
			h.logger.Error("POST /bookings - Failed to create booking: user_id=%d, error=%v", userID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /bookings - Booking created successfully: booking_id=%d, instructor_id=%d, member_id=%d",
		result.Booking.ID, result.Booking.InstructorID, result.Booking.MemberID)
	handlers.RespondJSON(w, http.StatusCreated, bookingModels.FromDomainBooking(result.Booking))
}
