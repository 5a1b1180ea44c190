package finish_booking

import (
	"context"
	"errors"
	"net/http"

	"github.com/m04kA/SMC-LessonService/internal/api/handlers"
	"github.com/m04kA/SMC-LessonService/internal/api/middleware"
	"github.com/m04kA/SMC-LessonService/internal/service/bookings"
	"github.com/m04kA/SMC-LessonService/internal/service/bookings/models"
)

const (
	msgInvalidBookingID = "некорректный ID бронирования"
	msgMissingUserID    = "отсутствует ID пользователя"
	msgNotFound         = "бронирование не найдено"
	msgForbidden        = "отметить итог занятия может только инструктор"
	msgAlreadyUpdated   = "бронирование уже было изменено"
	msgTooEarly         = "занятие еще не состоялось"
)

type transitionFunc func(ctx context.Context, bookingID int64, req *models.TransitionRequest) (*models.BookingResponse, error)

// Handler отмечает итог подтвержденного занятия: проведено или неявка
type Handler struct {
	service BookingService
	logger  Logger
}

func NewHandler(service BookingService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// HandleComplete PATCH /api/v1/bookings/{bookingId}/complete
func (h *Handler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, "PATCH /bookings/{id}/complete", h.service.Complete)
}

// HandleNoShow PATCH /api/v1/bookings/{bookingId}/no-show
func (h *Handler) HandleNoShow(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, "PATCH /bookings/{id}/no-show", h.service.MarkNoShow)
}

func (h *Handler) handle(w http.ResponseWriter, r *http.Request, route string, transition transitionFunc) {
	bookingID, err := handlers.PathInt64(r, "bookingId")
	if err != nil {
		h.logger.Warn("%s - Invalid booking ID: %v", route, err)
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("%s - Missing user ID", route)
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	booking, err := transition(r.Context(), bookingID, &models.TransitionRequest{UserID: userID})
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrBookingNotFound):
			h.logger.Warn("%s - Booking not found: booking_id=%d", route, bookingID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, bookings.ErrAccessDenied):
			h.logger.Warn("%s - Access denied: booking_id=%d, user_id=%d", route, bookingID, userID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, bookings.ErrInvalidState):
			h.logger.Warn("%s - Invalid state: booking_id=%d", route, bookingID)
			handlers.RespondConflict(w, msgAlreadyUpdated)

		case errors.Is(err, bookings.ErrTooEarly):
			h.logger.Warn("%s - Too early: booking_id=%d", route, bookingID)
			handlers.RespondBadRequest(w, msgTooEarly)

		case errors.Is(err, bookings.ErrInvalidInput):
			handlers.RespondBadRequest(w, msgInvalidBookingID)

		default:
			h.logger.Error("%s - Failed to update booking: booking_id=%d, error=%v", route, bookingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("%s - Booking updated successfully: booking_id=%d, status=%s", route, bookingID, booking.Status)
	handlers.RespondJSON(w, http.StatusOK, booking)
}
