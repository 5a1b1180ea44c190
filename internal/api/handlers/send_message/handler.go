package send_message

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-LessonService/internal/api/handlers"
	"github.com/m04kA/SMC-LessonService/internal/api/middleware"
	"github.com/m04kA/SMC-LessonService/internal/service/messages"
	"github.com/m04kA/SMC-LessonService/internal/service/messages/models"
)

const (
	msgInvalidBookingID   = "некорректный ID бронирования"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgMissingUserID      = "отсутствует ID пользователя"
	msgNotFound           = "бронирование не найдено"
	msgForbidden          = "писать могут только участники бронирования"
	msgInvalidContent     = "сообщение пустое или слишком длинное"
)

// SendMessageRequest HTTP request model
type SendMessageRequest struct {
	Content string `json:"content" validate:"required"`
}

type Handler struct {
	service MessageService
	logger  Logger
}

func NewHandler(service MessageService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle POST /api/v1/bookings/{bookingId}/messages
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	bookingID, err := handlers.PathInt64(r, "bookingId")
	if err != nil {
		h.logger.Warn("POST /bookings/{id}/messages - Invalid booking ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("POST /bookings/{id}/messages - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req SendMessageRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /bookings/{id}/messages - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	msg, err := h.service.SendMessage(r.Context(), &models.SendMessageRequest{
		BookingID: bookingID,
		SenderID:  userID,
		Content:   req.Content,
	})
	if err != nil {
		switch {
		case errors.Is(err, messages.ErrBookingNotFound):
			h.logger.Warn("POST /bookings/{id}/messages - Booking not found: booking_id=%d", bookingID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, messages.ErrAccessDenied):
			h.logger.Warn("POST /bookings/{id}/messages - Access denied: booking_id=%d, user_id=%d", bookingID, userID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, messages.ErrInvalidInput):
			h.logger.Warn("POST /bookings/{id}/messages - Invalid message: %v", err)
			handlers.RespondBadRequest(w, msgInvalidContent)

		default:
			h.logger.Error("POST /bookings/{id}/messages - Failed to send message: booking_id=%d, error=%v",
				bookingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /bookings/{id}/messages - Message sent: message_id=%d, booking_id=%d, sender_id=%d",
		msg.ID, bookingID, userID)
	handlers.RespondJSON(w, http.StatusCreated, msg)
}
