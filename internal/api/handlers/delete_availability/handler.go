package delete_availability

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-LessonService/internal/api/handlers"
	"github.com/m04kA/SMC-LessonService/internal/api/middleware"
	"github.com/m04kA/SMC-LessonService/internal/service/availability"
)

const (
	msgInvalidAvailabilityID = "некорректный ID правила расписания"
	msgMissingUserID         = "отсутствует ID пользователя"
	msgForbidden             = "можно изменять только свое расписание"
	msgNotFound              = "правило расписания не найдено"
)

type Handler struct {
	service AvailabilityService
	logger  Logger
}

func NewHandler(service AvailabilityService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle DELETE /api/v1/availability/{availabilityId}
// Заявки, оставшиеся вне расписания, отклоняются, подтвержденные возвращаются в affectedBookings
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	availabilityID, err := handlers.PathInt64(r, "availabilityId")
	if err != nil {
		h.logger.Warn("DELETE /availability/{id} - Invalid availability ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidAvailabilityID)
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("DELETE /availability/{id} - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	result, err := h.service.DeleteAvailability(r.Context(), userID, availabilityID)
	if err != nil {
		switch {
		case errors.Is(err, availability.ErrAvailabilityNotFound):
			h.logger.Warn("DELETE /availability/{id} - Rule not found: availability_id=%d", availabilityID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, availability.ErrAccessDenied):
			h.logger.Warn("DELETE /availability/{id} - Access denied: availability_id=%d, user_id=%d",
				availabilityID, userID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, availability.ErrInvalidInput):
			handlers.RespondBadRequest(w, msgInvalidAvailabilityID)

		default:
			h.logger.Error("DELETE /availability/{id} - Failed to delete rule: availability_id=%d, error=%v",
				availabilityID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("DELETE /availability/{id} - Rule deactivated: availability_id=%d, declined=%d, affected=%d",
		availabilityID, len(result.DeclinedBookings), len(result.AffectedBookings))
	handlers.RespondJSON(w, http.StatusOK, result)
}
