package delete_override

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-LessonService/internal/api/handlers"
	"github.com/m04kA/SMC-LessonService/internal/api/middleware"
	"github.com/m04kA/SMC-LessonService/internal/service/availability"
)

const (
	msgInvalidOverrideID = "некорректный ID исключения"
	msgMissingUserID     = "отсутствует ID пользователя"
	msgForbidden         = "можно изменять только свое расписание"
	msgNotFound          = "исключение не найдено"
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

// Handle DELETE /api/v1/overrides/{overrideId}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	overrideID, err := handlers.PathInt64(r, "overrideId")
	if err != nil {
		h.logger.Warn("DELETE /overrides/{id} - Invalid override ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidOverrideID)
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("DELETE /overrides/{id} - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	result, err := h.service.DeleteOverride(r.Context(), userID, overrideID)
	if err != nil {
		switch {
		case errors.Is(err, availability.ErrOverrideNotFound):
			h.logger.Warn("DELETE /overrides/{id} - Override not found: override_id=%d", overrideID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, availability.ErrAccessDenied):
			h.logger.Warn("DELETE /overrides/{id} - Access denied: override_id=%d, user_id=%d", overrideID, userID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, availability.ErrInvalidInput):
			handlers.RespondBadRequest(w, msgInvalidOverrideID)

		default:
			h.logger.Error("DELETE /overrides/{id} - Failed to delete override: override_id=%d, error=%v",
				overrideID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("DELETE /overrides/{id} - Override deleted: override_id=%d, affected=%d",
		overrideID, len(result.AffectedBookings))
	handlers.RespondJSON(w, http.StatusOK, result)
}
