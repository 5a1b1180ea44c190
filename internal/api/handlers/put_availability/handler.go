package put_availability

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-LessonService/internal/api/handlers"
	"github.com/m04kA/SMC-LessonService/internal/api/middleware"
	"github.com/m04kA/SMC-LessonService/internal/service/availability"
)

const (
	msgInvalidInstructorID = "некорректный ID инструктора"
	msgInvalidRequestBody  = "некорректное тело запроса"
	msgMissingUserID       = "отсутствует ID пользователя"
	msgForbidden           = "можно изменять только свое расписание"
	msgNotFound            = "правило расписания не найдено"
	msgConflict            = "правило пересекается с другим активным правилом этого дня"
	msgInvalidInput        = "некорректное правило расписания"
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

// Handle PUT /api/v1/instructors/{instructorId}/availability
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	instructorID, err := handlers.PathInt64(r, "instructorId")
	if err != nil {
		h.logger.Warn("PUT /instructors/{id}/availability - Invalid instructor ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidInstructorID)
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("PUT /instructors/{id}/availability - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req PutAvailabilityRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PUT /instructors/{id}/availability - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.service.PutAvailability(r.Context(), req.ToServiceRequest(userID, instructorID))
	if err != nil {
		switch {
		case errors.Is(err, availability.ErrAccessDenied):
			h.logger.Warn("PUT /instructors/{id}/availability - Access denied: instructor_id=%d, user_id=%d",
				instructorID, userID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, availability.ErrAvailabilityNotFound):
			h.logger.Warn("PUT /instructors/{id}/availability - Rule not found: instructor_id=%d", instructorID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, availability.ErrAvailabilityConflict):
			h.logger.Warn("PUT /instructors/{id}/availability - Overlapping rule: instructor_id=%d, day=%d",
				instructorID, req.DayOfWeek)
			handlers.RespondConflict(w, msgConflict)

		case errors.Is(err, availability.ErrInvalidInput):
			h.logger.Warn("PUT /instructors/{id}/availability - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		default:
			h.logger.Error("PUT /instructors/{id}/availability - Failed to save rule: instructor_id=%d, error=%v",
				instructorID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PUT /instructors/{id}/availability - Rule saved: rule_id=%d, instructor_id=%d, affected=%d",
		result.Rule.ID, instructorID, len(result.AffectedBookings))
	handlers.RespondJSON(w, http.StatusOK, result)
}
