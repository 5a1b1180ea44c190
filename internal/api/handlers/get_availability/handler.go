package get_availability

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-LessonService/internal/api/handlers"
	"github.com/m04kA/SMC-LessonService/internal/service/availability"
)

const (
	msgInvalidInstructorID = "некорректный ID инструктора"
	msgInvalidBool         = "некорректное значение includeInactive"
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

// Handle GET /api/v1/instructors/{instructorId}/availability
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	instructorID, err := handlers.PathInt64(r, "instructorId")
	if err != nil {
		h.logger.Warn("GET /instructors/{id}/availability - Invalid instructor ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidInstructorID)
		return
	}

	includeInactive, err := handlers.QueryBool(r, "includeInactive")
	if err != nil {
		h.logger.Warn("GET /instructors/{id}/availability - Invalid includeInactive: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBool)
		return
	}

	result, err := h.service.GetAvailability(r.Context(), instructorID, includeInactive)
	if err != nil {
		if errors.Is(err, availability.ErrInvalidInput) {
			handlers.RespondBadRequest(w, msgInvalidInstructorID)
			return
		}
		h.logger.Error("GET /instructors/{id}/availability - Failed to get availability: instructor_id=%d, error=%v",
			instructorID, err)
		handlers.RespondInternalError(w)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}
