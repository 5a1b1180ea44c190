package get_overrides

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-LessonService/internal/api/handlers"
	"github.com/m04kA/SMC-LessonService/internal/service/availability"
)

const (
	msgInvalidInstructorID = "некорректный ID инструктора"
	msgMissingDates        = "параметры from и to обязательны"
	msgInvalidDate         = "некорректный формат даты, ожидается YYYY-MM-DD"
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

// Handle GET /api/v1/instructors/{instructorId}/overrides
// Query params: from, to (required, YYYY-MM-DD)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	instructorID, err := handlers.PathInt64(r, "instructorId")
	if err != nil {
		h.logger.Warn("GET /instructors/{id}/overrides - Invalid instructor ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidInstructorID)
		return
	}

	from, errFrom := handlers.QueryDate(r, "from")
	to, errTo := handlers.QueryDate(r, "to")
	if errFrom != nil || errTo != nil {
		h.logger.Warn("GET /instructors/{id}/overrides - Invalid date range: from=%v, to=%v", errFrom, errTo)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}
	if from == nil || to == nil {
		handlers.RespondBadRequest(w, msgMissingDates)
		return
	}

	result, err := h.service.GetOverrides(r.Context(), instructorID, *from, *to)
	if err != nil {
		if errors.Is(err, availability.ErrInvalidInput) {
			handlers.RespondBadRequest(w, msgInvalidInstructorID)
			return
		}
		h.logger.Error("GET /instructors/{id}/overrides - Failed to get overrides: instructor_id=%d, error=%v",
			instructorID, err)
		handlers.RespondInternalError(w)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}
