package get_available_slots

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-LessonService/internal/api/handlers"
	getAvailableSlots "github.com/m04kA/SMC-LessonService/internal/usecase/get_available_slots"
)

const (
	msgInvalidInstructorID = "некорректный ID инструктора"
	msgMissingDates        = "параметры from и to обязательны"
	msgInvalidDate         = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgInvalidInput        = "некорректные параметры запроса"
)

type Handler struct {
	useCase GetAvailableSlotsUseCase
	logger  Logger
}

func NewHandler(useCase GetAvailableSlotsUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle GET /api/v1/instructors/{instructorId}/slots
// Query params: from, to (required, YYYY-MM-DD, включительно)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	instructorID, err := handlers.PathInt64(r, "instructorId")
	if err != nil {
		h.logger.Warn("GET /instructors/{id}/slots - Invalid instructor ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidInstructorID)
		return
	}

	from, err := handlers.QueryDate(r, "from")
	if err != nil {
		h.logger.Warn("GET /instructors/{id}/slots - Invalid from: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}
	to, err := handlers.QueryDate(r, "to")
	if err != nil {
		h.logger.Warn("GET /instructors/{id}/slots - Invalid to: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}
	if from == nil || to == nil {
		h.logger.Warn("GET /instructors/{id}/slots - Missing date range")
		handlers.RespondBadRequest(w, msgMissingDates)
		return
	}

	result, err := h.useCase.Execute(r.Context(), &getAvailableSlots.Request{
		InstructorID: instructorID,
		From:         *from,
		To:           *to,
	})
	if err != nil {
		switch {
		case errors.Is(err, getAvailableSlots.ErrInvalidInput):
			h.logger.Warn("GET /instructors/{id}/slots - Invalid input: instructor_id=%d, error=%v", instructorID, err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		default:
			h.logger.Error("GET /instructors/{id}/slots - Failed to get slots: instructor_id=%d, error=%v",
				instructorID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /instructors/{id}/slots - Slots retrieved successfully: instructor_id=%d, slots_count=%d",
		instructorID, len(result.Slots))
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}
