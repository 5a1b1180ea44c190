package create_booking

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-LessonService/internal/api/middleware"
	"github.com/m04kA/SMC-LessonService/internal/domain"
	createBooking "github.com/m04kA/SMC-LessonService/internal/usecase/create_booking"
)

type mockUseCase struct {
	mock.Mock
}

func (m *mockUseCase) Execute(ctx context.Context, req *createBooking.Request) (*createBooking.Response, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*createBooking.Response), args.Error(1)
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

var (
	slotStart = time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)
	slotEnd   = slotStart.Add(time.Hour)
)

func newRequest(t *testing.T, userID int64, body interface{}) *http.Request {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", bytes.NewReader(raw))
	if userID > 0 {
		req = req.WithContext(middleware.WithUserID(req.Context(), userID))
	}
	return req
}

func validBody() map[string]interface{} {
	return map[string]interface{}{
		"instructorId": 5,
		"startTime":    slotStart.Format(time.RFC3339),
		"endTime":      slotEnd.Format(time.RFC3339),
	}
}

func TestHandle_Created(t *testing.T) {
	uc := &mockUseCase{}
	uc.On("Execute", mock.Anything, mock.MatchedBy(func(r *createBooking.Request) bool {
		return r.ActorID == 9 && r.InstructorID == 5 && r.MemberID == 0 &&
			r.StartTime.Equal(slotStart) && r.EndTime.Equal(slotEnd)
	})).Return(&createBooking.Response{Booking: &domain.Booking{
		ID:           1,
		InstructorID: 5,
		MemberID:     9,
		StartTime:    slotStart,
		EndTime:      slotEnd,
		Status:       domain.StatusPending,
	}}, nil)

	rec := httptest.NewRecorder()
	NewHandler(uc, nopLogger{}).Handle(rec, newRequest(t, 9, validBody()))

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "pending", resp["status"])
	assert.Equal(t, float64(60), resp["durationMinutes"])
	uc.AssertExpectations(t)
}

func TestHandle_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "слот занят", err: createBooking.ErrSlotNotAvailable, wantStatus: http.StatusConflict},
		{name: "не совпадает со слотом", err: createBooking.ErrInvalidTimeSlot, wantStatus: http.StatusBadRequest},
		{name: "прошедшее время", err: createBooking.ErrBookingInPast, wantStatus: http.StatusBadRequest},
		{name: "чужое бронирование", err: createBooking.ErrAccessDenied, wantStatus: http.StatusForbidden},
		{name: "нет инструктора", err: createBooking.ErrInstructorNotFound, wantStatus: http.StatusNotFound},
		{name: "внутренняя ошибка", err: createBooking.ErrInternal, wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &mockUseCase{}
			uc.On("Execute", mock.Anything, mock.Anything).Return(nil, tt.err)

			rec := httptest.NewRecorder()
			NewHandler(uc, nopLogger{}).Handle(rec, newRequest(t, 9, validBody()))

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestHandle_BadRequests(t *testing.T) {
	missingInstructor := validBody()
	delete(missingInstructor, "instructorId")

	reversed := validBody()
	reversed["endTime"] = slotStart.Add(-time.Hour).Format(time.RFC3339)

	unknown := validBody()
	unknown["price"] = 1000

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{name: "нет инструктора", body: missingInstructor},
		{name: "конец раньше начала", body: reversed},
		{name: "неизвестное поле", body: unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &mockUseCase{}

			rec := httptest.NewRecorder()
			NewHandler(uc, nopLogger{}).Handle(rec, newRequest(t, 9, tt.body))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			uc.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
		})
	}
}

func TestHandle_MissingUser(t *testing.T) {
	uc := &mockUseCase{}

	rec := httptest.NewRecorder()
	NewHandler(uc, nopLogger{}).Handle(rec, newRequest(t, 0, validBody()))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
