package cancel_booking

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/m04kA/SMC-LessonService/internal/api/middleware"
	"github.com/m04kA/SMC-LessonService/internal/service/bookings"
	"github.com/m04kA/SMC-LessonService/internal/service/bookings/models"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) Cancel(ctx context.Context, bookingID int64, req *models.TransitionRequest) (*models.BookingResponse, error) {
	args := m.Called(ctx, bookingID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BookingResponse), args.Error(1)
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func serve(svc BookingService, bookingID string, body string) *httptest.ResponseRecorder {
	r := mux.NewRouter()
	r.HandleFunc("/bookings/{bookingId}/cancel", NewHandler(svc, nopLogger{}).Handle).Methods(http.MethodPatch)

	req := httptest.NewRequest(http.MethodPatch, "/bookings/"+bookingID+"/cancel", strings.NewReader(body))
	req = req.WithContext(middleware.WithUserID(req.Context(), 3))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandle_EmptyBody(t *testing.T) {
	svc := &mockService{}
	svc.On("Cancel", mock.Anything, int64(7), &models.TransitionRequest{UserID: 3}).
		Return(&models.BookingResponse{ID: 7, Status: "cancelled_by_member"}, nil)

	rec := serve(svc, "7", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "cancelled_by_member")
	svc.AssertExpectations(t)
}

func TestHandle_WithReason(t *testing.T) {
	svc := &mockService{}
	svc.On("Cancel", mock.Anything, int64(7), mock.MatchedBy(func(r *models.TransitionRequest) bool {
		return r.UserID == 3 && r.Reason != nil && *r.Reason == "заболел"
	})).Return(&models.BookingResponse{ID: 7}, nil)

	rec := serve(svc, "7", `{"cancellationReason":"заболел"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestHandle_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "окно отмены", err: bookings.ErrCancellationWindow, wantStatus: http.StatusUnprocessableEntity},
		{name: "уже изменено", err: bookings.ErrInvalidState, wantStatus: http.StatusConflict},
		{name: "не участник", err: bookings.ErrAccessDenied, wantStatus: http.StatusForbidden},
		{name: "не найдено", err: bookings.ErrBookingNotFound, wantStatus: http.StatusNotFound},
		{name: "внутренняя ошибка", err: bookings.ErrInternal, wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockService{}
			svc.On("Cancel", mock.Anything, int64(7), mock.Anything).Return(nil, tt.err)

			rec := serve(svc, "7", "")

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestHandle_InvalidBookingID(t *testing.T) {
	svc := &mockService{}

	rec := serve(svc, "abc", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "Cancel", mock.Anything, mock.Anything, mock.Anything)
}
