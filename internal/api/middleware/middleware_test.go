package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuth(t *testing.T) {
	var gotUserID int64
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, _ = GetUserID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantUserID int64
	}{
		{name: "валидный заголовок", header: "42", wantStatus: http.StatusNoContent, wantUserID: 42},
		{name: "нет заголовка", header: "", wantStatus: http.StatusUnauthorized},
		{name: "не число", header: "abc", wantStatus: http.StatusUnauthorized},
		{name: "не положительный", header: "0", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotUserID = 0
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(UserIDHeader, tt.header)
			}
			rec := httptest.NewRecorder()

			Auth(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantUserID, gotUserID)
		})
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	t.Run("генерирует новый", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		_, err := uuid.Parse(seen)
		require.NoError(t, err)
		assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
	})

	t.Run("пробрасывает входящий", func(t *testing.T) {
		incoming := uuid.NewString()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, incoming)
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, req)

		assert.Equal(t, incoming, seen)
	})
}

type fakeHTTPRecorder struct {
	method, route string
	status        int
}

func (f *fakeHTTPRecorder) RecordHTTPRequest(method, route string, status int, _ time.Duration) {
	f.method, f.route, f.status = method, route, status
}

func TestMetricsMiddleware_UsesRouteTemplate(t *testing.T) {
	recorder := &fakeHTTPRecorder{}
	r := mux.NewRouter()
	r.Use(MetricsMiddleware(recorder))
	r.HandleFunc("/bookings/{bookingId}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}).Methods(http.MethodGet)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bookings/123", nil))

	assert.Equal(t, http.MethodGet, recorder.method)
	assert.Equal(t, "/bookings/{bookingId}", recorder.route)
	assert.Equal(t, http.StatusNotFound, recorder.status)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	fixed := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return fixed }

	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(method string, userID int64) int {
		req := httptest.NewRequest(method, "/bookings", nil)
		req = req.WithContext(WithUserID(req.Context(), userID))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do(http.MethodPost, 1))
	assert.Equal(t, http.StatusOK, do(http.MethodPost, 1))
	assert.Equal(t, http.StatusTooManyRequests, do(http.MethodPost, 1))

	// другой пользователь со своим bucket
	assert.Equal(t, http.StatusOK, do(http.MethodPost, 2))

	// чтение не ограничивается
	assert.Equal(t, http.StatusOK, do(http.MethodGet, 1))

	// через секунду bucket пополняется на один токен
	fixed = fixed.Add(time.Second)
	assert.Equal(t, http.StatusOK, do(http.MethodPost, 1))
	assert.Equal(t, http.StatusTooManyRequests, do(http.MethodPost, 1))
}
