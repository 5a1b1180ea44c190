package userservice

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/internal/users/7":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":7,"name":"Anna","role":"instructor"}`))
		case "/internal/users/11":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":11,"name":"Oleg","role":"member"}`))
		case "/internal/users/500":
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("boom"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_GetProfile(t *testing.T) {
	srv := newTestServer(t)
	client := NewClient(srv.URL, time.Second, nopLogger{})

	profile, err := client.GetProfile(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "Anna", profile.Name)
	assert.True(t, profile.IsInstructor())

	_, err = client.GetProfile(context.Background(), 99)
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = client.GetProfile(context.Background(), 500)
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestClient_GetProfileWithGracefulDegradation(t *testing.T) {
	srv := newTestServer(t)
	client := NewClient(srv.URL, time.Second, nopLogger{})

	_, err := client.GetProfileWithGracefulDegradation(context.Background(), 99)
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = client.GetProfileWithGracefulDegradation(context.Background(), 500)
	assert.ErrorIs(t, err, ErrServiceDegraded)

	down := NewClient("http://127.0.0.1:1", 100*time.Millisecond, nopLogger{})
	_, err = down.GetProfileWithGracefulDegradation(context.Background(), 7)
	assert.ErrorIs(t, err, ErrServiceDegraded)
}

func TestClient_GetNames(t *testing.T) {
	srv := newTestServer(t)
	client := NewClient(srv.URL, time.Second, nopLogger{})

	names := client.GetNames(context.Background(), []int64{7, 11, 7, 500, 99})

	assert.Equal(t, map[int64]string{7: "Anna", 11: "Oleg"}, names)
}
