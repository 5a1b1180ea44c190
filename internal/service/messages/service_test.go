package messages

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-LessonService/internal/domain"
	"github.com/m04kA/SMC-LessonService/internal/events"
	"github.com/m04kA/SMC-LessonService/internal/infra/cache"
	bookingRepo "github.com/m04kA/SMC-LessonService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-LessonService/internal/service/messages/models"
)

const (
	instructorID int64 = 7
	memberID     int64 = 11
	strangerID   int64 = 99
)

var now = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

type mockBookingRepo struct {
	mock.Mock
}

func (m *mockBookingRepo) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *mockBookingRepo) GetByFilter(ctx context.Context, filter domain.BookingsFilter) ([]*domain.Booking, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Booking), args.Error(1)
}

type mockMessageRepo struct {
	mock.Mock
}

func (m *mockMessageRepo) Create(ctx context.Context, msg *domain.BookingMessage) (*domain.BookingMessage, error) {
	args := m.Called(ctx, msg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BookingMessage), args.Error(1)
}

func (m *mockMessageRepo) GetByBooking(ctx context.Context, bookingID int64) ([]*domain.BookingMessage, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.BookingMessage), args.Error(1)
}

func (m *mockMessageRepo) GetLatestFromOthers(ctx context.Context, viewerID int64, bookingIDs []int64) (map[int64]*domain.BookingMessage, error) {
	args := m.Called(ctx, viewerID, bookingIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64]*domain.BookingMessage), args.Error(1)
}

func (m *mockMessageRepo) GetReadMarkers(ctx context.Context, userID int64, bookingIDs []int64) (map[int64]time.Time, error) {
	args := m.Called(ctx, userID, bookingIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64]time.Time), args.Error(1)
}

func (m *mockMessageRepo) UpsertReadMarker(ctx context.Context, bookingID, userID int64, readAt time.Time) error {
	return m.Called(ctx, bookingID, userID, readAt).Error(0)
}

type fakeUserClient struct {
	names map[int64]string
	calls int
}

func (c *fakeUserClient) GetNames(_ context.Context, ids []int64) map[int64]string {
	c.calls++
	out := make(map[int64]string, len(ids))
	for _, id := range ids {
		if name, ok := c.names[id]; ok {
			out[id] = name
		}
	}
	return out
}

type fakeTxManager struct{}

func (fakeTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type recordingPublisher struct {
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) {
	p.events = append(p.events, e)
}

type fakeMetrics struct {
	hits, misses int
}

func (m *fakeMetrics) RecordCacheResult(_ string, hit bool) {
	if hit {
		m.hits++
		return
	}
	m.misses++
}

type fixedTime struct{ now time.Time }

func (f fixedTime) Now() time.Time { return f.now }

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type fixture struct {
	svc       *Service
	bookings  *mockBookingRepo
	messages  *mockMessageRepo
	users     *fakeUserClient
	publisher *recordingPublisher
	metrics   *fakeMetrics
}

func newFixture(t *testing.T, c Cache) *fixture {
	t.Helper()
	if c == nil {
		c = cache.NewRepository(nil)
	}
	f := &fixture{
		bookings:  &mockBookingRepo{},
		messages:  &mockMessageRepo{},
		users:     &fakeUserClient{names: map[int64]string{instructorID: "Anna", memberID: "Oleg"}},
		publisher: &recordingPublisher{},
		metrics:   &fakeMetrics{},
	}
	f.svc = NewService(f.bookings, f.messages, f.users, c, fakeTxManager{}, f.publisher, f.metrics, time.Minute, nopLogger{})
	f.svc.timeProvider = fixedTime{now: now}
	return f
}

func newBooking(id int64, status domain.BookingStatus) *domain.Booking {
	return &domain.Booking{
		ID:           id,
		InstructorID: instructorID,
		MemberID:     memberID,
		StartTime:    now.Add(48 * time.Hour),
		EndTime:      now.Add(49 * time.Hour),
		Status:       status,
	}
}

func TestService_SendMessage(t *testing.T) {
	f := newFixture(t, nil)
	b := newBooking(1, domain.StatusConfirmed)
	f.bookings.On("GetByID", mock.Anything, int64(1)).Return(b, nil)
	f.messages.On("Create", mock.Anything, mock.MatchedBy(func(m *domain.BookingMessage) bool {
		return m.BookingID == 1 && m.SenderID == memberID && m.Content == "see you at 10"
	})).Return(&domain.BookingMessage{ID: 5, BookingID: 1, SenderID: memberID, Content: "see you at 10", CreatedAt: now}, nil)
	f.messages.On("UpsertReadMarker", mock.Anything, int64(1), memberID, now).Return(nil)

	resp, err := f.svc.SendMessage(context.Background(), &models.SendMessageRequest{
		BookingID: 1,
		SenderID:  memberID,
		Content:   "  see you at 10 \n",
	})

	require.NoError(t, err)
	assert.Equal(t, int64(5), resp.ID)
	assert.Equal(t, "see you at 10", resp.Content)
	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, events.TypeMessageSent, f.publisher.events[0].Type)
	assert.Equal(t, memberID, f.publisher.events[0].ActorID)
	f.messages.AssertExpectations(t)
}

func TestService_SendMessage_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		req     *models.SendMessageRequest
		setup   func(f *fixture)
		wantErr error
	}{
		{
			name:    "пустое сообщение",
			req:     &models.SendMessageRequest{BookingID: 1, SenderID: memberID, Content: "   "},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "слишком длинное сообщение",
			req:     &models.SendMessageRequest{BookingID: 1, SenderID: memberID, Content: strings.Repeat("a", domain.MaxMessageLength+1)},
			wantErr: ErrInvalidInput,
		},
		{
			name: "не участник",
			req:  &models.SendMessageRequest{BookingID: 1, SenderID: strangerID, Content: "hello"},
			setup: func(f *fixture) {
				f.bookings.On("GetByID", mock.Anything, int64(1)).Return(newBooking(1, domain.StatusPending), nil)
			},
			wantErr: ErrAccessDenied,
		},
		{
			name: "бронирование не найдено",
			req:  &models.SendMessageRequest{BookingID: 1, SenderID: memberID, Content: "hello"},
			setup: func(f *fixture) {
				f.bookings.On("GetByID", mock.Anything, int64(1)).Return(nil, bookingRepo.ErrBookingNotFound)
			},
			wantErr: ErrBookingNotFound,
		},
		{
			name: "ошибка записи",
			req:  &models.SendMessageRequest{BookingID: 1, SenderID: memberID, Content: "hello"},
			setup: func(f *fixture) {
				f.bookings.On("GetByID", mock.Anything, int64(1)).Return(newBooking(1, domain.StatusPending), nil)
				f.messages.On("Create", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))
			},
			wantErr: ErrInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			if tt.setup != nil {
				tt.setup(f)
			}

			resp, err := f.svc.SendMessage(context.Background(), tt.req)

			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, resp)
			assert.Empty(t, f.publisher.events)
		})
	}
}

func TestService_GetMessages(t *testing.T) {
	f := newFixture(t, nil)
	f.bookings.On("GetByID", mock.Anything, int64(1)).Return(newBooking(1, domain.StatusCompleted), nil)
	f.messages.On("GetByBooking", mock.Anything, int64(1)).Return([]*domain.BookingMessage{
		{ID: 1, BookingID: 1, SenderID: memberID, Content: "first", CreatedAt: now},
		{ID: 2, BookingID: 1, SenderID: instructorID, Content: "second", CreatedAt: now.Add(time.Minute)},
	}, nil)

	resp, err := f.svc.GetMessages(context.Background(), 1, instructorID)
	require.NoError(t, err)
	require.Len(t, resp.Messages, 2)
	assert.Equal(t, "first", resp.Messages[0].Content)

	_, err = f.svc.GetMessages(context.Background(), 1, strangerID)
	require.ErrorIs(t, err, ErrAccessDenied)
}

func TestService_MarkRead(t *testing.T) {
	f := newFixture(t, nil)
	f.bookings.On("GetByID", mock.Anything, int64(1)).Return(newBooking(1, domain.StatusPending), nil)
	f.messages.On("UpsertReadMarker", mock.Anything, int64(1), instructorID, now).Return(nil)

	require.NoError(t, f.svc.MarkRead(context.Background(), 1, instructorID))

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, events.TypeThreadRead, f.publisher.events[0].Type)
	f.messages.AssertExpectations(t)
}

func TestService_GetUnread(t *testing.T) {
	f := newFixture(t, nil)
	f.bookings.On("GetByFilter", mock.Anything, mock.MatchedBy(func(filter domain.BookingsFilter) bool {
		return filter.ParticipantID != nil && *filter.ParticipantID == memberID && !filter.IncludeInactive
	})).Return([]*domain.Booking{newBooking(1, domain.StatusPending), newBooking(2, domain.StatusConfirmed), newBooking(3, domain.StatusConfirmed)}, nil)
	f.messages.On("GetLatestFromOthers", mock.Anything, memberID, []int64{1, 2, 3}).Return(map[int64]*domain.BookingMessage{
		1: {ID: 10, BookingID: 1, SenderID: instructorID, Content: "older", CreatedAt: now.Add(-2 * time.Hour)},
		2: {ID: 11, BookingID: 2, SenderID: instructorID, Content: "read already", CreatedAt: now.Add(-3 * time.Hour)},
		3: {ID: 12, BookingID: 3, SenderID: instructorID, Content: "newest", CreatedAt: now.Add(-time.Hour)},
	}, nil)
	f.messages.On("GetReadMarkers", mock.Anything, memberID, []int64{1, 2, 3}).Return(map[int64]time.Time{
		2: now.Add(-2 * time.Hour),
	}, nil)

	resp, err := f.svc.GetUnread(context.Background(), memberID)

	require.NoError(t, err)
	require.Equal(t, 2, resp.Total)
	assert.Equal(t, int64(3), resp.Items[0].BookingID)
	assert.Equal(t, "newest", resp.Items[0].LatestMessage)
	assert.Equal(t, "Anna", resp.Items[0].SenderName)
	assert.Equal(t, int64(1), resp.Items[1].BookingID)
}

func TestService_GetUnread_NoBookings(t *testing.T) {
	f := newFixture(t, nil)
	f.bookings.On("GetByFilter", mock.Anything, mock.Anything).Return([]*domain.Booking{}, nil)

	resp, err := f.svc.GetUnread(context.Background(), memberID)

	require.NoError(t, err)
	assert.Equal(t, 0, resp.Total)
	assert.NotNil(t, resp.Items)
	f.messages.AssertNotCalled(t, "GetLatestFromOthers", mock.Anything, mock.Anything, mock.Anything)
	assert.Zero(t, f.users.calls)
}

func TestService_GetUnread_Cached(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	f := newFixture(t, cache.NewRepository(client))
	f.bookings.On("GetByFilter", mock.Anything, mock.Anything).Return([]*domain.Booking{newBooking(1, domain.StatusPending)}, nil).Once()
	f.messages.On("GetLatestFromOthers", mock.Anything, memberID, []int64{1}).Return(map[int64]*domain.BookingMessage{
		1: {ID: 10, BookingID: 1, SenderID: instructorID, Content: "hi", CreatedAt: now.Add(-time.Hour)},
	}, nil).Once()
	f.messages.On("GetReadMarkers", mock.Anything, memberID, []int64{1}).Return(map[int64]time.Time{}, nil).Once()

	first, err := f.svc.GetUnread(context.Background(), memberID)
	require.NoError(t, err)
	assert.True(t, mr.Exists(cache.UnreadKey(memberID)))

	second, err := f.svc.GetUnread(context.Background(), memberID)
	require.NoError(t, err)

	assert.Equal(t, first.Total, second.Total)
	assert.Equal(t, first.Items[0].BookingID, second.Items[0].BookingID)
	assert.Equal(t, 1, f.metrics.misses)
	assert.Equal(t, 1, f.metrics.hits)
	f.bookings.AssertNumberOfCalls(t, "GetByFilter", 1)
}

func TestService_GetUnread_RepositoryError(t *testing.T) {
	f := newFixture(t, nil)
	f.bookings.On("GetByFilter", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))

	_, err := f.svc.GetUnread(context.Background(), memberID)

	require.ErrorIs(t, err, ErrInternal)
}
