package get_available_slots

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-LessonService/internal/domain"
	"github.com/m04kA/SMC-LessonService/internal/infra/cache"
	"github.com/m04kA/SMC-LessonService/pkg/ptr"
	"github.com/m04kA/SMC-LessonService/pkg/types"
)

const instructorID int64 = 7

// monday 2025-03-10
var monday = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return monday.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

type mockBookingRepo struct {
	mock.Mock
}

func (m *mockBookingRepo) GetOverlapping(ctx context.Context, id int64, start, end time.Time) ([]*domain.Booking, error) {
	args := m.Called(ctx, id, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Booking), args.Error(1)
}

type mockAvailabilityRepo struct {
	mock.Mock
}

func (m *mockAvailabilityRepo) GetRulesByInstructor(ctx context.Context, id int64, includeInactive bool) ([]*domain.InstructorAvailability, error) {
	args := m.Called(ctx, id, includeInactive)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.InstructorAvailability), args.Error(1)
}

func (m *mockAvailabilityRepo) GetOverrides(ctx context.Context, id int64, from, to time.Time) ([]*domain.AvailabilityOverride, error) {
	args := m.Called(ctx, id, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.AvailabilityOverride), args.Error(1)
}

type fixedTime struct{ now time.Time }

func (f fixedTime) Now() time.Time { return f.now }

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type cacheCounter struct{ hits, misses int }

func (c *cacheCounter) RecordCacheResult(_ string, hit bool) {
	if hit {
		c.hits++
		return
	}
	c.misses++
}

func mondayRule(start, end string, duration int) *domain.InstructorAvailability {
	return &domain.InstructorAvailability{
		ID:                  1,
		InstructorID:        instructorID,
		DayOfWeek:           int(time.Monday),
		StartTime:           types.TimeString(start),
		EndTime:             types.TimeString(end),
		SlotDurationMinutes: duration,
		IsActive:            true,
	}
}

func booking(start, end time.Time, status domain.BookingStatus) *domain.Booking {
	return &domain.Booking{ID: 100, InstructorID: instructorID, MemberID: 11, StartTime: start, EndTime: end, Status: status}
}

type fixture struct {
	uc           *UseCase
	bookings     *mockBookingRepo
	availability *mockAvailabilityRepo
	metrics      *cacheCounter
}

func newFixture(t *testing.T, c Cache, opts Options, now time.Time) *fixture {
	t.Helper()
	f := &fixture{
		bookings:     &mockBookingRepo{},
		availability: &mockAvailabilityRepo{},
		metrics:      &cacheCounter{},
	}
	if c == nil {
		c = cache.NewRepository(nil)
	}
	f.uc = NewUseCase(f.bookings, f.availability, c, f.metrics, opts, nopLogger{})
	f.uc.timeProvider = fixedTime{now: now}
	return f
}

func (f *fixture) expectSchedule(rules []*domain.InstructorAvailability, overrides []*domain.AvailabilityOverride, busy []*domain.Booking) {
	f.availability.On("GetRulesByInstructor", mock.Anything, instructorID, false).Return(rules, nil)
	f.availability.On("GetOverrides", mock.Anything, instructorID, mock.Anything, mock.Anything).Return(overrides, nil)
	f.bookings.On("GetOverlapping", mock.Anything, instructorID, mock.Anything, mock.Anything).Return(busy, nil)
}

func intervals(slots []domain.TimeSlot) [][2]time.Time {
	out := make([][2]time.Time, len(slots))
	for i, s := range slots {
		out[i] = [2]time.Time{s.StartTime.UTC(), s.EndTime.UTC()}
	}
	return out
}

func TestUseCase_Execute(t *testing.T) {
	now := monday.AddDate(0, 0, -1)
	ctx := context.Background()

	t.Run("подтвержденное бронирование убирает пересекающийся слот", func(t *testing.T) {
		f := newFixture(t, nil, Options{}, now)
		f.expectSchedule(
			[]*domain.InstructorAvailability{mondayRule("10:00", "12:00", 60)},
			nil,
			[]*domain.Booking{booking(at(10, 0), at(11, 0), domain.StatusConfirmed)},
		)

		resp, err := f.uc.Execute(ctx, &Request{InstructorID: instructorID, From: monday, To: monday})

		require.NoError(t, err)
		assert.Equal(t, [][2]time.Time{{at(11, 0), at(12, 0)}}, intervals(resp.Slots))
	})

	t.Run("остаток окна короче слота не выдается", func(t *testing.T) {
		f := newFixture(t, nil, Options{}, now)
		f.expectSchedule([]*domain.InstructorAvailability{mondayRule("10:00", "11:20", 60)}, nil, nil)

		resp, err := f.uc.Execute(ctx, &Request{InstructorID: instructorID, From: monday, To: monday})

		require.NoError(t, err)
		assert.Equal(t, [][2]time.Time{{at(10, 0), at(11, 0)}}, intervals(resp.Slots))
	})

	t.Run("частичный blackout режет окно", func(t *testing.T) {
		f := newFixture(t, nil, Options{}, now)
		blackout := &domain.AvailabilityOverride{
			InstructorID: instructorID,
			OverrideDate: monday,
			StartTime:    ptr.Ptr(types.TimeString("14:00")),
			EndTime:      ptr.Ptr(types.TimeString("16:00")),
		}
		f.expectSchedule([]*domain.InstructorAvailability{mondayRule("10:00", "18:00", 120)},
			[]*domain.AvailabilityOverride{blackout}, nil)

		resp, err := f.uc.Execute(ctx, &Request{InstructorID: instructorID, From: monday, To: monday})

		require.NoError(t, err)
		assert.Equal(t, [][2]time.Time{
			{at(10, 0), at(12, 0)},
			{at(12, 0), at(14, 0)},
			{at(16, 0), at(18, 0)},
		}, intervals(resp.Slots))
	})

	t.Run("терминальные бронирования не занимают время", func(t *testing.T) {
		f := newFixture(t, nil, Options{}, now)
		f.expectSchedule(
			[]*domain.InstructorAvailability{mondayRule("10:00", "12:00", 60)},
			nil,
			[]*domain.Booking{booking(at(10, 0), at(11, 0), domain.StatusCancelledByMember)},
		)

		resp, err := f.uc.Execute(ctx, &Request{InstructorID: instructorID, From: monday, To: monday})

		require.NoError(t, err)
		assert.Len(t, resp.Slots, 2)
	})

	t.Run("конец периода раньше начала дает пустой список", func(t *testing.T) {
		f := newFixture(t, nil, Options{}, now)

		resp, err := f.uc.Execute(ctx, &Request{InstructorID: instructorID, From: monday, To: monday.AddDate(0, 0, -1)})

		require.NoError(t, err)
		assert.Empty(t, resp.Slots)
		f.availability.AssertNotCalled(t, "GetRulesByInstructor", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("минимальное время до начала", func(t *testing.T) {
		f := newFixture(t, nil, Options{MinBookingNotice: time.Hour}, at(10, 30))
		f.expectSchedule([]*domain.InstructorAvailability{mondayRule("10:00", "13:00", 60)}, nil, nil)

		resp, err := f.uc.Execute(ctx, &Request{InstructorID: instructorID, From: monday, To: monday})

		require.NoError(t, err)
		assert.Equal(t, [][2]time.Time{{at(12, 0), at(13, 0)}}, intervals(resp.Slots))
	})

	t.Run("период ограничивается MaxRangeDays", func(t *testing.T) {
		f := newFixture(t, nil, Options{MaxRangeDays: 7}, now)
		f.expectSchedule([]*domain.InstructorAvailability{mondayRule("10:00", "11:00", 60)}, nil, nil)

		resp, err := f.uc.Execute(ctx, &Request{InstructorID: instructorID, From: monday, To: monday.AddDate(0, 0, 30)})

		require.NoError(t, err)
		assert.Equal(t, monday.AddDate(0, 0, 6), resp.To)
		assert.Len(t, resp.Slots, 1, "в 7 днях только один понедельник")
	})

	t.Run("ошибка хранилища", func(t *testing.T) {
		f := newFixture(t, nil, Options{}, now)
		f.availability.On("GetRulesByInstructor", mock.Anything, instructorID, false).Return(nil, errors.New("connection refused"))

		_, err := f.uc.Execute(ctx, &Request{InstructorID: instructorID, From: monday, To: monday})

		assert.ErrorIs(t, err, ErrInternal)
	})

	t.Run("некорректный инструктор", func(t *testing.T) {
		f := newFixture(t, nil, Options{}, now)

		_, err := f.uc.Execute(ctx, &Request{From: monday, To: monday})

		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestUseCase_Execute_Cache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	ctx := context.Background()
	f := newFixture(t, cache.NewRepository(client), Options{CacheTTL: time.Minute}, monday.AddDate(0, 0, -1))

	f.availability.On("GetRulesByInstructor", mock.Anything, instructorID, false).
		Return([]*domain.InstructorAvailability{mondayRule("10:00", "12:00", 60)}, nil).Once()
	f.availability.On("GetOverrides", mock.Anything, instructorID, mock.Anything, mock.Anything).
		Return([]*domain.AvailabilityOverride{}, nil).Once()
	f.bookings.On("GetOverlapping", mock.Anything, instructorID, mock.Anything, mock.Anything).
		Return([]*domain.Booking{}, nil).Once()

	req := &Request{InstructorID: instructorID, From: monday, To: monday}

	first, err := f.uc.Execute(ctx, req)
	require.NoError(t, err)
	second, err := f.uc.Execute(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, intervals(first.Slots), intervals(second.Slots))
	assert.True(t, mr.Exists(cache.SlotsKey(instructorID, monday, monday)))
	assert.Equal(t, 1, f.metrics.hits)
	assert.Equal(t, 1, f.metrics.misses)
	f.availability.AssertExpectations(t)
	f.bookings.AssertExpectations(t)
}

func TestGenerateSlots_Idempotent(t *testing.T) {
	windows := []domain.Window{
		{Interval: domain.Interval{Start: at(14, 0), End: at(16, 0)}, SlotDurationMinutes: 60},
		{Interval: domain.Interval{Start: at(9, 0), End: at(10, 30)}, SlotDurationMinutes: 45},
	}
	busy := []*domain.Booking{booking(at(14, 30), at(15, 0), domain.StatusPending)}

	first := generateSlots(instructorID, windows, busy)
	second := generateSlots(instructorID, windows, busy)

	assert.Equal(t, first, second)
	assert.Equal(t, [][2]time.Time{
		{at(9, 0), at(9, 45)},
		{at(9, 45), at(10, 30)},
		{at(15, 0), at(16, 0)},
	}, intervals(first))
}
