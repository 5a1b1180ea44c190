package create_booking

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-LessonService/internal/domain"
	"github.com/m04kA/SMC-LessonService/internal/events"
	bookingRepo "github.com/m04kA/SMC-LessonService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-LessonService/internal/integrations/userservice"
	"github.com/m04kA/SMC-LessonService/pkg/ptr"
	"github.com/m04kA/SMC-LessonService/pkg/txmanager"
	"github.com/m04kA/SMC-LessonService/pkg/types"
)

const (
	instructorID int64 = 7
	memberID     int64 = 11
)

// monday 2025-03-10
var monday = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return monday.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

type mockBookingRepo struct {
	mock.Mock
}

func (m *mockBookingRepo) Create(ctx context.Context, b *domain.Booking) (*domain.Booking, error) {
	args := m.Called(ctx, b)
	if fn, ok := args.Get(0).(func(context.Context, *domain.Booking) *domain.Booking); ok {
		return fn(ctx, b), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
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

type fakeUserClient struct {
	profile *userservice.Profile
	err     error
}

func (c *fakeUserClient) GetProfileWithGracefulDegradation(context.Context, int64) (*userservice.Profile, error) {
	return c.profile, c.err
}

// fakeTxManager выполняет функцию без БД и может вернуть ошибку коммита
type fakeTxManager struct {
	commitErr error
}

func (m *fakeTxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := fn(ctx); err != nil {
		return err
	}
	return m.commitErr
}

type recordingPublisher struct {
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) {
	p.events = append(p.events, e)
}

type fixedTime struct{ now time.Time }

func (f fixedTime) Now() time.Time { return f.now }

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type fixture struct {
	uc           *UseCase
	bookings     *mockBookingRepo
	availability *mockAvailabilityRepo
	users        *fakeUserClient
	tx           *fakeTxManager
	publisher    *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		bookings:     &mockBookingRepo{},
		availability: &mockAvailabilityRepo{},
		users: &fakeUserClient{profile: &userservice.Profile{
			ID: instructorID, Name: "Anna", Role: userservice.RoleInstructor,
		}},
		tx:        &fakeTxManager{},
		publisher: &recordingPublisher{},
	}
	f.uc = NewUseCase(f.bookings, f.availability, f.users, f.tx, f.publisher, nil, Options{}, nopLogger{})
	f.uc.timeProvider = fixedTime{now: monday.AddDate(0, 0, -1)}
	return f
}

func (f *fixture) withMondaySchedule() {
	f.availability.On("GetRulesByInstructor", mock.Anything, instructorID, false).
		Return([]*domain.InstructorAvailability{{
			ID:                  1,
			InstructorID:        instructorID,
			DayOfWeek:           int(time.Monday),
			StartTime:           types.TimeString("10:00"),
			EndTime:             types.TimeString("12:00"),
			SlotDurationMinutes: 60,
			IsActive:            true,
		}}, nil)
	f.availability.On("GetOverrides", mock.Anything, instructorID, monday, monday).
		Return([]*domain.AvailabilityOverride{}, nil)
}

func (f *fixture) expectCreate() {
	f.bookings.On("Create", mock.Anything, mock.MatchedBy(func(b *domain.Booking) bool {
		return b.Status == domain.StatusPending
	})).Return(func(_ context.Context, b *domain.Booking) *domain.Booking {
		created := *b
		created.ID = 42
		return &created
	}, nil)
}

func memberRequest(start, end time.Time) *Request {
	return &Request{ActorID: memberID, InstructorID: instructorID, StartTime: start, EndTime: end}
}

func TestUseCase_Execute_Success(t *testing.T) {
	f := newFixture(t)
	f.withMondaySchedule()
	f.bookings.On("GetOverlapping", mock.Anything, instructorID, at(11, 0), at(12, 0)).Return([]*domain.Booking{}, nil)
	f.expectCreate()

	resp, err := f.uc.Execute(context.Background(), memberRequest(at(11, 0), at(12, 0)))

	require.NoError(t, err)
	assert.Equal(t, int64(42), resp.Booking.ID)
	assert.Equal(t, memberID, resp.Booking.MemberID)
	assert.Equal(t, domain.StatusPending, resp.Booking.Status)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, events.TypeBookingCreated, f.publisher.events[0].Type)
	assert.Equal(t, int64(42), f.publisher.events[0].BookingID)
}

func TestUseCase_Execute_Conflicts(t *testing.T) {
	existing := &domain.Booking{
		ID: 5, InstructorID: instructorID, MemberID: 99,
		StartTime: at(11, 0), EndTime: at(12, 0), Status: domain.StatusPending,
	}

	t.Run("пересечение с активным бронированием", func(t *testing.T) {
		f := newFixture(t)
		f.withMondaySchedule()
		f.bookings.On("GetOverlapping", mock.Anything, instructorID, at(11, 0), at(12, 0)).
			Return([]*domain.Booking{existing}, nil)

		_, err := f.uc.Execute(context.Background(), memberRequest(at(11, 0), at(12, 0)))

		assert.ErrorIs(t, err, ErrSlotNotAvailable)
		f.bookings.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		assert.Empty(t, f.publisher.events)
	})

	t.Run("ограничение БД", func(t *testing.T) {
		f := newFixture(t)
		f.withMondaySchedule()
		f.bookings.On("GetOverlapping", mock.Anything, instructorID, mock.Anything, mock.Anything).
			Return([]*domain.Booking{}, nil)
		f.bookings.On("Create", mock.Anything, mock.Anything).
			Return(nil, fmt.Errorf("%w: Create - execute insert", bookingRepo.ErrOverlap))

		_, err := f.uc.Execute(context.Background(), memberRequest(at(10, 0), at(11, 0)))

		assert.ErrorIs(t, err, ErrSlotNotAvailable)
	})

	t.Run("конфликт сериализации", func(t *testing.T) {
		f := newFixture(t)
		f.withMondaySchedule()
		f.tx.commitErr = fmt.Errorf("%w: could not serialize access", txmanager.ErrSerializationFailure)
		f.bookings.On("GetOverlapping", mock.Anything, instructorID, mock.Anything, mock.Anything).
			Return([]*domain.Booking{}, nil)
		f.expectCreate()

		_, err := f.uc.Execute(context.Background(), memberRequest(at(10, 0), at(11, 0)))

		assert.ErrorIs(t, err, ErrSlotNotAvailable)
		assert.Empty(t, f.publisher.events)
	})
}

func TestUseCase_Execute_SlotMatching(t *testing.T) {
	t.Run("ученик не может выбрать произвольный интервал", func(t *testing.T) {
		f := newFixture(t)
		f.withMondaySchedule()

		_, err := f.uc.Execute(context.Background(), memberRequest(at(10, 30), at(11, 30)))

		assert.ErrorIs(t, err, ErrInvalidTimeSlot)
	})

	t.Run("blackout убирает слот", func(t *testing.T) {
		f := newFixture(t)
		f.availability.On("GetRulesByInstructor", mock.Anything, instructorID, false).
			Return([]*domain.InstructorAvailability{{
				InstructorID: instructorID, DayOfWeek: int(time.Monday),
				StartTime: "10:00", EndTime: "12:00", SlotDurationMinutes: 60, IsActive: true,
			}}, nil)
		f.availability.On("GetOverrides", mock.Anything, instructorID, monday, monday).
			Return([]*domain.AvailabilityOverride{{InstructorID: instructorID, OverrideDate: monday}}, nil)

		_, err := f.uc.Execute(context.Background(), memberRequest(at(10, 0), at(11, 0)))

		assert.ErrorIs(t, err, ErrInvalidTimeSlot)
	})

	t.Run("инструктор записывает ученика на любое время", func(t *testing.T) {
		f := newFixture(t)
		f.bookings.On("GetOverlapping", mock.Anything, instructorID, at(19, 15), at(20, 0)).
			Return([]*domain.Booking{}, nil)
		f.expectCreate()

		resp, err := f.uc.Execute(context.Background(), &Request{
			ActorID:      instructorID,
			InstructorID: instructorID,
			MemberID:     memberID,
			StartTime:    at(19, 15),
			EndTime:      at(20, 0),
			Notes:        ptr.Ptr("пробное занятие"),
		})

		require.NoError(t, err)
		assert.Equal(t, memberID, resp.Booking.MemberID)
		f.availability.AssertNotCalled(t, "GetRulesByInstructor", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestUseCase_Execute_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		req     *Request
		users   *fakeUserClient
		wantErr error
	}{
		{
			name:    "посторонний пользователь",
			req:     &Request{ActorID: 99, InstructorID: instructorID, MemberID: memberID, StartTime: at(10, 0), EndTime: at(11, 0)},
			wantErr: ErrAccessDenied,
		},
		{
			name:    "ученик и инструктор совпадают",
			req:     &Request{ActorID: instructorID, InstructorID: instructorID, StartTime: at(10, 0), EndTime: at(11, 0)},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "начало после конца",
			req:     memberRequest(at(11, 0), at(10, 0)),
			wantErr: ErrInvalidInput,
		},
		{
			name:    "прошедшее время",
			req:     memberRequest(monday.AddDate(0, 0, -7).Add(10*time.Hour), monday.AddDate(0, 0, -7).Add(11*time.Hour)),
			wantErr: ErrBookingInPast,
		},
		{
			name:    "инструктор не найден",
			req:     memberRequest(at(10, 0), at(11, 0)),
			users:   &fakeUserClient{err: userservice.ErrUserNotFound},
			wantErr: ErrInstructorNotFound,
		},
		{
			name:    "пользователь не инструктор",
			req:     memberRequest(at(10, 0), at(11, 0)),
			users:   &fakeUserClient{profile: &userservice.Profile{ID: instructorID, Role: userservice.RoleMember}},
			wantErr: ErrInstructorNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.users != nil {
				f.uc.userClient = tt.users
			}

			_, err := f.uc.Execute(context.Background(), tt.req)

			assert.ErrorIs(t, err, tt.wantErr)
			f.bookings.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestUseCase_Execute_UserServiceDegraded(t *testing.T) {
	f := newFixture(t)
	f.uc.userClient = &fakeUserClient{err: fmt.Errorf("%w: timeout", userservice.ErrServiceDegraded)}
	f.withMondaySchedule()
	f.bookings.On("GetOverlapping", mock.Anything, instructorID, mock.Anything, mock.Anything).Return([]*domain.Booking{}, nil)
	f.expectCreate()

	_, err := f.uc.Execute(context.Background(), memberRequest(at(10, 0), at(11, 0)))

	assert.NoError(t, err)
}
