package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func bookingAt(status BookingStatus, start time.Time) *Booking {
	return &Booking{
		ID:           1,
		InstructorID: 10,
		MemberID:     20,
		StartTime:    start,
		EndTime:      start.Add(time.Hour),
		Status:       status,
		CreatedAt:    now.Add(-time.Hour),
	}
}

func TestRoleOf(t *testing.T) {
	b := bookingAt(StatusPending, now)
	assert.Equal(t, RoleInstructor, RoleOf(b, 10))
	assert.Equal(t, RoleMember, RoleOf(b, 20))
	assert.Equal(t, RoleNone, RoleOf(b, 30))
}

func TestCheckTransition_CancellationWindow(t *testing.T) {
	policy := DefaultLifecyclePolicy()
	b := bookingAt(StatusConfirmed, now.Add(23*time.Hour))

	assert.ErrorIs(t, CheckTransition(b, RoleMember, StatusCancelledByMember, now, policy), ErrCancellationWindow)
	assert.NoError(t, CheckTransition(b, RoleInstructor, StatusCancelledByInstructor, now, policy))

	exactly := bookingAt(StatusConfirmed, now.Add(24*time.Hour))
	assert.NoError(t, CheckTransition(exactly, RoleMember, StatusCancelledByMember, now, policy))

	pending := bookingAt(StatusPending, now.Add(time.Hour))
	assert.NoError(t, CheckTransition(pending, RoleMember, StatusCancelledByMember, now, policy))
}

func TestCheckTransition_TerminalImmutable(t *testing.T) {
	policy := DefaultLifecyclePolicy()
	roles := []Role{RoleMember, RoleInstructor, RoleSystem, RoleNone}
	targets := []BookingStatus{
		StatusPending, StatusConfirmed, StatusCompleted, StatusDeclined,
		StatusCancelledByMember, StatusCancelledByInstructor, StatusNoShow, StatusExpired,
	}

	for _, from := range TerminalStatuses {
		for _, role := range roles {
			for _, to := range targets {
				b := bookingAt(from, now.Add(-48*time.Hour))
				err := CheckTransition(b, role, to, now, policy)
				assert.ErrorIs(t, err, ErrTransitionNotAllowed, "from=%s role=%s to=%s", from, role, to)
			}
		}
	}
}

func TestCheckTransition_Rights(t *testing.T) {
	policy := DefaultLifecyclePolicy()
	future := now.Add(72 * time.Hour)

	tests := []struct {
		name    string
		from    BookingStatus
		start   time.Time
		role    Role
		to      BookingStatus
		wantErr error
	}{
		{"instructor confirms", StatusPending, future, RoleInstructor, StatusConfirmed, nil},
		{"member cannot confirm", StatusPending, future, RoleMember, StatusConfirmed, ErrActorNotAllowed},
		{"stranger cannot confirm", StatusPending, future, RoleNone, StatusConfirmed, ErrActorNotAllowed},
		{"confirm twice", StatusConfirmed, future, RoleInstructor, StatusConfirmed, ErrTransitionNotAllowed},
		{"instructor declines", StatusPending, future, RoleInstructor, StatusDeclined, nil},
		{"decline confirmed", StatusConfirmed, future, RoleInstructor, StatusDeclined, ErrTransitionNotAllowed},
		{"member cannot decline", StatusPending, future, RoleMember, StatusDeclined, ErrActorNotAllowed},
		{"member cannot cancel as instructor", StatusPending, future, RoleMember, StatusCancelledByInstructor, ErrActorNotAllowed},
		{"no-show before start", StatusConfirmed, future, RoleInstructor, StatusNoShow, ErrTooEarly},
		{"no-show after start", StatusConfirmed, now.Add(-10 * time.Minute), RoleInstructor, StatusNoShow, nil},
		{"no-show on pending", StatusPending, now.Add(-10 * time.Minute), RoleInstructor, StatusNoShow, ErrTransitionNotAllowed},
		{"complete during lesson", StatusConfirmed, now.Add(-30 * time.Minute), RoleInstructor, StatusCompleted, ErrTooEarly},
		{"complete after lesson", StatusConfirmed, now.Add(-2 * time.Hour), RoleInstructor, StatusCompleted, nil},
		{"member cannot complete", StatusConfirmed, now.Add(-2 * time.Hour), RoleMember, StatusCompleted, ErrActorNotAllowed},
		{"only system expires", StatusPending, now.Add(-time.Hour), RoleInstructor, StatusExpired, ErrActorNotAllowed},
		{"system expires past pending", StatusPending, now.Add(-time.Hour), RoleSystem, StatusExpired, nil},
		{"fresh pending does not expire", StatusPending, future, RoleSystem, StatusExpired, ErrTooEarly},
		{"back to pending", StatusConfirmed, future, RoleInstructor, StatusPending, ErrActorNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckTransition(bookingAt(tt.from, tt.start), tt.role, tt.to, now, policy)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestIsPendingExpired(t *testing.T) {
	ttl := 48 * time.Hour

	old := bookingAt(StatusPending, now.Add(72*time.Hour))
	old.CreatedAt = now.Add(-49 * time.Hour)
	assert.True(t, IsPendingExpired(old, now, ttl))

	fresh := bookingAt(StatusPending, now.Add(72*time.Hour))
	assert.False(t, IsPendingExpired(fresh, now, ttl))

	started := bookingAt(StatusPending, now.Add(-time.Minute))
	assert.True(t, IsPendingExpired(started, now, ttl))

	confirmed := bookingAt(StatusConfirmed, now.Add(-time.Minute))
	assert.False(t, IsPendingExpired(confirmed, now, ttl))
}

func TestCancelStatusFor(t *testing.T) {
	s, err := CancelStatusFor(RoleMember)
	assert.NoError(t, err)
	assert.Equal(t, StatusCancelledByMember, s)

	s, err = CancelStatusFor(RoleInstructor)
	assert.NoError(t, err)
	assert.Equal(t, StatusCancelledByInstructor, s)

	_, err = CancelStatusFor(RoleNone)
	assert.ErrorIs(t, err, ErrActorNotAllowed)
}
