package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrTransitionNotAllowed is returned when the booking's current status does not permit the transition
	ErrTransitionNotAllowed = errors.New("domain: transition is not allowed from the current status")

	// ErrActorNotAllowed is returned when the actor has no right to perform the transition
	ErrActorNotAllowed = errors.New("domain: actor is not allowed to perform the transition")

	// ErrCancellationWindow is returned when a member cancels a confirmed lesson too close to its start
	ErrCancellationWindow = errors.New("domain: confirmed lessons cannot be cancelled by the member this close to the start")

	// ErrTooEarly is returned when a transition depends on time that has not come yet
	ErrTooEarly = errors.New("domain: transition is not allowed before the lesson time")
)

// Role is the actor's relation to a booking
type Role string

const (
	RoleMember     Role = "member"
	RoleInstructor Role = "instructor"
	RoleSystem     Role = "system"
	RoleNone       Role = "none"
)

// RoleOf returns the role the user plays on the booking
func RoleOf(b *Booking, userID int64) Role {
	switch userID {
	case b.InstructorID:
		return RoleInstructor
	case b.MemberID:
		return RoleMember
	default:
		return RoleNone
	}
}

// transitions allowed target statuses per source status
var transitions = map[BookingStatus][]BookingStatus{
	StatusPending: {
		StatusConfirmed,
		StatusDeclined,
		StatusCancelledByMember,
		StatusCancelledByInstructor,
		StatusExpired,
	},
	StatusConfirmed: {
		StatusCompleted,
		StatusCancelledByMember,
		StatusCancelledByInstructor,
		StatusNoShow,
	},
}

// transitionActors roles allowed to move a booking into the target status
var transitionActors = map[BookingStatus][]Role{
	StatusConfirmed:             {RoleInstructor},
	StatusDeclined:              {RoleInstructor},
	StatusCancelledByMember:     {RoleMember},
	StatusCancelledByInstructor: {RoleInstructor},
	StatusNoShow:                {RoleInstructor, RoleSystem},
	StatusCompleted:             {RoleInstructor, RoleSystem},
	StatusExpired:               {RoleSystem},
}

// LifecyclePolicy time-based rules of the booking lifecycle
type LifecyclePolicy struct {
	CancellationWindow time.Duration // minimum notice for a member to cancel a confirmed lesson
	PendingTTL         time.Duration // how long a request may stay pending
}

// DefaultLifecyclePolicy returns the studio defaults (24h window, 48h pending TTL)
func DefaultLifecyclePolicy() LifecyclePolicy {
	return LifecyclePolicy{
		CancellationWindow: DefaultCancellationHours * time.Hour,
		PendingTTL:         DefaultPendingTTLHours * time.Hour,
	}
}

// CanTransition reports whether the status graph has an edge from -> to
func CanTransition(from, to BookingStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func roleAllowed(to BookingStatus, role Role) bool {
	for _, r := range transitionActors[to] {
		if r == role {
			return true
		}
	}
	return false
}

// CheckTransition validates moving b into status to on behalf of role at now.
//
// Checks run in a fixed order: terminal source, actor rights, source status,
// time rules. A terminal booking therefore always yields ErrTransitionNotAllowed.
func CheckTransition(b *Booking, role Role, to BookingStatus, now time.Time, policy LifecyclePolicy) error {
	if b.Status.IsTerminal() {
		return fmt.Errorf("%w: booking is already %s", ErrTransitionNotAllowed, b.Status)
	}

	if !roleAllowed(to, role) {
		return fmt.Errorf("%w: %s cannot move booking to %s", ErrActorNotAllowed, role, to)
	}

	if !CanTransition(b.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrTransitionNotAllowed, b.Status, to)
	}

	switch to {
	case StatusCancelledByMember:
		if b.Status == StatusConfirmed && b.StartTime.Sub(now) < policy.CancellationWindow {
			return fmt.Errorf("%w: cancellation requires %s notice", ErrCancellationWindow, policy.CancellationWindow)
		}
	case StatusNoShow:
		if now.Before(b.StartTime) {
			return fmt.Errorf("%w: lesson has not started yet", ErrTooEarly)
		}
	case StatusCompleted:
		if now.Before(b.EndTime) {
			return fmt.Errorf("%w: lesson has not ended yet", ErrTooEarly)
		}
	case StatusExpired:
		if !IsPendingExpired(b, now, policy.PendingTTL) {
			return fmt.Errorf("%w: pending request has not expired yet", ErrTooEarly)
		}
	}

	return nil
}

// CancelStatusFor returns the cancellation status matching the actor's role
func CancelStatusFor(role Role) (BookingStatus, error) {
	switch role {
	case RoleMember:
		return StatusCancelledByMember, nil
	case RoleInstructor:
		return StatusCancelledByInstructor, nil
	default:
		return "", fmt.Errorf("%w: %s cannot cancel bookings", ErrActorNotAllowed, role)
	}
}

// IsPendingExpired reports whether a pending booking has outlived its deadline:
// it was created more than ttl ago or its start time has already passed
func IsPendingExpired(b *Booking, now time.Time, ttl time.Duration) bool {
	if b.Status != StatusPending {
		return false
	}
	if !now.Before(b.StartTime) {
		return true
	}
	return ttl > 0 && !now.Before(b.CreatedAt.Add(ttl))
}
