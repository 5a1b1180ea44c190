package models

import (
	"errors"
	"time"

	"github.com/m04kA/SMC-LessonService/internal/domain"
)

var (
	// ErrInvalidStatus возвращается при некорректном статусе
	ErrInvalidStatus = errors.New("invalid booking status")

	// ErrInvalidRole возвращается при некорректной роли в фильтре
	ErrInvalidRole = errors.New("invalid role, expected member or instructor")
)

const (
	RoleMember     = "member"
	RoleInstructor = "instructor"
)

// Request модели

// TransitionRequest запрос на смену статуса бронирования
type TransitionRequest struct {
	UserID int64   `json:"userId"`
	Reason *string `json:"reason,omitempty"`
}

// GetBookingsRequest запрос на получение бронирований пользователя
type GetBookingsRequest struct {
	UserID          int64      `json:"userId"`
	Role            string     `json:"role,omitempty"`            // member, instructor или пусто (обе роли)
	From            *time.Time `json:"from,omitempty"`            // Первая дата периода (включительно)
	To              *time.Time `json:"to,omitempty"`              // Последняя дата периода (включительно)
	Status          *string    `json:"status,omitempty"`          // Фильтр по статусу (опционально)
	IncludeInactive bool       `json:"includeInactive,omitempty"` // Включить терминальные статусы
}

// ToDomainFilter конвертирует request в domain фильтр
// Даты периода интерпретируются в часовом поясе loc
func (r *GetBookingsRequest) ToDomainFilter(loc *time.Location) (domain.BookingsFilter, error) {
	filter := domain.BookingsFilter{IncludeInactive: r.IncludeInactive}

	userID := r.UserID
	switch r.Role {
	case RoleMember:
		filter.MemberID = &userID
	case RoleInstructor:
		filter.InstructorID = &userID
	case "":
		filter.ParticipantID = &userID
	default:
		return filter, ErrInvalidRole
	}

	if r.From != nil {
		from := startOfDay(*r.From, loc)
		filter.From = &from
	}
	if r.To != nil {
		to := startOfDay(*r.To, loc).AddDate(0, 0, 1)
		filter.To = &to
	}

	if r.Status != nil {
		status, err := ToDomainBookingStatus(*r.Status)
		if err != nil {
			return filter, err
		}
		filter.Status = &status
	}

	return filter, nil
}

// Response модели

// BookingResponse ответ с данными бронирования
type BookingResponse struct {
	ID              int64     `json:"id"`
	InstructorID    int64     `json:"instructorId"`
	MemberID        int64     `json:"memberId"`
	StartTime       time.Time `json:"startTime"`
	EndTime         time.Time `json:"endTime"`
	DurationMinutes int       `json:"durationMinutes"`
	Status          string    `json:"status"`
	Notes           *string   `json:"notes,omitempty"`

	CancellationReason *string `json:"cancellationReason,omitempty"`
	CancelledAt        *string `json:"cancelledAt,omitempty"` // ISO 8601 format

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BookingListResponse ответ со списком бронирований
type BookingListResponse struct {
	Bookings []BookingResponse `json:"bookings"`
}

// Методы конвертации

// FromDomainBooking конвертирует domain модель в DTO
func FromDomainBooking(b *domain.Booking) *BookingResponse {
	if b == nil {
		return nil
	}

	resp := &BookingResponse{
		ID:                 b.ID,
		InstructorID:       b.InstructorID,
		MemberID:           b.MemberID,
		StartTime:          b.StartTime,
		EndTime:            b.EndTime,
		DurationMinutes:    b.DurationMinutes(),
		Status:             string(b.Status),
		Notes:              b.Notes,
		CancellationReason: b.CancellationReason,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}

	// Конвертируем CancelledAt в строку ISO 8601
	if b.CancelledAt != nil {
		cancelledStr := b.CancelledAt.Format(time.RFC3339)
		resp.CancelledAt = &cancelledStr
	}

	return resp
}

// FromDomainBookingList конвертирует список domain моделей в DTO
func FromDomainBookingList(bookings []*domain.Booking) *BookingListResponse {
	resp := &BookingListResponse{
		Bookings: make([]BookingResponse, 0, len(bookings)),
	}

	for _, booking := range bookings {
		if bookingResp := FromDomainBooking(booking); bookingResp != nil {
			resp.Bookings = append(resp.Bookings, *bookingResp)
		}
	}

	return resp
}

// ToDomainBookingStatus конвертирует строку в domain.BookingStatus с валидацией
func ToDomainBookingStatus(status string) (domain.BookingStatus, error) {
	s := domain.BookingStatus(status)
	if !s.IsValid() {
		return "", ErrInvalidStatus
	}
	return s, nil
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
