package models

import (
	"time"

	"github.com/m04kA/SMC-LessonService/internal/domain"
	bookingModels "github.com/m04kA/SMC-LessonService/internal/service/bookings/models"
	"github.com/m04kA/SMC-LessonService/pkg/types"
)

// Request модели

// PutAvailabilityRequest запрос на создание (ID == nil) или изменение недельного правила
type PutAvailabilityRequest struct {
	UserID              int64  `json:"userId"`
	InstructorID        int64  `json:"instructorId"`
	ID                  *int64 `json:"id,omitempty"`
	DayOfWeek           int    `json:"dayOfWeek"`           // 0 = воскресенье .. 6 = суббота
	StartTime           string `json:"startTime"`           // HH:MM
	EndTime             string `json:"endTime"`             // HH:MM
	SlotDurationMinutes int    `json:"slotDurationMinutes"` // 45, 60, 90, 120
	IsActive            *bool  `json:"isActive,omitempty"`  // nil = true
}

// ToDomain конвертирует запрос в domain правило
func (r *PutAvailabilityRequest) ToDomain() *domain.InstructorAvailability {
	rule := &domain.InstructorAvailability{
		InstructorID:        r.InstructorID,
		DayOfWeek:           r.DayOfWeek,
		StartTime:           types.TimeString(r.StartTime),
		EndTime:             types.TimeString(r.EndTime),
		SlotDurationMinutes: r.SlotDurationMinutes,
		IsActive:            true,
	}
	if r.ID != nil {
		rule.ID = *r.ID
	}
	if r.IsActive != nil {
		rule.IsActive = *r.IsActive
	}
	return rule
}

// CreateOverrideRequest запрос на создание исключения на дату
type CreateOverrideRequest struct {
	UserID              int64     `json:"userId"`
	InstructorID        int64     `json:"instructorId"`
	Date                time.Time `json:"date"`
	StartTime           *string   `json:"startTime,omitempty"` // nil вместе с EndTime = весь день
	EndTime             *string   `json:"endTime,omitempty"`
	IsAvailable         bool      `json:"isAvailable"` // false = blackout
	Reason              *string   `json:"reason,omitempty"`
	SlotDurationMinutes *int      `json:"slotDurationMinutes,omitempty"`
}

// ToDomain конвертирует запрос в domain исключение
func (r *CreateOverrideRequest) ToDomain() *domain.AvailabilityOverride {
	o := &domain.AvailabilityOverride{
		InstructorID:        r.InstructorID,
		OverrideDate:        r.Date,
		IsAvailable:         r.IsAvailable,
		Reason:              r.Reason,
		SlotDurationMinutes: r.SlotDurationMinutes,
	}
	if r.StartTime != nil {
		start := types.TimeString(*r.StartTime)
		o.StartTime = &start
	}
	if r.EndTime != nil {
		end := types.TimeString(*r.EndTime)
		o.EndTime = &end
	}
	return o
}

// Response модели

// RuleResponse недельное правило доступности
type RuleResponse struct {
	ID                  int64     `json:"id"`
	InstructorID        int64     `json:"instructorId"`
	DayOfWeek           int       `json:"dayOfWeek"`
	StartTime           string    `json:"startTime"`
	EndTime             string    `json:"endTime"`
	SlotDurationMinutes int       `json:"slotDurationMinutes"`
	IsActive            bool      `json:"isActive"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// AvailabilityResponse все правила инструктора
type AvailabilityResponse struct {
	InstructorID int64          `json:"instructorId"`
	Rules        []RuleResponse `json:"rules"`
}

// PutAvailabilityResponse сохраненное правило и бронирования, которые оно больше не покрывает
type PutAvailabilityResponse struct {
	Rule             RuleResponse                    `json:"rule"`
	AffectedBookings []bookingModels.BookingResponse `json:"affectedBookings"`
}

// DeleteAvailabilityResponse результат отключения правила
type DeleteAvailabilityResponse struct {
	DeclinedBookings []bookingModels.BookingResponse `json:"declinedBookings"`
	AffectedBookings []bookingModels.BookingResponse `json:"affectedBookings"`
}

// OverrideResponse исключение на дату
type OverrideResponse struct {
	ID                  int64   `json:"id"`
	InstructorID        int64   `json:"instructorId"`
	Date                string  `json:"date"`
	StartTime           *string `json:"startTime,omitempty"`
	EndTime             *string `json:"endTime,omitempty"`
	IsAvailable         bool    `json:"isAvailable"`
	Reason              *string `json:"reason,omitempty"`
	SlotDurationMinutes *int    `json:"slotDurationMinutes,omitempty"`
}

// OverridesResponse исключения инструктора за период
type OverridesResponse struct {
	InstructorID int64              `json:"instructorId"`
	Overrides    []OverrideResponse `json:"overrides"`
}

// OverrideChangeResponse результат создания или удаления исключения
type OverrideChangeResponse struct {
	Override         OverrideResponse                `json:"override"`
	AffectedBookings []bookingModels.BookingResponse `json:"affectedBookings"`
}

// FromDomainRule конвертирует domain правило в response
func FromDomainRule(rule *domain.InstructorAvailability) RuleResponse {
	return RuleResponse{
		ID:                  rule.ID,
		InstructorID:        rule.InstructorID,
		DayOfWeek:           rule.DayOfWeek,
		StartTime:           rule.StartTime.String(),
		EndTime:             rule.EndTime.String(),
		SlotDurationMinutes: rule.SlotDurationMinutes,
		IsActive:            rule.IsActive,
		UpdatedAt:           rule.UpdatedAt,
	}
}

// FromDomainRules конвертирует список правил
func FromDomainRules(instructorID int64, rules []*domain.InstructorAvailability) *AvailabilityResponse {
	resp := &AvailabilityResponse{
		InstructorID: instructorID,
		Rules:        make([]RuleResponse, 0, len(rules)),
	}
	for _, rule := range rules {
		resp.Rules = append(resp.Rules, FromDomainRule(rule))
	}
	return resp
}

// FromDomainOverride конвертирует domain исключение в response
func FromDomainOverride(o *domain.AvailabilityOverride) OverrideResponse {
	resp := OverrideResponse{
		ID:                  o.ID,
		InstructorID:        o.InstructorID,
		Date:                o.OverrideDate.Format(domain.DateFormat),
		IsAvailable:         o.IsAvailable,
		Reason:              o.Reason,
		SlotDurationMinutes: o.SlotDurationMinutes,
	}
	if o.StartTime != nil {
		start := o.StartTime.String()
		resp.StartTime = &start
	}
	if o.EndTime != nil {
		end := o.EndTime.String()
		resp.EndTime = &end
	}
	return resp
}

// FromDomainOverrides конвертирует список исключений
func FromDomainOverrides(instructorID int64, overrides []*domain.AvailabilityOverride) *OverridesResponse {
	resp := &OverridesResponse{
		InstructorID: instructorID,
		Overrides:    make([]OverrideResponse, 0, len(overrides)),
	}
	for _, o := range overrides {
		resp.Overrides = append(resp.Overrides, FromDomainOverride(o))
	}
	return resp
}

// FromDomainBookings конвертирует бронирования в список response (никогда не nil)
func FromDomainBookings(bookings []*domain.Booking) []bookingModels.BookingResponse {
	out := make([]bookingModels.BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, *bookingModels.FromDomainBooking(b))
	}
	return out
}
