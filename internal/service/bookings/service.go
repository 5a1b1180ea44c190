package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/m04kA/SMC-LessonService/internal/domain"
	"github.com/m04kA/SMC-LessonService/internal/events"
	bookingRepo "github.com/m04kA/SMC-LessonService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-LessonService/internal/service/bookings/models"
	"github.com/m04kA/SMC-LessonService/pkg/txmanager"
)

// Service сервис для работы с бронированиями
// Отвечает за чтение и за переходы статусов, не требующие проверки пересечений
type Service struct {
	bookingRepo  BookingRepository
	txManager    TransactionManager
	publisher    EventPublisher
	metrics      MetricsRecorder
	policy       domain.LifecyclePolicy
	location     *time.Location
	timeProvider TimeProvider
	logger       Logger
}

// NewService создает новый экземпляр сервиса бронирований
// metrics может быть nil
func NewService(
	bookingRepo BookingRepository,
	txManager TransactionManager,
	publisher EventPublisher,
	metrics MetricsRecorder,
	policy domain.LifecyclePolicy,
	location *time.Location,
	logger Logger,
) *Service {
	if location == nil {
		location = time.UTC
	}

	return &Service{
		bookingRepo:  bookingRepo,
		txManager:    txManager,
		publisher:    publisher,
		metrics:      metrics,
		policy:       policy,
		location:     location,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// GetByID получает бронирование по ID
// Видеть бронирование могут только его участники
func (s *Service) GetByID(ctx context.Context, id int64, userID int64) (*models.BookingResponse, error) {
	s.logger.Info("GetByID: fetching booking id=%d for user=%d", id, userID)

	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("GetByID: booking id=%d not found", id)
			return nil, ErrBookingNotFound
		}
		s.logger.Error("GetByID: repository error for booking id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: GetByID - repository error: %v", ErrInternal, err)
	}

	if !booking.IsParticipant(userID) {
		s.logger.Warn("GetByID: access denied for user=%d to booking id=%d", userID, id)
		return nil, ErrAccessDenied
	}

	return models.FromDomainBooking(booking), nil
}

// GetBookings получает бронирования пользователя как ученика, инструктора или в обеих ролях
//
// Примеры использования:
// - Все активные занятия: GetBookings(ctx, &GetBookingsRequest{UserID: 7})
// - Расписание инструктора на неделю: Role = "instructor", From и To на границы недели
// - История: IncludeInactive = true
func (s *Service) GetBookings(ctx context.Context, req *models.GetBookingsRequest) (*models.BookingListResponse, error) {
	s.logger.Info("GetBookings: fetching bookings for user=%d, role=%q", req.UserID, req.Role)

	if req.UserID <= 0 {
		return nil, fmt.Errorf("%w: userID must be positive", ErrInvalidInput)
	}

	filter, err := req.ToDomainFilter(s.location)
	if err != nil {
		s.logger.Warn("GetBookings: invalid filter for user=%d: %v", req.UserID, err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if filter.From != nil && filter.To != nil && !filter.From.Before(*filter.To) {
		return models.FromDomainBookingList(nil), nil
	}

	bookings, err := s.bookingRepo.GetByFilter(ctx, filter)
	if err != nil {
		s.logger.Error("GetBookings: repository error for user=%d: %v", req.UserID, err)
		return nil, fmt.Errorf("%w: GetBookings - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("GetBookings: successfully fetched %d bookings for user=%d", len(bookings), req.UserID)
	return models.FromDomainBookingList(bookings), nil
}

// Decline отклоняет заявку (только инструктор, только pending)
func (s *Service) Decline(ctx context.Context, bookingID int64, req *models.TransitionRequest) (*models.BookingResponse, error) {
	return s.transition(ctx, "Decline", bookingID, req, func(domain.Role) (domain.BookingStatus, error) {
		return domain.StatusDeclined, nil
	})
}

// Cancel отменяет бронирование
// Ученик получает статус cancelled_by_member и ограничение окна отмены для подтвержденных занятий,
// инструктор получает cancelled_by_instructor без ограничений по времени
func (s *Service) Cancel(ctx context.Context, bookingID int64, req *models.TransitionRequest) (*models.BookingResponse, error) {
	return s.transition(ctx, "Cancel", bookingID, req, domain.CancelStatusFor)
}

// Complete отмечает проведенное занятие (после его окончания)
func (s *Service) Complete(ctx context.Context, bookingID int64, req *models.TransitionRequest) (*models.BookingResponse, error) {
	return s.transition(ctx, "Complete", bookingID, req, func(domain.Role) (domain.BookingStatus, error) {
		return domain.StatusCompleted, nil
	})
}

// MarkNoShow отмечает неявку ученика (после начала занятия)
func (s *Service) MarkNoShow(ctx context.Context, bookingID int64, req *models.TransitionRequest) (*models.BookingResponse, error) {
	return s.transition(ctx, "MarkNoShow", bookingID, req, func(domain.Role) (domain.BookingStatus, error) {
		return domain.StatusNoShow, nil
	})
}

// ExpireStale переводит в expired заявки, которые не подтвердили вовремя
// Возвращает количество просроченных заявок
func (s *Service) ExpireStale(ctx context.Context) (int, error) {
	now := s.timeProvider.Now()
	createdBefore := now.Add(-s.policy.PendingTTL)

	expired, err := s.bookingRepo.ExpirePending(ctx, createdBefore, now)
	if err != nil {
		s.logger.Error("ExpireStale: repository error: %v", err)
		return 0, fmt.Errorf("%w: ExpireStale - repository error: %v", ErrInternal, err)
	}

	if len(expired) == 0 {
		return 0, nil
	}

	if s.metrics != nil {
		s.metrics.AddExpiredBookings(len(expired))
	}
	for _, b := range expired {
		s.recordTransition(b)
		s.publisher.Publish(ctx, events.BookingStatusChanged(b, domain.StatusPending, 0, now))
	}

	s.logger.Info("ExpireStale: expired %d pending bookings", len(expired))
	return len(expired), nil
}

// transition общий сценарий смены статуса:
// блокировка строки, проверка прав и правил жизненного цикла, условное обновление
func (s *Service) transition(
	ctx context.Context,
	op string,
	bookingID int64,
	req *models.TransitionRequest,
	target func(role domain.Role) (domain.BookingStatus, error),
) (*models.BookingResponse, error) {
	s.logger.Info("%s: booking id=%d by user=%d", op, bookingID, req.UserID)

	if bookingID <= 0 || req.UserID <= 0 {
		return nil, fmt.Errorf("%w: bookingID and userID must be positive", ErrInvalidInput)
	}
	if req.Reason != nil && utf8.RuneCountInString(*req.Reason) > domain.MaxCancellationReasonLength {
		return nil, fmt.Errorf("%w: reason must be at most %d characters", ErrInvalidInput, domain.MaxCancellationReasonLength)
	}

	now := s.timeProvider.Now()
	var (
		previous domain.BookingStatus
		result   *domain.Booking
	)

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		booking, err := s.bookingRepo.GetByID(txCtx, bookingID)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				s.logger.Warn("%s: booking id=%d not found", op, bookingID)
				return ErrBookingNotFound
			}
			s.logger.Error("%s: repository error for booking id=%d: %v", op, bookingID, err)
			return fmt.Errorf("%w: %s - repository error: %v", ErrInternal, op, err)
		}

		role := domain.RoleOf(booking, req.UserID)
		if role == domain.RoleNone {
			s.logger.Warn("%s: user=%d is not a participant of booking id=%d", op, req.UserID, bookingID)
			return ErrAccessDenied
		}

		to, err := target(role)
		if err != nil {
			return mapLifecycleError(err)
		}

		if err := domain.CheckTransition(booking, role, to, now, s.policy); err != nil {
			s.logger.Warn("%s: transition rejected for booking id=%d: %v", op, bookingID, err)
			return mapLifecycleError(err)
		}

		updated, err := s.bookingRepo.TransitionStatus(txCtx, booking.ID, booking.Status, to, req.Reason)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrStatusChanged) {
				s.logger.Warn("%s: booking id=%d was changed concurrently", op, bookingID)
				return ErrInvalidState
			}
			s.logger.Error("%s: failed to update booking id=%d: %v", op, bookingID, err)
			return fmt.Errorf("%w: %s - repository error: %v", ErrInternal, op, err)
		}

		previous = booking.Status
		result = updated
		return nil
	})
	if err != nil {
		if errors.Is(err, txmanager.ErrBeginTx) || errors.Is(err, txmanager.ErrCommitTx) {
			s.logger.Error("%s: transaction failed for booking id=%d: %v", op, bookingID, err)
			return nil, fmt.Errorf("%w: %s - %v", ErrInternal, op, err)
		}
		return nil, err
	}

	s.logger.Info("%s: booking id=%d moved %s -> %s", op, bookingID, previous, result.Status)

	s.recordTransition(result)
	s.publisher.Publish(ctx, events.BookingStatusChanged(result, previous, req.UserID, now))

	return models.FromDomainBooking(result), nil
}

func (s *Service) recordTransition(b *domain.Booking) {
	if s.metrics != nil {
		s.metrics.RecordBookingTransition(string(b.Status))
	}
}

// mapLifecycleError переводит ошибки жизненного цикла в ошибки сервиса
func mapLifecycleError(err error) error {
	switch {
	case errors.Is(err, domain.ErrActorNotAllowed):
		return ErrAccessDenied
	case errors.Is(err, domain.ErrTransitionNotAllowed):
		return ErrInvalidState
	case errors.Is(err, domain.ErrCancellationWindow):
		return ErrCancellationWindow
	case errors.Is(err, domain.ErrTooEarly):
		return ErrTooEarly
	default:
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}
}
