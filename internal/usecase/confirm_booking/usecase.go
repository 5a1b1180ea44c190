package confirm_booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-LessonService/internal/domain"
	"github.com/m04kA/SMC-LessonService/internal/events"
	bookingRepo "github.com/m04kA/SMC-LessonService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-LessonService/pkg/txmanager"
)

// UseCase use case для подтверждения бронирования инструктором
type UseCase struct {
	bookingRepo  BookingRepository
	txManager    TransactionManager
	publisher    EventPublisher
	metrics      MetricsRecorder
	policy       domain.LifecyclePolicy
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
// metrics может быть nil
func NewUseCase(
	bookingRepo BookingRepository,
	txManager TransactionManager,
	publisher EventPublisher,
	metrics MetricsRecorder,
	policy domain.LifecyclePolicy,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:  bookingRepo,
		txManager:    txManager,
		publisher:    publisher,
		metrics:      metrics,
		policy:       policy,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// Execute выполняет use case подтверждения бронирования
// Перед сменой статуса повторно проверяет, что время не заняли параллельно подтвержденным бронированием
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("ConfirmBooking: booking=%d, actor=%d", req.BookingID, req.ActorID)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("ConfirmBooking: validation failed: %v", err)
		return nil, err
	}

	now := uc.timeProvider.Now()
	var result *domain.Booking

	// 2. Все проверки и смена статуса в одной сериализуемой транзакции
	err := uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 2.1. Получаем бронирование с блокировкой строки
		booking, err := uc.bookingRepo.GetByID(txCtx, req.BookingID)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				uc.logger.Warn("ConfirmBooking: booking id=%d not found", req.BookingID)
				return ErrBookingNotFound
			}
			uc.logger.Error("ConfirmBooking: failed to get booking id=%d: %v", req.BookingID, err)
			return fmt.Errorf("%w: failed to get booking: %v", ErrInternal, err)
		}

		// 2.2. Проверяем права и допустимость перехода
		role := domain.RoleOf(booking, req.ActorID)
		if role == domain.RoleNone {
			uc.logger.Warn("ConfirmBooking: user=%d is not a participant of booking id=%d", req.ActorID, req.BookingID)
			return ErrAccessDenied
		}
		if err := domain.CheckTransition(booking, role, domain.StatusConfirmed, now, uc.policy); err != nil {
			uc.logger.Warn("ConfirmBooking: transition rejected for booking id=%d: %v", req.BookingID, err)
			return mapTransitionError(err)
		}

		// 2.3. Повторная проверка пересечений с другими активными бронированиями
		overlapping, err := uc.bookingRepo.GetOverlapping(txCtx, booking.InstructorID, booking.StartTime, booking.EndTime)
		if err != nil {
			uc.logger.Error("ConfirmBooking: failed to get overlapping bookings: %v", err)
			return fmt.Errorf("%w: failed to get overlapping bookings: %v", ErrInternal, err)
		}

		if conflicts := domain.FindConflicts(booking.Interval(), overlapping, booking.ID); len(conflicts) > 0 {
			uc.logger.Warn("ConfirmBooking: booking id=%d overlaps booking id=%d", booking.ID, conflicts[0].ID)
			return ErrSlotNotAvailable
		}

		// 2.4. Условное обновление статуса
		updated, err := uc.bookingRepo.TransitionStatus(txCtx, booking.ID, booking.Status, domain.StatusConfirmed, nil)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrStatusChanged) {
				uc.logger.Warn("ConfirmBooking: booking id=%d was changed concurrently", booking.ID)
				return ErrInvalidState
			}
			uc.logger.Error("ConfirmBooking: failed to update booking id=%d: %v", booking.ID, err)
			return fmt.Errorf("%w: failed to update booking: %v", ErrInternal, err)
		}

		result = updated
		return nil
	})

	if err != nil {
		if txmanager.IsSerializationFailure(err) {
			uc.logger.Warn("ConfirmBooking: concurrent update of booking id=%d: %v", req.BookingID, err)
			return nil, ErrInvalidState
		}
		if errors.Is(err, txmanager.ErrBeginTx) || errors.Is(err, txmanager.ErrCommitTx) {
			uc.logger.Error("ConfirmBooking: transaction failed: %v", err)
			return nil, fmt.Errorf("%w: %v", ErrInternal, err)
		}
		return nil, err
	}

	uc.logger.Info("ConfirmBooking: booking id=%d confirmed", result.ID)

	if uc.metrics != nil {
		uc.metrics.RecordBookingTransition(string(result.Status))
	}
	uc.publisher.Publish(ctx, events.BookingStatusChanged(result, domain.StatusPending, req.ActorID, now))

	return &Response{Booking: result}, nil
}
