package create_booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-LessonService/internal/domain"
	"github.com/m04kA/SMC-LessonService/internal/events"
	bookingRepo "github.com/m04kA/SMC-LessonService/internal/infra/storage/booking"
	userClient "github.com/m04kA/SMC-LessonService/internal/integrations/userservice"
	"github.com/m04kA/SMC-LessonService/pkg/txmanager"
)

// UseCase use case для создания бронирования
type UseCase struct {
	bookingRepo      BookingRepository
	availabilityRepo AvailabilityRepository
	userClient       UserServiceClient
	txManager        TransactionManager
	publisher        EventPublisher
	metrics          MetricsRecorder
	opts             Options
	timeProvider     TimeProvider
	logger           Logger
}

// NewUseCase создает новый экземпляр use case
// metrics может быть nil
func NewUseCase(
	bookingRepo BookingRepository,
	availabilityRepo AvailabilityRepository,
	userClient UserServiceClient,
	txManager TransactionManager,
	publisher EventPublisher,
	metrics MetricsRecorder,
	opts Options,
	logger Logger,
) *UseCase {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.DefaultSlotDuration <= 0 {
		opts.DefaultSlotDuration = domain.DefaultSlotDurationMinutes
	}

	return &UseCase{
		bookingRepo:      bookingRepo,
		availabilityRepo: availabilityRepo,
		userClient:       userClient,
		txManager:        txManager,
		publisher:        publisher,
		metrics:          metrics,
		opts:             opts,
		timeProvider:     &RealTimeProvider{},
		logger:           logger,
	}
}

// Execute выполняет use case создания бронирования
// Проверка пересечений и вставка выполняются в одной сериализуемой транзакции
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	if req.MemberID == 0 {
		req.MemberID = req.ActorID
	}

	uc.logger.Info("CreateBooking: actor=%d, instructor=%d, member=%d, start=%s, end=%s",
		req.ActorID, req.InstructorID, req.MemberID,
		req.StartTime.Format(time.RFC3339), req.EndTime.Format(time.RFC3339))

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateBooking: validation failed: %v", err)
		return nil, err
	}

	// 2. Определяем роль пользователя
	draft := &domain.Booking{InstructorID: req.InstructorID, MemberID: req.MemberID}
	role := domain.RoleOf(draft, req.ActorID)
	if role == domain.RoleNone {
		uc.logger.Warn("CreateBooking: actor=%d is neither member nor instructor", req.ActorID)
		return nil, ErrAccessDenied
	}

	// 3. Проверяем время занятия
	now := uc.timeProvider.Now()
	minNotice := uc.opts.MinBookingNotice
	if role == domain.RoleInstructor {
		minNotice = 0
	}
	if err := validateBookingTime(req.StartTime, now, minNotice); err != nil {
		uc.logger.Warn("CreateBooking: booking time validation failed: %v", err)
		return nil, err
	}

	// 4. Проверяем, что инструктор существует
	if err := uc.checkInstructor(ctx, req.InstructorID); err != nil {
		return nil, err
	}

	// 5. Ученик может бронировать только предложенные слоты,
	// инструктор может записать ученика на любое время
	if role == domain.RoleMember {
		if err := uc.checkSlot(ctx, req); err != nil {
			return nil, err
		}
	}

	var result *domain.Booking

	// 6. Проверка пересечений и вставка в сериализуемой транзакции
	err := uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 6.1. Блокируем пересекающиеся активные бронирования (FOR UPDATE)
		overlapping, err := uc.bookingRepo.GetOverlapping(txCtx, req.InstructorID, req.StartTime, req.EndTime)
		if err != nil {
			uc.logger.Error("CreateBooking: failed to get overlapping bookings: %v", err)
			return fmt.Errorf("%w: failed to get overlapping bookings: %v", ErrInternal, err)
		}

		if len(overlapping) > 0 {
			uc.logger.Warn("CreateBooking: slot not available, overlaps booking id=%d", overlapping[0].ID)
			return ErrSlotNotAvailable
		}

		// 6.2. Сохраняем бронирование в статусе pending
		created, err := uc.bookingRepo.Create(txCtx, &domain.Booking{
			InstructorID: req.InstructorID,
			MemberID:     req.MemberID,
			StartTime:    req.StartTime,
			EndTime:      req.EndTime,
			Status:       domain.StatusPending,
			Notes:        req.Notes,
		})
		if err != nil {
			if errors.Is(err, bookingRepo.ErrOverlap) {
				uc.logger.Warn("CreateBooking: overlap detected by storage constraint")
				return ErrSlotNotAvailable
			}
			uc.logger.Error("CreateBooking: failed to create booking: %v", err)
			return fmt.Errorf("%w: failed to create booking: %v", ErrInternal, err)
		}

		result = created
		return nil
	})

	if err != nil {
		if txmanager.IsSerializationFailure(err) {
			uc.logger.Warn("CreateBooking: concurrent booking for instructor=%d: %v", req.InstructorID, err)
			return nil, ErrSlotNotAvailable
		}
		if errors.Is(err, ErrSlotNotAvailable) || errors.Is(err, ErrInternal) {
			return nil, err
		}
		uc.logger.Error("CreateBooking: transaction failed: %v", err)
		return nil, fmt.Errorf("%w: transaction failed: %v", ErrInternal, err)
	}

	uc.logger.Info("CreateBooking: successfully created booking id=%d", result.ID)

	if uc.metrics != nil {
		uc.metrics.RecordBookingTransition(string(result.Status))
	}
	uc.publisher.Publish(ctx, events.BookingCreated(result, req.ActorID, now))

	return &Response{Booking: result}, nil
}

// checkInstructor проверяет профиль инструктора
// При недоступности UserService проверка пропускается
func (uc *UseCase) checkInstructor(ctx context.Context, instructorID int64) error {
	profile, err := uc.userClient.GetProfileWithGracefulDegradation(ctx, instructorID)
	if err != nil {
		if errors.Is(err, userClient.ErrUserNotFound) {
			uc.logger.Warn("CreateBooking: instructor id=%d not found", instructorID)
			return ErrInstructorNotFound
		}
		if errors.Is(err, userClient.ErrServiceDegraded) {
			uc.logger.Warn("CreateBooking: instructor profile check skipped: %v", err)
			return nil
		}
		uc.logger.Error("CreateBooking: failed to get instructor profile id=%d: %v", instructorID, err)
		return fmt.Errorf("%w: failed to get instructor profile: %v", ErrInternal, err)
	}

	if !profile.IsInstructor() {
		uc.logger.Warn("CreateBooking: user id=%d has role %s, not instructor", instructorID, profile.Role)
		return ErrInstructorNotFound
	}

	return nil
}

// checkSlot проверяет, что интервал совпадает со слотом из эффективного расписания на дату занятия
func (uc *UseCase) checkSlot(ctx context.Context, req *Request) error {
	loc := uc.opts.Location
	local := req.StartTime.In(loc)
	date := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	rules, err := uc.availabilityRepo.GetRulesByInstructor(ctx, req.InstructorID, false)
	if err != nil {
		uc.logger.Error("CreateBooking: failed to get availability: %v", err)
		return fmt.Errorf("%w: failed to get availability: %v", ErrInternal, err)
	}

	overrides, err := uc.availabilityRepo.GetOverrides(ctx, req.InstructorID, date, date)
	if err != nil {
		uc.logger.Error("CreateBooking: failed to get overrides: %v", err)
		return fmt.Errorf("%w: failed to get overrides: %v", ErrInternal, err)
	}

	windows := domain.EffectiveWindows(date, rules, overrides, loc, uc.opts.DefaultSlotDuration)
	slots := domain.TileWindows(req.InstructorID, windows)

	if !matchesSlot(slots, req.StartTime, req.EndTime) {
		uc.logger.Warn("CreateBooking: interval %s-%s does not match any slot of instructor=%d",
			req.StartTime.Format(time.RFC3339), req.EndTime.Format(time.RFC3339), req.InstructorID)
		return ErrInvalidTimeSlot
	}

	return nil
}
