package availability

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/m04kA/SMC-LessonService/internal/domain"
	"github.com/m04kA/SMC-LessonService/internal/events"
	availabilityRepo "github.com/m04kA/SMC-LessonService/internal/infra/storage/availability"
	bookingRepo "github.com/m04kA/SMC-LessonService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-LessonService/internal/service/availability/models"
	"github.com/m04kA/SMC-LessonService/pkg/txmanager"
)

// DeclineReasonAvailabilityRemoved причина отклонения заявок при отключении правила
const DeclineReasonAvailabilityRemoved = "availability removed by instructor"

// Service сервис управления расписанием инструктора
type Service struct {
	availabilityRepo AvailabilityRepository
	bookingRepo      BookingRepository
	txManager        TransactionManager
	publisher        EventPublisher
	metrics          MetricsRecorder
	location         *time.Location
	defaultDuration  int
	timeProvider     TimeProvider
	logger           Logger
}

// NewService создает новый экземпляр сервиса расписания
// metrics может быть nil
func NewService(
	availabilityRepo AvailabilityRepository,
	bookingRepo BookingRepository,
	txManager TransactionManager,
	publisher EventPublisher,
	metrics MetricsRecorder,
	location *time.Location,
	defaultDuration int,
	logger Logger,
) *Service {
	if location == nil {
		location = time.UTC
	}
	if defaultDuration <= 0 {
		defaultDuration = domain.DefaultSlotDurationMinutes
	}

	return &Service{
		availabilityRepo: availabilityRepo,
		bookingRepo:      bookingRepo,
		txManager:        txManager,
		publisher:        publisher,
		metrics:          metrics,
		location:         location,
		defaultDuration:  defaultDuration,
		timeProvider:     &RealTimeProvider{},
		logger:           logger,
	}
}

// GetAvailability возвращает недельные правила инструктора
func (s *Service) GetAvailability(ctx context.Context, instructorID int64, includeInactive bool) (*models.AvailabilityResponse, error) {
	if instructorID <= 0 {
		return nil, fmt.Errorf("%w: instructor_id must be positive", ErrInvalidInput)
	}

	rules, err := s.availabilityRepo.GetRulesByInstructor(ctx, instructorID, includeInactive)
	if err != nil {
		s.logger.Error("GetAvailability: failed to get rules for instructor=%d: %v", instructorID, err)
		return nil, fmt.Errorf("%w: GetAvailability - repository error: %v", ErrInternal, err)
	}

	return models.FromDomainRules(instructorID, rules), nil
}

// PutAvailability создает или изменяет недельное правило
// Пересечение с другим активным правилом того же дня запрещено,
// а бронирования, которые после изменения не покрыты расписанием, возвращаются как affected
func (s *Service) PutAvailability(ctx context.Context, req *models.PutAvailabilityRequest) (*models.PutAvailabilityResponse, error) {
	s.logger.Info("PutAvailability: user=%d, instructor=%d", req.UserID, req.InstructorID)

	// 1. Валидация и проверка прав
	if req.UserID <= 0 || req.InstructorID <= 0 {
		return nil, fmt.Errorf("%w: user_id and instructor_id must be positive", ErrInvalidInput)
	}
	if req.UserID != req.InstructorID {
		s.logger.Warn("PutAvailability: user=%d cannot edit schedule of instructor=%d", req.UserID, req.InstructorID)
		return nil, ErrAccessDenied
	}

	rule := req.ToDomain()
	if err := rule.Validate(); err != nil {
		s.logger.Warn("PutAvailability: invalid rule: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	var (
		saved    *domain.InstructorAvailability
		affected []*domain.Booking
	)

	// 2. Проверка пересечений и сохранение в одной транзакции
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		var previous *domain.InstructorAvailability
		if rule.ID != 0 {
			existing, err := s.availabilityRepo.GetRuleByID(txCtx, rule.ID)
			if err != nil {
				return s.mapRuleError("PutAvailability", rule.ID, err)
			}
			if existing.InstructorID != req.UserID {
				s.logger.Warn("PutAvailability: rule id=%d belongs to instructor=%d", rule.ID, existing.InstructorID)
				return ErrAccessDenied
			}
			previous = existing
		}

		active, err := s.availabilityRepo.GetRulesByInstructor(txCtx, rule.InstructorID, false)
		if err != nil {
			return fmt.Errorf("%w: failed to get rules: %v", ErrInternal, err)
		}
		for _, other := range active {
			if other.ID != rule.ID && rule.OverlapsRule(other) {
				s.logger.Warn("PutAvailability: rule overlaps rule id=%d", other.ID)
				return ErrAvailabilityConflict
			}
		}

		if previous == nil {
			saved, err = s.availabilityRepo.CreateRule(txCtx, rule)
		} else {
			saved, err = s.availabilityRepo.UpdateRule(txCtx, rule)
		}
		if err != nil {
			return s.mapRuleError("PutAvailability", rule.ID, err)
		}

		if previous != nil {
			affected, err = s.uncoveredBookings(txCtx, rule.InstructorID, func(b *domain.Booking) bool {
				return ruleTouches(previous, b, s.location)
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, s.wrapTxError("PutAvailability", err)
	}

	s.logger.Info("PutAvailability: rule id=%d saved, affected bookings=%d", saved.ID, len(affected))
	s.publisher.Publish(ctx, events.AvailabilityChanged(saved.InstructorID, s.timeProvider.Now()))

	return &models.PutAvailabilityResponse{
		Rule:             models.FromDomainRule(saved),
		AffectedBookings: models.FromDomainBookings(affected),
	}, nil
}

// DeleteAvailability отключает недельное правило
// В той же транзакции отклоняет будущие заявки, которые больше не покрыты расписанием.
// Подтвержденные занятия не трогаются и возвращаются как affected
func (s *Service) DeleteAvailability(ctx context.Context, userID, availabilityID int64) (*models.DeleteAvailabilityResponse, error) {
	s.logger.Info("DeleteAvailability: user=%d, rule id=%d", userID, availabilityID)

	if userID <= 0 || availabilityID <= 0 {
		return nil, fmt.Errorf("%w: user_id and availability_id must be positive", ErrInvalidInput)
	}

	var declined, affected []*domain.Booking
	var instructorID int64

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		// 1. Правило и права
		rule, err := s.availabilityRepo.GetRuleByID(txCtx, availabilityID)
		if err != nil {
			return s.mapRuleError("DeleteAvailability", availabilityID, err)
		}
		if rule.InstructorID != userID {
			s.logger.Warn("DeleteAvailability: rule id=%d belongs to instructor=%d", availabilityID, rule.InstructorID)
			return ErrAccessDenied
		}
		instructorID = rule.InstructorID

		if !rule.IsActive {
			return nil
		}

		// 2. Мягкое отключение
		if err := s.availabilityRepo.DeactivateRule(txCtx, availabilityID); err != nil {
			return s.mapRuleError("DeleteAvailability", availabilityID, err)
		}

		// 3. Бронирования, которые после отключения остались вне расписания
		uncovered, err := s.uncoveredBookings(txCtx, rule.InstructorID, func(b *domain.Booking) bool {
			return ruleTouches(rule, b, s.location)
		})
		if err != nil {
			return err
		}

		// 4. Заявки отклоняются, подтвержденные занятия только возвращаются
		reason := DeclineReasonAvailabilityRemoved
		for _, b := range uncovered {
			if b.Status != domain.StatusPending {
				affected = append(affected, b)
				continue
			}

			updated, err := s.bookingRepo.TransitionStatus(txCtx, b.ID, domain.StatusPending, domain.StatusDeclined, &reason)
			if err != nil {
				if errors.Is(err, bookingRepo.ErrStatusChanged) {
					s.logger.Warn("DeleteAvailability: booking id=%d changed concurrently, skipped", b.ID)
					continue
				}
				return fmt.Errorf("%w: failed to decline booking id=%d: %v", ErrInternal, b.ID, err)
			}
			declined = append(declined, updated)
		}
		return nil
	})
	if err != nil {
		return nil, s.wrapTxError("DeleteAvailability", err)
	}

	s.logger.Info("DeleteAvailability: rule id=%d disabled, declined=%d, affected=%d", availabilityID, len(declined), len(affected))

	now := s.timeProvider.Now()
	for _, b := range declined {
		if s.metrics != nil {
			s.metrics.RecordBookingTransition(string(b.Status))
		}
		s.publisher.Publish(ctx, events.BookingStatusChanged(b, domain.StatusPending, userID, now))
	}
	s.publisher.Publish(ctx, events.AvailabilityChanged(instructorID, now))

	return &models.DeleteAvailabilityResponse{
		DeclinedBookings: models.FromDomainBookings(declined),
		AffectedBookings: models.FromDomainBookings(affected),
	}, nil
}

// GetOverrides возвращает исключения инструктора за период дат включительно
// Если to раньше from, возвращается пустой список
func (s *Service) GetOverrides(ctx context.Context, instructorID int64, from, to time.Time) (*models.OverridesResponse, error) {
	if instructorID <= 0 {
		return nil, fmt.Errorf("%w: instructor_id must be positive", ErrInvalidInput)
	}
	if to.Before(from) {
		return models.FromDomainOverrides(instructorID, nil), nil
	}

	overrides, err := s.availabilityRepo.GetOverrides(ctx, instructorID, from, to)
	if err != nil {
		s.logger.Error("GetOverrides: failed to get overrides for instructor=%d: %v", instructorID, err)
		return nil, fmt.Errorf("%w: GetOverrides - repository error: %v", ErrInternal, err)
	}

	return models.FromDomainOverrides(instructorID, overrides), nil
}

// CreateOverride создает исключение на дату
// Для blackout возвращает бронирования, которые оказались вне расписания
func (s *Service) CreateOverride(ctx context.Context, req *models.CreateOverrideRequest) (*models.OverrideChangeResponse, error) {
	s.logger.Info("CreateOverride: user=%d, instructor=%d, date=%s", req.UserID, req.InstructorID, req.Date.Format(domain.DateFormat))

	// 1. Валидация и проверка прав
	if req.UserID <= 0 || req.InstructorID <= 0 {
		return nil, fmt.Errorf("%w: user_id and instructor_id must be positive", ErrInvalidInput)
	}
	if req.UserID != req.InstructorID {
		s.logger.Warn("CreateOverride: user=%d cannot edit schedule of instructor=%d", req.UserID, req.InstructorID)
		return nil, ErrAccessDenied
	}

	override := req.ToDomain()
	if err := override.Validate(); err != nil {
		s.logger.Warn("CreateOverride: invalid override: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	y, m, d := override.OverrideDate.Date()
	override.OverrideDate = time.Date(y, m, d, 0, 0, 0, 0, s.location)
	if override.Reason != nil && utf8.RuneCountInString(*override.Reason) > domain.MaxOverrideReasonLength {
		return nil, fmt.Errorf("%w: reason exceeds %d characters", ErrInvalidInput, domain.MaxOverrideReasonLength)
	}
	if override.OverrideDate.Before(dateIn(s.timeProvider.Now(), s.location)) {
		return nil, fmt.Errorf("%w: override date is in the past", ErrInvalidInput)
	}

	var (
		saved    *domain.AvailabilityOverride
		affected []*domain.Booking
	)

	// 2. Сохранение и расчет затронутых бронирований
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		var err error
		saved, err = s.availabilityRepo.CreateOverride(txCtx, override)
		if err != nil {
			return fmt.Errorf("%w: failed to create override: %v", ErrInternal, err)
		}

		if saved.IsBlackout() {
			affected, err = s.uncoveredBookings(txCtx, saved.InstructorID, func(b *domain.Booking) bool {
				return overrideTouches(saved, b, s.location)
			})
		}
		return err
	})
	if err != nil {
		return nil, s.wrapTxError("CreateOverride", err)
	}

	s.logger.Info("CreateOverride: override id=%d created, affected bookings=%d", saved.ID, len(affected))
	s.publisher.Publish(ctx, events.AvailabilityChanged(saved.InstructorID, s.timeProvider.Now()))

	return &models.OverrideChangeResponse{
		Override:         models.FromDomainOverride(saved),
		AffectedBookings: models.FromDomainBookings(affected),
	}, nil
}

// DeleteOverride удаляет исключение
// Удаление дополнительного окна возвращает бронирования, которые оказались вне расписания
func (s *Service) DeleteOverride(ctx context.Context, userID, overrideID int64) (*models.OverrideChangeResponse, error) {
	s.logger.Info("DeleteOverride: user=%d, override id=%d", userID, overrideID)

	if userID <= 0 || overrideID <= 0 {
		return nil, fmt.Errorf("%w: user_id and override_id must be positive", ErrInvalidInput)
	}

	var (
		removed  *domain.AvailabilityOverride
		affected []*domain.Booking
	)

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		o, err := s.availabilityRepo.GetOverrideByID(txCtx, overrideID)
		if err != nil {
			return s.mapOverrideError("DeleteOverride", overrideID, err)
		}
		if o.InstructorID != userID {
			s.logger.Warn("DeleteOverride: override id=%d belongs to instructor=%d", overrideID, o.InstructorID)
			return ErrAccessDenied
		}

		if err := s.availabilityRepo.DeleteOverride(txCtx, overrideID); err != nil {
			return s.mapOverrideError("DeleteOverride", overrideID, err)
		}
		removed = o

		if !o.IsBlackout() {
			affected, err = s.uncoveredBookings(txCtx, o.InstructorID, func(b *domain.Booking) bool {
				return overrideTouches(o, b, s.location)
			})
		}
		return err
	})
	if err != nil {
		return nil, s.wrapTxError("DeleteOverride", err)
	}

	s.logger.Info("DeleteOverride: override id=%d deleted, affected bookings=%d", overrideID, len(affected))
	s.publisher.Publish(ctx, events.AvailabilityChanged(removed.InstructorID, s.timeProvider.Now()))

	return &models.OverrideChangeResponse{
		Override:         models.FromDomainOverride(removed),
		AffectedBookings: models.FromDomainBookings(affected),
	}, nil
}

// uncoveredBookings возвращает будущие активные бронирования инструктора,
// попадающие под touched и не входящие целиком ни в одно эффективное окно своей даты
func (s *Service) uncoveredBookings(
	ctx context.Context,
	instructorID int64,
	touched func(b *domain.Booking) bool,
) ([]*domain.Booking, error) {
	now := s.timeProvider.Now()

	bookings, err := s.bookingRepo.GetByFilter(ctx, domain.BookingsFilter{
		InstructorID: &instructorID,
		From:         &now,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get bookings: %v", ErrInternal, err)
	}

	var candidates []*domain.Booking
	var first, last time.Time
	for _, b := range bookings {
		if !b.IsActive() || !touched(b) {
			continue
		}
		date := dateIn(b.StartTime, s.location)
		if len(candidates) == 0 || date.Before(first) {
			first = date
		}
		if len(candidates) == 0 || date.After(last) {
			last = date
		}
		candidates = append(candidates, b)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	rules, err := s.availabilityRepo.GetRulesByInstructor(ctx, instructorID, false)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get rules: %v", ErrInternal, err)
	}
	overrides, err := s.availabilityRepo.GetOverrides(ctx, instructorID, first, last)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get overrides: %v", ErrInternal, err)
	}

	var uncovered []*domain.Booking
	for _, b := range candidates {
		date := b.StartTime.In(s.location)
		windows := domain.EffectiveWindows(date, rules, overrides, s.location, s.defaultDuration)
		if !coveredBy(windows, b.Interval()) {
			uncovered = append(uncovered, b)
		}
	}
	return uncovered, nil
}

func (s *Service) mapRuleError(op string, id int64, err error) error {
	if errors.Is(err, availabilityRepo.ErrRuleNotFound) {
		s.logger.Warn("%s: rule id=%d not found", op, id)
		return ErrAvailabilityNotFound
	}
	s.logger.Error("%s: repository error for rule id=%d: %v", op, id, err)
	return fmt.Errorf("%w: %s - repository error: %v", ErrInternal, op, err)
}

func (s *Service) mapOverrideError(op string, id int64, err error) error {
	if errors.Is(err, availabilityRepo.ErrOverrideNotFound) {
		s.logger.Warn("%s: override id=%d not found", op, id)
		return ErrOverrideNotFound
	}
	s.logger.Error("%s: repository error for override id=%d: %v", op, id, err)
	return fmt.Errorf("%w: %s - repository error: %v", ErrInternal, op, err)
}

func (s *Service) wrapTxError(op string, err error) error {
	if errors.Is(err, txmanager.ErrBeginTx) || errors.Is(err, txmanager.ErrCommitTx) {
		s.logger.Error("%s: transaction failed: %v", op, err)
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return err
}

// ruleTouches проверяет, что бронирование пересекается с окном правила в свой день недели
func ruleTouches(rule *domain.InstructorAvailability, b *domain.Booking, loc *time.Location) bool {
	start := b.StartTime.In(loc)
	if start.Weekday() != rule.Weekday() {
		return false
	}
	return rule.IntervalOn(start, loc).Overlaps(b.Interval())
}

// overrideTouches проверяет, что бронирование пересекается с исключением
func overrideTouches(o *domain.AvailabilityOverride, b *domain.Booking, loc *time.Location) bool {
	if !o.AppliesTo(b.StartTime.In(loc)) {
		return false
	}
	return o.IntervalOn(loc).Overlaps(b.Interval())
}

func coveredBy(windows []domain.Window, target domain.Interval) bool {
	for _, w := range windows {
		if w.Contains(target) {
			return true
		}
	}
	return false
}

func dateIn(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}
