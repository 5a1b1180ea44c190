package get_available_slots

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-LessonService/internal/domain"
	"github.com/m04kA/SMC-LessonService/internal/infra/cache"
)

const cacheName = "slots"

// UseCase use case для получения доступных слотов инструктора
type UseCase struct {
	bookingRepo      BookingRepository
	availabilityRepo AvailabilityRepository
	cache            Cache
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
	cache Cache,
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
		cache:            cache,
		metrics:          metrics,
		opts:             opts,
		timeProvider:     &RealTimeProvider{},
		logger:           logger,
	}
}

// Execute выполняет use case получения доступных слотов
// Период с To раньше From не является ошибкой: возвращается пустой список
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("GetAvailableSlots: validation failed: %v", err)
		return nil, err
	}

	loc := uc.opts.Location
	from := dateIn(req.From, loc)
	to := dateIn(req.To, loc)

	uc.logger.Info("GetAvailableSlots: instructor=%d, from=%s, to=%s",
		req.InstructorID, from.Format(domain.DateFormat), to.Format(domain.DateFormat))

	response := &Response{
		InstructorID: req.InstructorID,
		From:         from,
		To:           to,
		Slots:        []domain.TimeSlot{},
	}

	// 2. Пустой период
	if to.Before(from) {
		return response, nil
	}

	// 3. Ограничиваем длину периода
	if uc.opts.MaxRangeDays > 0 {
		maxTo := from.AddDate(0, 0, uc.opts.MaxRangeDays-1)
		if to.After(maxTo) {
			uc.logger.Info("GetAvailableSlots: range clamped to %d days", uc.opts.MaxRangeDays)
			to = maxTo
			response.To = to
		}
	}

	// 4. Слоты без учета текущего времени берем из кэша или генерируем
	slots, err := uc.loadSlots(ctx, req.InstructorID, from, to)
	if err != nil {
		return nil, err
	}

	// 5. Отсекаем прошедшие слоты и слоты ближе минимального времени до начала
	notBefore := uc.timeProvider.Now().Add(uc.opts.MinBookingNotice)
	response.Slots = filterStartingFrom(slots, notBefore)

	uc.logger.Info("GetAvailableSlots: %d slots for instructor=%d", len(response.Slots), req.InstructorID)

	return response, nil
}

// Generate возвращает слоты инструктора за период дат [from, to] без фильтра по текущему времени
func (uc *UseCase) Generate(ctx context.Context, instructorID int64, from, to time.Time) ([]domain.TimeSlot, error) {
	loc := uc.opts.Location
	from, to = dateIn(from, loc), dateIn(to, loc)
	if to.Before(from) {
		return []domain.TimeSlot{}, nil
	}

	rules, err := uc.availabilityRepo.GetRulesByInstructor(ctx, instructorID, false)
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to get availability for instructor=%d: %v", instructorID, err)
		return nil, fmt.Errorf("%w: failed to get availability: %v", ErrInternal, err)
	}

	overrides, err := uc.availabilityRepo.GetOverrides(ctx, instructorID, from, to)
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to get overrides for instructor=%d: %v", instructorID, err)
		return nil, fmt.Errorf("%w: failed to get overrides: %v", ErrInternal, err)
	}

	rangeStart := domain.DayInterval(from, loc).Start
	rangeEnd := domain.DayInterval(to, loc).End

	busy, err := uc.bookingRepo.GetOverlapping(ctx, instructorID, rangeStart, rangeEnd)
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to get bookings for instructor=%d: %v", instructorID, err)
		return nil, fmt.Errorf("%w: failed to get bookings: %v", ErrInternal, err)
	}

	var windows []domain.Window
	for date := from; !date.After(to); date = date.AddDate(0, 0, 1) {
		windows = append(windows, domain.EffectiveWindows(date, rules, overrides, loc, uc.opts.DefaultSlotDuration)...)
	}

	return generateSlots(instructorID, windows, busy), nil
}

func (uc *UseCase) loadSlots(ctx context.Context, instructorID int64, from, to time.Time) ([]domain.TimeSlot, error) {
	key := cache.SlotsKey(instructorID, from, to)

	var cached []domain.TimeSlot
	err := uc.cache.Get(ctx, key, &cached)
	if err == nil {
		uc.recordCache(true)
		return cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		uc.logger.Warn("GetAvailableSlots: cache read failed for key=%s: %v", key, err)
	}
	uc.recordCache(false)

	slots, err := uc.Generate(ctx, instructorID, from, to)
	if err != nil {
		return nil, err
	}

	if err := uc.cache.Set(ctx, key, slots, uc.opts.CacheTTL); err != nil {
		uc.logger.Warn("GetAvailableSlots: cache write failed for key=%s: %v", key, err)
	}

	return slots, nil
}

func (uc *UseCase) recordCache(hit bool) {
	if uc.metrics != nil {
		uc.metrics.RecordCacheResult(cacheName, hit)
	}
}
