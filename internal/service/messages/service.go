package messages

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/m04kA/SMC-LessonService/internal/domain"
	"github.com/m04kA/SMC-LessonService/internal/events"
	"github.com/m04kA/SMC-LessonService/internal/infra/cache"
	bookingRepo "github.com/m04kA/SMC-LessonService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-LessonService/internal/service/messages/models"
	"github.com/m04kA/SMC-LessonService/pkg/txmanager"
)

const cacheName = "unread"

// Service сервис переписки по бронированиям и счетчика непрочитанных
type Service struct {
	bookingRepo  BookingRepository
	messageRepo  MessageRepository
	userClient   UserServiceClient
	cache        Cache
	txManager    TransactionManager
	publisher    EventPublisher
	metrics      MetricsRecorder
	unreadTTL    time.Duration
	timeProvider TimeProvider
	logger       Logger
}

// NewService создает новый экземпляр сервиса переписки
// metrics может быть nil
func NewService(
	bookingRepo BookingRepository,
	messageRepo MessageRepository,
	userClient UserServiceClient,
	cache Cache,
	txManager TransactionManager,
	publisher EventPublisher,
	metrics MetricsRecorder,
	unreadTTL time.Duration,
	logger Logger,
) *Service {
	return &Service{
		bookingRepo:  bookingRepo,
		messageRepo:  messageRepo,
		userClient:   userClient,
		cache:        cache,
		txManager:    txManager,
		publisher:    publisher,
		metrics:      metrics,
		unreadTTL:    unreadTTL,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// SendMessage добавляет сообщение в переписку и сдвигает отметку о прочтении отправителя
func (s *Service) SendMessage(ctx context.Context, req *models.SendMessageRequest) (*models.MessageResponse, error) {
	s.logger.Info("SendMessage: booking=%d, sender=%d", req.BookingID, req.SenderID)

	// 1. Валидация
	content := strings.TrimSpace(req.Content)
	if req.BookingID <= 0 || req.SenderID <= 0 {
		return nil, fmt.Errorf("%w: booking_id and sender_id must be positive", ErrInvalidInput)
	}
	if content == "" {
		return nil, fmt.Errorf("%w: message is empty", ErrInvalidInput)
	}
	if utf8.RuneCountInString(content) > domain.MaxMessageLength {
		return nil, fmt.Errorf("%w: message exceeds %d characters", ErrInvalidInput, domain.MaxMessageLength)
	}

	// 2. Только участники бронирования
	booking, err := s.participantBooking(ctx, "SendMessage", req.BookingID, req.SenderID)
	if err != nil {
		return nil, err
	}

	// 3. Сообщение и отметка отправителя атомарно
	var saved *domain.BookingMessage
	err = s.txManager.Do(ctx, func(txCtx context.Context) error {
		msg, err := s.messageRepo.Create(txCtx, &domain.BookingMessage{
			BookingID: req.BookingID,
			SenderID:  req.SenderID,
			Content:   content,
		})
		if err != nil {
			return fmt.Errorf("%w: failed to create message: %v", ErrInternal, err)
		}

		if err := s.messageRepo.UpsertReadMarker(txCtx, req.BookingID, req.SenderID, msg.CreatedAt); err != nil {
			return fmt.Errorf("%w: failed to update read marker: %v", ErrInternal, err)
		}

		saved = msg
		return nil
	})
	if err != nil {
		s.logger.Error("SendMessage: failed for booking=%d: %v", req.BookingID, err)
		if errors.Is(err, txmanager.ErrBeginTx) || errors.Is(err, txmanager.ErrCommitTx) {
			return nil, fmt.Errorf("%w: %v", ErrInternal, err)
		}
		return nil, err
	}

	s.logger.Info("SendMessage: message id=%d added to booking=%d", saved.ID, saved.BookingID)
	s.publisher.Publish(ctx, events.MessageSent(booking, req.SenderID, saved.CreatedAt))

	resp := models.FromDomainMessage(saved)
	return &resp, nil
}

// GetMessages возвращает переписку по бронированию в хронологическом порядке
func (s *Service) GetMessages(ctx context.Context, bookingID, viewerID int64) (*models.MessagesResponse, error) {
	if _, err := s.participantBooking(ctx, "GetMessages", bookingID, viewerID); err != nil {
		return nil, err
	}

	msgs, err := s.messageRepo.GetByBooking(ctx, bookingID)
	if err != nil {
		s.logger.Error("GetMessages: failed to get messages for booking=%d: %v", bookingID, err)
		return nil, fmt.Errorf("%w: GetMessages - repository error: %v", ErrInternal, err)
	}

	return models.FromDomainMessages(bookingID, msgs), nil
}

// MarkRead сдвигает отметку о прочтении переписки на текущий момент
func (s *Service) MarkRead(ctx context.Context, bookingID, viewerID int64) error {
	booking, err := s.participantBooking(ctx, "MarkRead", bookingID, viewerID)
	if err != nil {
		return err
	}

	now := s.timeProvider.Now()
	if err := s.messageRepo.UpsertReadMarker(ctx, bookingID, viewerID, now); err != nil {
		s.logger.Error("MarkRead: failed to update marker for booking=%d user=%d: %v", bookingID, viewerID, err)
		return fmt.Errorf("%w: MarkRead - repository error: %v", ErrInternal, err)
	}

	s.publisher.Publish(ctx, events.ThreadRead(booking, viewerID, now))
	return nil
}

// GetUnread возвращает непрочитанные переписки по активным бронированиям пользователя
func (s *Service) GetUnread(ctx context.Context, viewerID int64) (*models.UnreadListResponse, error) {
	if viewerID <= 0 {
		return nil, fmt.Errorf("%w: viewer_id must be positive", ErrInvalidInput)
	}

	key := cache.UnreadKey(viewerID)

	var cached models.UnreadListResponse
	err := s.cache.Get(ctx, key, &cached)
	if err == nil {
		s.recordCache(true)
		return &cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("GetUnread: cache read failed for key=%s: %v", key, err)
	}
	s.recordCache(false)

	items, err := s.computeUnread(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	resp := models.FromDomainUnread(items)

	if err := s.cache.Set(ctx, key, resp, s.unreadTTL); err != nil {
		s.logger.Warn("GetUnread: cache write failed for key=%s: %v", key, err)
	}

	return resp, nil
}

func (s *Service) computeUnread(ctx context.Context, viewerID int64) ([]domain.UnreadBookingMessage, error) {
	// 1. Кандидаты: активные бронирования, где пользователь ученик или инструктор
	bookings, err := s.bookingRepo.GetByFilter(ctx, domain.BookingsFilter{ParticipantID: &viewerID})
	if err != nil {
		s.logger.Error("GetUnread: failed to get bookings for user=%d: %v", viewerID, err)
		return nil, fmt.Errorf("%w: GetUnread - failed to get bookings: %v", ErrInternal, err)
	}
	if len(bookings) == 0 {
		return []domain.UnreadBookingMessage{}, nil
	}

	bookingIDs := make([]int64, 0, len(bookings))
	for _, b := range bookings {
		if b.IsActive() {
			bookingIDs = append(bookingIDs, b.ID)
		}
	}
	if len(bookingIDs) == 0 {
		return []domain.UnreadBookingMessage{}, nil
	}

	// 2. Последние сообщения собеседников и отметки о прочтении
	latest, err := s.messageRepo.GetLatestFromOthers(ctx, viewerID, bookingIDs)
	if err != nil {
		s.logger.Error("GetUnread: failed to get latest messages for user=%d: %v", viewerID, err)
		return nil, fmt.Errorf("%w: GetUnread - failed to get messages: %v", ErrInternal, err)
	}
	markers, err := s.messageRepo.GetReadMarkers(ctx, viewerID, bookingIDs)
	if err != nil {
		s.logger.Error("GetUnread: failed to get read markers for user=%d: %v", viewerID, err)
		return nil, fmt.Errorf("%w: GetUnread - failed to get read markers: %v", ErrInternal, err)
	}

	// 3. Сравнение и имена отправителей
	items := aggregateUnread(latest, markers)
	if len(items) == 0 {
		return items, nil
	}

	senderIDs := make([]int64, 0, len(items))
	for _, it := range items {
		senderIDs = append(senderIDs, it.SenderID)
	}
	names := s.userClient.GetNames(ctx, senderIDs)
	for i := range items {
		items[i].SenderName = names[items[i].SenderID]
	}

	return items, nil
}

// participantBooking загружает бронирование и проверяет, что userID его участник
func (s *Service) participantBooking(ctx context.Context, op string, bookingID, userID int64) (*domain.Booking, error) {
	if bookingID <= 0 || userID <= 0 {
		return nil, fmt.Errorf("%w: booking_id and user_id must be positive", ErrInvalidInput)
	}

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("%s: booking id=%d not found", op, bookingID)
			return nil, ErrBookingNotFound
		}
		s.logger.Error("%s: failed to get booking id=%d: %v", op, bookingID, err)
		return nil, fmt.Errorf("%w: %s - repository error: %v", ErrInternal, op, err)
	}

	if !booking.IsParticipant(userID) {
		s.logger.Warn("%s: user=%d is not a participant of booking id=%d", op, userID, bookingID)
		return nil, ErrAccessDenied
	}

	return booking, nil
}

func (s *Service) recordCache(hit bool) {
	if s.metrics != nil {
		s.metrics.RecordCacheResult(cacheName, hit)
	}
}
