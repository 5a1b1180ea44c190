package message

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-LessonService/internal/domain"
	"github.com/m04kA/SMC-LessonService/pkg/dbmetrics"
	"github.com/m04kA/SMC-LessonService/pkg/psqlbuilder"
)

const (
	tableMessages    = "booking_messages"
	tableReadMarkers = "booking_read_markers"
)

var messageColumns = []string{"id", "booking_id", "sender_id", "content", "created_at"}

// Repository репозиторий сообщений по бронированиям и отметок о прочтении
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория сообщений
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create добавляет сообщение в переписку по бронированию
func (r *Repository) Create(ctx context.Context, msg *domain.BookingMessage) (*domain.BookingMessage, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert(tableMessages).
		Columns("booking_id", "sender_id", "content").
		Values(msg.BookingID, msg.SenderID, msg.Content).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	if err := executor.QueryRowContext(ctx, query, args...).Scan(&msg.ID, &msg.CreatedAt); err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	return msg, nil
}

// GetByBooking возвращает переписку по бронированию в хронологическом порядке
func (r *Repository) GetByBooking(ctx context.Context, bookingID int64) ([]*domain.BookingMessage, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(messageColumns...).
		From(tableMessages).
		Where(squirrel.Eq{"booking_id": bookingID}).
		OrderBy("created_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByBooking - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetByBooking - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

// GetLatestFromOthers возвращает последнее сообщение собеседника по каждому бронированию
// Сообщения самого viewer не учитываются. Ключ результата - ID бронирования
func (r *Repository) GetLatestFromOthers(ctx context.Context, viewerID int64, bookingIDs []int64) (map[int64]*domain.BookingMessage, error) {
	result := make(map[int64]*domain.BookingMessage, len(bookingIDs))
	if len(bookingIDs) == 0 {
		return result, nil
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(messageColumns...).
		Options("DISTINCT ON (booking_id)").
		From(tableMessages).
		Where(squirrel.Eq{"booking_id": bookingIDs}).
		Where(squirrel.NotEq{"sender_id": viewerID}).
		OrderBy("booking_id", "created_at DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetLatestFromOthers - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetLatestFromOthers - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	messages, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}
	for _, m := range messages {
		result[m.BookingID] = m
	}

	return result, nil
}

// GetReadMarkers возвращает время последнего прочтения переписок пользователем
// Ключ результата - ID бронирования; переписки без отметки в результат не попадают
func (r *Repository) GetReadMarkers(ctx context.Context, userID int64, bookingIDs []int64) (map[int64]time.Time, error) {
	result := make(map[int64]time.Time, len(bookingIDs))
	if len(bookingIDs) == 0 {
		return result, nil
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("booking_id", "last_read_at").
		From(tableReadMarkers).
		Where(squirrel.Eq{"user_id": userID}).
		Where(squirrel.Eq{"booking_id": bookingIDs}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetReadMarkers - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetReadMarkers - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			bookingID int64
			readAt    time.Time
		)
		if err := rows.Scan(&bookingID, &readAt); err != nil {
			return nil, fmt.Errorf("%w: GetReadMarkers - scan row: %v", ErrScanRow, err)
		}
		result[bookingID] = readAt
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetReadMarkers - rows error: %v", ErrScanRow, err)
	}

	return result, nil
}

// UpsertReadMarker сдвигает отметку о прочтении вперед (назад она не откатывается)
func (r *Repository) UpsertReadMarker(ctx context.Context, bookingID, userID int64, readAt time.Time) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert(tableReadMarkers).
		Columns("booking_id", "user_id", "last_read_at").
		Values(bookingID, userID, readAt).
		Suffix("ON CONFLICT (booking_id, user_id) DO UPDATE SET last_read_at = GREATEST(" +
			tableReadMarkers + ".last_read_at, EXCLUDED.last_read_at)").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpsertReadMarker - build insert query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: UpsertReadMarker - execute upsert: %v", ErrExecQuery, err)
	}

	return nil
}

func scanMessages(rows *sql.Rows) ([]*domain.BookingMessage, error) {
	messages := make([]*domain.BookingMessage, 0)

	for rows.Next() {
		var m domain.BookingMessage
		if err := rows.Scan(&m.ID, &m.BookingID, &m.SenderID, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanMessages - scan row: %v", ErrScanRow, err)
		}
		messages = append(messages, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanMessages - rows error: %v", ErrScanRow, err)
	}

	return messages, nil
}
