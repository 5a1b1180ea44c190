package availability

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-LessonService/internal/domain"
	"github.com/m04kA/SMC-LessonService/pkg/dbmetrics"
	"github.com/m04kA/SMC-LessonService/pkg/psqlbuilder"
	"github.com/m04kA/SMC-LessonService/pkg/types"
)

const (
	tableRules     = "instructor_availability"
	tableOverrides = "availability_overrides"
)

var ruleColumns = []string{
	"id",
	"instructor_id",
	"day_of_week",
	"start_time",
	"end_time",
	"slot_duration_minutes",
	"is_active",
	"created_at",
	"updated_at",
}

var overrideColumns = []string{
	"id",
	"instructor_id",
	"override_date",
	"start_time",
	"end_time",
	"is_available",
	"reason",
	"slot_duration_minutes",
	"created_at",
}

// Repository репозиторий правил доступности инструкторов и исключений по датам
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория доступности
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetRulesByInstructor возвращает недельные правила инструктора
// includeInactive = false - только активные правила
func (r *Repository) GetRulesByInstructor(ctx context.Context, instructorID int64, includeInactive bool) ([]*domain.InstructorAvailability, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(ruleColumns...).
		From(tableRules).
		Where(squirrel.Eq{"instructor_id": instructorID})

	if !includeInactive {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"is_active": true})
	}

	query, args, err := selectBuilder.OrderBy("day_of_week ASC", "start_time ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetRulesByInstructor - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetRulesByInstructor - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	rules := make([]*domain.InstructorAvailability, 0)
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: GetRulesByInstructor - scan row: %v", ErrScanRow, err)
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetRulesByInstructor - rows error: %v", ErrScanRow, err)
	}

	return rules, nil
}

// GetRuleByID получает правило по ID
// Внутри транзакции строка блокируется (FOR UPDATE)
func (r *Repository) GetRuleByID(ctx context.Context, id int64) (*domain.InstructorAvailability, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(ruleColumns...).
		From(tableRules).
		Where(squirrel.Eq{"id": id})

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetRuleByID - build select query: %v", ErrBuildQuery, err)
	}

	rule, err := scanRule(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRuleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetRuleByID - scan rule: %v", ErrScanRow, err)
	}

	return rule, nil
}

// CreateRule создает недельное правило
func (r *Repository) CreateRule(ctx context.Context, rule *domain.InstructorAvailability) (*domain.InstructorAvailability, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert(tableRules).
		Columns(
			"instructor_id",
			"day_of_week",
			"start_time",
			"end_time",
			"slot_duration_minutes",
			"is_active",
		).
		Values(
			rule.InstructorID,
			rule.DayOfWeek,
			rule.StartTime,
			rule.EndTime,
			rule.SlotDurationMinutes,
			rule.IsActive,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: CreateRule - build insert query: %v", ErrBuildQuery, err)
	}

	err = executor.QueryRowContext(ctx, query, args...).Scan(&rule.ID, &rule.CreatedAt, &rule.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: CreateRule - execute insert: %v", ErrExecQuery, err)
	}

	return rule, nil
}

// UpdateRule обновляет время, день и длительность занятия в правиле
func (r *Repository) UpdateRule(ctx context.Context, rule *domain.InstructorAvailability) (*domain.InstructorAvailability, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update(tableRules).
		Set("day_of_week", rule.DayOfWeek).
		Set("start_time", rule.StartTime).
		Set("end_time", rule.EndTime).
		Set("slot_duration_minutes", rule.SlotDurationMinutes).
		Set("is_active", rule.IsActive).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": rule.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: UpdateRule - build update query: %v", ErrBuildQuery, err)
	}

	err = executor.QueryRowContext(ctx, query, args...).Scan(&rule.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRuleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: UpdateRule - execute update: %v", ErrExecQuery, err)
	}

	return rule, nil
}

// DeactivateRule мягко отключает правило (is_active = false)
func (r *Repository) DeactivateRule(ctx context.Context, id int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update(tableRules).
		Set("is_active", false).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: DeactivateRule - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: DeactivateRule - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: DeactivateRule - get rows affected: %v", ErrExecQuery, err)
	}
	if rowsAffected == 0 {
		return ErrRuleNotFound
	}

	return nil
}

// GetOverrides возвращает исключения инструктора за период дат [from, to] включительно
func (r *Repository) GetOverrides(ctx context.Context, instructorID int64, from, to time.Time) ([]*domain.AvailabilityOverride, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(overrideColumns...).
		From(tableOverrides).
		Where(squirrel.Eq{"instructor_id": instructorID}).
		Where(squirrel.GtOrEq{"override_date": from.Format(domain.DateFormat)}).
		Where(squirrel.LtOrEq{"override_date": to.Format(domain.DateFormat)}).
		OrderBy("override_date ASC", "start_time ASC NULLS FIRST").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetOverrides - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetOverrides - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	overrides := make([]*domain.AvailabilityOverride, 0)
	for rows.Next() {
		o, err := scanOverride(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: GetOverrides - scan row: %v", ErrScanRow, err)
		}
		overrides = append(overrides, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetOverrides - rows error: %v", ErrScanRow, err)
	}

	return overrides, nil
}

// GetOverrideByID получает исключение по ID
func (r *Repository) GetOverrideByID(ctx context.Context, id int64) (*domain.AvailabilityOverride, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(overrideColumns...).
		From(tableOverrides).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetOverrideByID - build select query: %v", ErrBuildQuery, err)
	}

	o, err := scanOverride(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOverrideNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetOverrideByID - scan override: %v", ErrScanRow, err)
	}

	return o, nil
}

// CreateOverride создает исключение на дату
func (r *Repository) CreateOverride(ctx context.Context, o *domain.AvailabilityOverride) (*domain.AvailabilityOverride, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert(tableOverrides).
		Columns(
			"instructor_id",
			"override_date",
			"start_time",
			"end_time",
			"is_available",
			"reason",
			"slot_duration_minutes",
		).
		Values(
			o.InstructorID,
			o.OverrideDate.Format(domain.DateFormat),
			o.StartTime,
			o.EndTime,
			o.IsAvailable,
			o.Reason,
			o.SlotDurationMinutes,
		).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: CreateOverride - build insert query: %v", ErrBuildQuery, err)
	}

	if err := executor.QueryRowContext(ctx, query, args...).Scan(&o.ID, &o.CreatedAt); err != nil {
		return nil, fmt.Errorf("%w: CreateOverride - execute insert: %v", ErrExecQuery, err)
	}

	return o, nil
}

// DeleteOverride удаляет исключение (исключения не версионируются, удаление физическое)
func (r *Repository) DeleteOverride(ctx context.Context, id int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete(tableOverrides).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: DeleteOverride - build delete query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: DeleteOverride - execute delete: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: DeleteOverride - get rows affected: %v", ErrExecQuery, err)
	}
	if rowsAffected == 0 {
		return ErrOverrideNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRule(row rowScanner) (*domain.InstructorAvailability, error) {
	var rule domain.InstructorAvailability
	err := row.Scan(
		&rule.ID,
		&rule.InstructorID,
		&rule.DayOfWeek,
		&rule.StartTime,
		&rule.EndTime,
		&rule.SlotDurationMinutes,
		&rule.IsActive,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func scanOverride(row rowScanner) (*domain.AvailabilityOverride, error) {
	var (
		o            domain.AvailabilityOverride
		startTime    types.TimeString
		endTime      types.TimeString
		slotDuration sql.NullInt64
	)

	err := row.Scan(
		&o.ID,
		&o.InstructorID,
		&o.OverrideDate,
		&startTime,
		&endTime,
		&o.IsAvailable,
		&o.Reason,
		&slotDuration,
		&o.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if !startTime.IsZero() && !endTime.IsZero() {
		o.StartTime = &startTime
		o.EndTime = &endTime
	}
	if slotDuration.Valid {
		d := int(slotDuration.Int64)
		o.SlotDurationMinutes = &d
	}

	return &o, nil
}
