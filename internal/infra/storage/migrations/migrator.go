package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed sql/*.sql
var embedMigrations embed.FS

const migrationsDir = "sql"

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Migrator применяет встроенные в бинарник миграции через goose
type Migrator struct {
	db     *sql.DB
	logger Logger
}

// NewMigrator создает мигратор для PostgreSQL
func NewMigrator(db *sql.DB, logger Logger) (*Migrator, error) {
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(&gooseLogger{logger: logger})

	if err := goose.SetDialect("postgres"); err != nil {
		return nil, fmt.Errorf("migrations: set goose dialect: %w", err)
	}

	return &Migrator{db: db, logger: logger}, nil
}

// Up применяет все непримененные миграции
func (m *Migrator) Up(ctx context.Context) error {
	m.logger.Info("Applying database migrations...")

	if err := goose.UpContext(ctx, m.db, migrationsDir); err != nil {
		return fmt.Errorf("migrations: apply: %w", err)
	}

	version, err := goose.GetDBVersionContext(ctx, m.db)
	if err != nil {
		return fmt.Errorf("migrations: get version: %w", err)
	}

	m.logger.Info("Migrations applied, schema version=%d", version)
	return nil
}

// gooseLogger адаптер нашего логгера к goose.Logger
type gooseLogger struct {
	logger Logger
}

func (l *gooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Info(format, v...)
}

func (l *gooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Error(format, v...)
}
