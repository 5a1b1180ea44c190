package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

var (
	// ErrInvalidConfig возвращается, когда значения конфигурации некорректны
	ErrInvalidConfig = errors.New("config: invalid configuration")
)

// Config конфигурация сервиса
type Config struct {
	Server      ServerConfig      `toml:"server"`
	Database    DatabaseConfig    `toml:"database"`
	Logs        LogsConfig        `toml:"logs"`
	Metrics     MetricsConfig     `toml:"metrics"`
	UserService UserServiceConfig `toml:"user_service"`
	Redis       RedisConfig       `toml:"redis"`
	Kafka       KafkaConfig       `toml:"kafka"`
	Scheduling  SchedulingConfig  `toml:"scheduling"`
	RateLimit   RateLimitConfig   `toml:"rate_limit"`
}

type ServerConfig struct {
	HTTPPort        int `toml:"http_port"`
	ReadTimeout     int `toml:"read_timeout"`
	WriteTimeout    int `toml:"write_timeout"`
	IdleTimeout     int `toml:"idle_timeout"`
	ShutdownTimeout int `toml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"`
	AutoMigrate     bool   `toml:"auto_migrate"`
}

// DSN строка подключения для lib/pq
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

type LogsConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

type UserServiceConfig struct {
	URL     string `toml:"url"`
	Timeout int    `toml:"timeout"`
}

type RedisConfig struct {
	Enabled   bool   `toml:"enabled"`
	Addr      string `toml:"addr"`
	Password  string `toml:"password"`
	DB        int    `toml:"db"`
	SlotsTTL  int    `toml:"slots_ttl"`
	UnreadTTL int    `toml:"unread_ttl"`
}

type KafkaConfig struct {
	Enabled bool     `toml:"enabled"`
	Brokers []string `toml:"brokers"`
	Topic   string   `toml:"topic"`
}

// SchedulingConfig правила расписания студии
type SchedulingConfig struct {
	Timezone                   string `toml:"timezone"`
	CancellationWindowHours    int    `toml:"cancellation_window_hours"`
	PendingTTLHours            int    `toml:"pending_ttl_hours"`
	ExpirySweepIntervalSeconds int    `toml:"expiry_sweep_interval_seconds"`
	MaxRangeDays               int    `toml:"max_range_days"`
	MinBookingNoticeMinutes    int    `toml:"min_booking_notice_minutes"`
	DefaultSlotDurationMinutes int    `toml:"default_slot_duration_minutes"`
}

// Location таймзона студии, в которой задаются правила доступности
func (c SchedulingConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c SchedulingConfig) CancellationWindow() time.Duration {
	return time.Duration(c.CancellationWindowHours) * time.Hour
}

func (c SchedulingConfig) PendingTTL() time.Duration {
	return time.Duration(c.PendingTTLHours) * time.Hour
}

func (c SchedulingConfig) SweepInterval() time.Duration {
	return time.Duration(c.ExpirySweepIntervalSeconds) * time.Second
}

type RateLimitConfig struct {
	Enabled bool    `toml:"enabled"`
	RPS     float64 `toml:"rps"`
	Burst   int     `toml:"burst"`
}

// Load читает конфигурацию из TOML файла
// Перед чтением подгружает .env (если есть), переменные окружения перекрывают секреты из файла
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("DB_HOST"); v != "" {
		c.Database.Host = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Database.Port = port
		}
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
}

func (c *Config) applyDefaults() {
	setDefault(&c.Server.HTTPPort, 8080)
	setDefault(&c.Server.ReadTimeout, 15)
	setDefault(&c.Server.WriteTimeout, 15)
	setDefault(&c.Server.IdleTimeout, 60)
	setDefault(&c.Server.ShutdownTimeout, 10)

	setDefault(&c.Database.Port, 5432)
	setDefault(&c.Database.MaxOpenConns, 25)
	setDefault(&c.Database.MaxIdleConns, 5)
	setDefault(&c.Database.ConnMaxLifetime, 300)
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}

	if c.Logs.Level == "" {
		c.Logs.Level = "info"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Metrics.ServiceName == "" {
		c.Metrics.ServiceName = "lesson-service"
	}

	setDefault(&c.UserService.Timeout, 5)

	setDefault(&c.Redis.SlotsTTL, 60)
	setDefault(&c.Redis.UnreadTTL, 30)

	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "lesson-bookings"
	}

	if c.Scheduling.Timezone == "" {
		c.Scheduling.Timezone = "UTC"
	}
	setDefault(&c.Scheduling.CancellationWindowHours, 24)
	setDefault(&c.Scheduling.PendingTTLHours, 48)
	setDefault(&c.Scheduling.ExpirySweepIntervalSeconds, 300)
	setDefault(&c.Scheduling.MaxRangeDays, 62)
	setDefault(&c.Scheduling.DefaultSlotDurationMinutes, 60)

	if c.RateLimit.RPS == 0 {
		c.RateLimit.RPS = 5
	}
	setDefault(&c.RateLimit.Burst, 10)
}

// Validate проверяет корректность значений
func (c *Config) Validate() error {
	if _, err := time.LoadLocation(c.Scheduling.Timezone); err != nil {
		return fmt.Errorf("%w: unknown timezone %q", ErrInvalidConfig, c.Scheduling.Timezone)
	}
	if c.Scheduling.CancellationWindowHours < 0 {
		return fmt.Errorf("%w: cancellation_window_hours must not be negative", ErrInvalidConfig)
	}
	if c.Scheduling.PendingTTLHours < 0 {
		return fmt.Errorf("%w: pending_ttl_hours must not be negative", ErrInvalidConfig)
	}
	if c.Scheduling.MinBookingNoticeMinutes < 0 {
		return fmt.Errorf("%w: min_booking_notice_minutes must not be negative", ErrInvalidConfig)
	}
	if c.Scheduling.MaxRangeDays < 1 {
		return fmt.Errorf("%w: max_range_days must be positive", ErrInvalidConfig)
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("%w: redis.addr is required when redis is enabled", ErrInvalidConfig)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("%w: kafka.brokers is required when kafka is enabled", ErrInvalidConfig)
	}
	return nil
}

func setDefault(v *int, def int) {
	if *v == 0 {
		*v = def
	}
}
