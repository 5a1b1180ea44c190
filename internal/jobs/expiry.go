package jobs

import (
	"context"
	"time"
)

const defaultSweepInterval = time.Minute

// BookingExpirer переводит просроченные заявки в expired
type BookingExpirer interface {
	ExpireStale(ctx context.Context) (int, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// ExpiryWorker периодически закрывает заявки, которые инструктор не подтвердил вовремя
type ExpiryWorker struct {
	expirer  BookingExpirer
	interval time.Duration
	logger   Logger
}

// NewExpiryWorker создает воркер; interval <= 0 заменяется на минуту
func NewExpiryWorker(expirer BookingExpirer, interval time.Duration, logger Logger) *ExpiryWorker {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &ExpiryWorker{
		expirer:  expirer,
		interval: interval,
		logger:   logger,
	}
}

// Run блокируется до отмены ctx
// Первый проход выполняется сразу, чтобы не ждать интервал после рестарта
func (w *ExpiryWorker) Run(ctx context.Context) {
	w.logger.Info("ExpiryWorker: started with interval=%s", w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("ExpiryWorker: stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *ExpiryWorker) sweep(ctx context.Context) {
	n, err := w.expirer.ExpireStale(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		w.logger.Error("ExpiryWorker: sweep failed: %v", err)
		return
	}
	if n > 0 {
		w.logger.Info("ExpiryWorker: expired %d bookings", n)
	}
}
