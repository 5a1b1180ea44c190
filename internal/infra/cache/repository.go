package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Repository JSON-кэш поверх Redis
// При client == nil кэш выключен: Get всегда возвращает ErrCacheMiss, запись игнорируется
type Repository struct {
	client *redis.Client
}

// NewRepository создает репозиторий кэша
func NewRepository(client *redis.Client) *Repository {
	return &Repository{client: client}
}

// Get читает значение и раскладывает его в dest
func (r *Repository) Get(ctx context.Context, key string, dest interface{}) error {
	if r.client == nil {
		return ErrCacheMiss
	}

	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheMiss
		}
		return fmt.Errorf("cache: redis get %s: %w", key, err)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("cache: unmarshal %s: %w", key, err)
	}

	return nil
}

// Set сохраняет значение с TTL
func (r *Repository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if r.client == nil {
		return nil
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: marshal %s: %w", key, err)
	}

	if err := r.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("cache: redis set %s: %w", key, err)
	}

	return nil
}

// Delete удаляет ключи
func (r *Repository) Delete(ctx context.Context, keys ...string) error {
	if r.client == nil || len(keys) == 0 {
		return nil
	}

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache: redis del: %w", err)
	}

	return nil
}

// DeleteByPattern удаляет все ключи, подходящие под шаблон
func (r *Repository) DeleteByPattern(ctx context.Context, pattern string) error {
	if r.client == nil {
		return nil
	}

	iter := r.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("cache: redis del %s: %w", iter.Val(), err)
		}
	}

	if err := iter.Err(); err != nil {
		return fmt.Errorf("cache: redis scan %s: %w", pattern, err)
	}

	return nil
}

// Ping проверяет доступность Redis
func (r *Repository) Ping(ctx context.Context) error {
	if r.client == nil {
		return nil
	}
	return r.client.Ping(ctx).Err()
}

// Close закрывает соединение с Redis
func (r *Repository) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}
