package adapters

import (
	"context"
	"time"

	"github.com/shard-legends/crafting-source-service/internal/database"
	"github.com/shard-legends/crafting-source-service/internal/storage"
	"github.com/shard-legends/crafting-source-service/pkg/metrics"
)

// redisStore - часть database.RedisClient, которая нужна кешу артефактов
type redisStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Health(ctx context.Context) error
}

// CacheAdapter адаптирует database.RedisClient для storage.CacheInterface
// и считает длительность каждой операции
type CacheAdapter struct {
	redis redisStore
}

// NewCacheAdapter создает новый адаптер для Redis
func NewCacheAdapter(redis *database.RedisClient) storage.CacheInterface {
	return &CacheAdapter{redis: redis}
}

// Get получает значение по ключу
func (a *CacheAdapter) Get(ctx context.Context, key string) (string, error) {
	start := time.Now()
	val, err := a.redis.Get(ctx, key)
	record("get", start, err)
	return val, err
}

// Set сохраняет сериализованный артефакт с TTL
func (a *CacheAdapter) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	start := time.Now()
	err := a.redis.Set(ctx, key, value, ttl)
	record("set", start, err)
	return err
}

// Del удаляет ключ
func (a *CacheAdapter) Del(ctx context.Context, key string) error {
	start := time.Now()
	err := a.redis.Delete(ctx, key)
	record("del", start, err)
	return err
}

// Health проверяет состояние Redis
func (a *CacheAdapter) Health(ctx context.Context) error {
	return a.redis.Health(ctx)
}

func record(operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.RecordRedisOperation(operation, status, time.Since(start).Seconds())
}
