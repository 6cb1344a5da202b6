package feedcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/streamhub/backend/internal/models"
)

const (
	keyPrefix         = "streamhub:"
	generationCounter = keyPrefix + "feed:gen"
)

// RedisClient is the subset of go-redis used by RedisBackend.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
}

// RedisBackend stores feed pages as JSON strings in Redis.
type RedisBackend struct {
	client RedisClient
}

// NewRedisBackend wraps client.
func NewRedisBackend(client RedisClient) *RedisBackend {
	return &RedisBackend{client: client}
}

// NewRedisClient opens a go-redis client for addr.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// Get loads and decodes the page stored under key.
func (b *RedisBackend) Get(ctx context.Context, key string) (models.VideoPage, error) {
	raw, err := b.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.VideoPage{}, ErrMiss
		}
		return models.VideoPage{}, fmt.Errorf("redis get: %w", err)
	}

	var page models.VideoPage
	if err := json.Unmarshal(raw, &page); err != nil {
		return models.VideoPage{}, fmt.Errorf("decode cached page: %w", err)
	}
	return page, nil
}

// Set encodes page and stores it under key with ttl.
func (b *RedisBackend) Set(ctx context.Context, key string, page models.VideoPage, ttl time.Duration) error {
	raw, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("encode page: %w", err)
	}
	if err := b.client.Set(ctx, keyPrefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Generation reads the shared generation counter. A missing counter is generation zero.
func (b *RedisBackend) Generation(ctx context.Context) (int64, error) {
	gen, err := b.client.Get(ctx, generationCounter).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get generation: %w", err)
	}
	return gen, nil
}

// Bump increments the shared generation counter. Pages of earlier generations
// expire on their own ttl.
func (b *RedisBackend) Bump(ctx context.Context) error {
	if err := b.client.Incr(ctx, generationCounter).Err(); err != nil {
		return fmt.Errorf("redis incr generation: %w", err)
	}
	return nil
}
