// Package cache holds the read-through cache for batch detail views.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tcg-labeler/internal/model"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// KeyBatchDetail is batch_detail:{user_id}:{batch_id}.
const KeyBatchDetail = "batch_detail:%s:%s"

// DefaultTTL applies when a zero TTL is configured.
var DefaultTTL = 5 * time.Minute

// BatchCache caches assembled batch details per user.
type BatchCache interface {
	// Get returns the cached detail and whether it was present.
	Get(ctx context.Context, userID, batchID string) (*model.BatchDetail, bool, error)
	Set(ctx context.Context, userID string, detail *model.BatchDetail) error
	Invalidate(ctx context.Context, userID, batchID string) error
}

// NewRedisClient opens a client and checks the server answers.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

type redisBatchCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRedisBatchCache stores batch details as JSON strings with a TTL.
// The caller owns client.
func NewRedisBatchCache(client *redis.Client, ttl time.Duration, logger zerolog.Logger) BatchCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &redisBatchCache{
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("component", "batch_cache").Logger(),
	}
}

func batchKey(userID, batchID string) string {
	return fmt.Sprintf(KeyBatchDetail, userID, batchID)
}

func (c *redisBatchCache) Get(ctx context.Context, userID, batchID string) (*model.BatchDetail, bool, error) {
	key := batchKey(userID, batchID)

	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get batch from cache: %w", err)
	}

	var detail model.BatchDetail
	if err := json.Unmarshal(data, &detail); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("dropping corrupt cache entry")
		_ = c.client.Del(ctx, key).Err()
		return nil, false, nil
	}

	return &detail, true, nil
}

func (c *redisBatchCache) Set(ctx context.Context, userID string, detail *model.BatchDetail) error {
	if detail == nil {
		return nil
	}

	data, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("failed to encode batch detail: %w", err)
	}

	if err := c.client.Set(ctx, batchKey(userID, detail.Batch.BatchID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set batch in cache: %w", err)
	}
	return nil
}

func (c *redisBatchCache) Invalidate(ctx context.Context, userID, batchID string) error {
	if err := c.client.Del(ctx, batchKey(userID, batchID)).Err(); err != nil {
		return fmt.Errorf("failed to delete batch from cache: %w", err)
	}
	return nil
}

// NopBatchCache never stores anything. It is used when Redis is not configured.
type NopBatchCache struct{}

func (NopBatchCache) Get(context.Context, string, string) (*model.BatchDetail, bool, error) {
	return nil, false, nil
}

func (NopBatchCache) Set(context.Context, string, *model.BatchDetail) error { return nil }

func (NopBatchCache) Invalidate(context.Context, string, string) error { return nil }
