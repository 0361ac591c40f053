package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	appErrors "github.com/noah-isme/felling-licence-api/pkg/errors"
)

// generationTTL bounds how long an invalidation counter outlives its last bump.
const generationTTL = 24 * time.Hour

// CacheRepository stores JSON payloads in Redis under a namespace prefix.
type CacheRepository struct {
	client *redis.Client
	prefix string
}

// NewCacheRepository constructs a cache repository. A nil client disables caching.
func NewCacheRepository(client *redis.Client, prefix string) *CacheRepository {
	return &CacheRepository{client: client, prefix: prefix}
}

func (r *CacheRepository) generationKey(key string) string {
	return r.key(key) + ":gen"
}

func (r *CacheRepository) key(key string) string {
	if r.prefix == "" {
		return key
	}
	return r.prefix + ":" + key
}

// Get retrieves and unmarshals the cached value into dest.
func (r *CacheRepository) Get(ctx context.Context, key string, dest interface{}) error {
	if r.client == nil {
		return appErrors.ErrCacheMiss
	}

	raw, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return appErrors.ErrCacheMiss
		}
		return fmt.Errorf("redis get %s: %w", key, err)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("unmarshal cache value for %s: %w", key, err)
	}
	return nil
}

// Generation returns the invalidation counter for key; zero when it was never invalidated.
func (r *CacheRepository) Generation(ctx context.Context, key string) (int64, error) {
	if r.client == nil {
		return 0, nil
	}
	gen, err := r.client.Get(ctx, r.generationKey(key)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("redis get generation %s: %w", key, err)
	}
	return gen, nil
}

// SetIfGeneration stores the value only while the key's generation still equals gen.
// A concurrent invalidation makes it return ErrCacheStale and write nothing.
func (r *CacheRepository) SetIfGeneration(ctx context.Context, key string, value interface{}, ttl time.Duration, gen int64) error {
	if r.client == nil {
		return nil
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value for %s: %w", key, err)
	}

	genKey := r.generationKey(key)
	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			return appErrors.ErrCacheStale
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, r.key(key), payload, ttl)
			return nil
		})
		return err
	}, genKey)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, appErrors.ErrCacheStale), errors.Is(err, redis.TxFailedErr):
		return appErrors.ErrCacheStale
	default:
		return fmt.Errorf("redis set %s: %w", key, err)
	}
}

// Delete removes the given keys and bumps their generations so in-flight
// SetIfGeneration calls computed before the delete are discarded.
func (r *CacheRepository) Delete(ctx context.Context, keys ...string) error {
	if r.client == nil || len(keys) == 0 {
		return nil
	}
	_, err := r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, key := range keys {
			genKey := r.generationKey(key)
			pipe.Del(ctx, r.key(key))
			pipe.Incr(ctx, genKey)
			pipe.Expire(ctx, genKey, generationTTL)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	return nil
}

// Close releases the underlying Redis connection if present.
func (r *CacheRepository) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}
