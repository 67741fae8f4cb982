package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/dept-attendance-api/pkg/errors"
)

// CacheRepository stores JSON values in Redis hashes. Each bucket is one hash
// (for example every section of a department) so a bucket shares one TTL and
// single entries can be dropped without scanning the keyspace.
type CacheRepository struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

// NewCacheRepository constructs a cache repository. Buckets are namespaced
// under prefix. A nil client turns every read into a miss and every write
// into a no-op.
func NewCacheRepository(client *redis.Client, prefix string, logger *zap.Logger) *CacheRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheRepository{client: client, prefix: prefix, logger: logger}
}

func (r *CacheRepository) key(bucket string) string {
	return r.prefix + bucket
}

// Get decodes bucket[field] into dest.
func (r *CacheRepository) Get(ctx context.Context, bucket, field string, dest interface{}) error {
	if r.client == nil {
		return appErrors.ErrCacheMiss
	}

	raw, err := r.client.HGet(ctx, r.key(bucket), field).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return appErrors.ErrCacheMiss
		}
		return fmt.Errorf("redis hget %s/%s: %w", bucket, field, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode cached %s/%s: %w", bucket, field, err)
	}
	return nil
}

// Set writes bucket[field] and refreshes the bucket TTL in one round trip.
func (r *CacheRepository) Set(ctx context.Context, bucket, field string, value interface{}, ttl time.Duration) error {
	if r.client == nil {
		return nil
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cached %s/%s: %w", bucket, field, err)
	}

	key := r.key(bucket)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, field, payload)
		if ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis hset %s/%s: %w", bucket, field, err)
	}
	return nil
}

// Delete drops fields from bucket, or the whole bucket when no field is given.
func (r *CacheRepository) Delete(ctx context.Context, bucket string, fields ...string) error {
	if r.client == nil {
		return nil
	}

	key := r.key(bucket)
	var err error
	if len(fields) == 0 {
		err = r.client.Del(ctx, key).Err()
	} else {
		err = r.client.HDel(ctx, key, fields...).Err()
	}
	if err != nil {
		return fmt.Errorf("redis delete %s: %w", bucket, err)
	}
	r.logger.Debug("cache entries dropped", zap.String("bucket", bucket), zap.Strings("fields", fields))
	return nil
}

// Ping reports whether Redis answers. A disabled cache is healthy.
func (r *CacheRepository) Ping(ctx context.Context) error {
	if r.client == nil {
		return nil
	}
	return r.client.Ping(ctx).Err()
}

// Close releases the underlying Redis connection if present.
func (r *CacheRepository) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}
