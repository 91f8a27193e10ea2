package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bryanwahyu/storelens/internal/domain/media"
)

const keyPrefix = "storelens:features:"

// RedisOptions for NewRedisClient
type RedisOptions struct {
	Address  string
	Password string
	DB       int
}

// NewRedisClient creates a pooled client. It does not dial; call Ping.
func NewRedisClient(o RedisOptions) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         o.Address,
		Password:     o.Password,
		DB:           o.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})
}

// RedisFeatureCache implements media.FeatureCache. Asset ids are immutable,
// so entries are written once and only expire through ttl.
type RedisFeatureCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisFeatureCache(client *redis.Client, ttl time.Duration) *RedisFeatureCache {
	return &RedisFeatureCache{client: client, ttl: ttl}
}

func (c *RedisFeatureCache) Get(ctx context.Context, key string) (media.AssetFeatures, bool, error) {
	val, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return media.AssetFeatures{}, false, nil
	}
	if err != nil {
		return media.AssetFeatures{}, false, err
	}
	var f media.AssetFeatures
	if err := json.Unmarshal(val, &f); err != nil {
		return media.AssetFeatures{}, false, fmt.Errorf("decode cached features %s: %w", key, err)
	}
	return f, true, nil
}

func (c *RedisFeatureCache) Set(ctx context.Context, key string, f media.AssetFeatures) error {
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	// SetNX: the first computation wins
	return c.client.SetNX(ctx, keyPrefix+key, data, c.ttl).Err()
}

// Ping tests the Redis connection
func (c *RedisFeatureCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}
