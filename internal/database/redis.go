package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/angelmc32/pob-v1/internal/config"
)

// Redis wraps a Redis client.
type Redis struct {
	client redis.UniversalClient
}

// NewRedis creates a new Redis client.
func NewRedis(cfg config.RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Redis{client: client}, nil
}

// NewRedisFromClient wraps an existing client.
func NewRedisFromClient(client redis.UniversalClient) *Redis {
	return &Redis{client: client}
}

// Close closes the Redis connection.
func (r *Redis) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// Ping verifies the Redis connection is alive.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// IncrWithExpire increments a key. The expiration is set by the first
// increment only, so the window is fixed from that request.
func (r *Redis) IncrWithExpire(ctx context.Context, key string, expiration time.Duration) (int64, error) {
	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		if err := r.client.Expire(ctx, key, expiration).Err(); err != nil {
			return count, err
		}
	}
	return count, nil
}

// claimKey is the lock key for one index of one campaign.
func claimKey(campaignID string, index int) string {
	return fmt.Sprintf("pob:claim:%s:%d", campaignID, index)
}

// AcquireClaim takes the in-flight lock for a campaign index.
// It reports false if another redemption holds it.
func (r *Redis) AcquireClaim(ctx context.Context, campaignID string, index int, ttl time.Duration) (bool, error) {
	return r.client.SetNX(ctx, claimKey(campaignID, index), time.Now().Unix(), ttl).Result()
}

// ReleaseClaim drops the in-flight lock for a campaign index.
func (r *Redis) ReleaseClaim(ctx context.Context, campaignID string, index int) error {
	return r.client.Del(ctx, claimKey(campaignID, index)).Err()
}
