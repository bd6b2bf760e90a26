package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Dhaka-Yash/ride-cancellation-ml-system/config"
	"github.com/Dhaka-Yash/ride-cancellation-ml-system/logger"
)

const PredictionsChannel = "ridecancel:predictions"

const pingAttempts = 5

// CacheService wraps an optional Redis client. With no client every call is
// a no-op and Get always misses.
type CacheService struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCacheService(cfg config.RedisConfig, log *logger.Logger) (*CacheService, error) {
	if cfg.Host == "" {
		return &CacheService{ttl: cfg.TTL}, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	var lastErr error
	for i := 0; i < pingAttempts; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		lastErr = client.Ping(ctx).Err()
		cancel()
		if lastErr == nil {
			return &CacheService{client: client, ttl: cfg.TTL}, nil
		}
		log.Warn("redis ping failed", "attempt", i+1, "of", pingAttempts, "error", lastErr)
		time.Sleep(time.Second)
	}

	_ = client.Close()
	return &CacheService{ttl: cfg.TTL}, fmt.Errorf("redis ping failed after %d attempts: %w", pingAttempts, lastErr)
}

func (s *CacheService) Available() bool {
	return s.client != nil
}

// Get decodes the cached value into dest. hit is false on a miss.
func (s *CacheService) Get(ctx context.Context, key string, dest any) (hit bool, err error) {
	if s.client == nil {
		return false, nil
	}
	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return false, err
	}
	return true, nil
}

func (s *CacheService) Set(ctx context.Context, key string, value any) error {
	if s.client == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, s.ttl).Err()
}

func (s *CacheService) Publish(ctx context.Context, channel string, message any) error {
	if s.client == nil {
		return nil
	}
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return s.client.Publish(ctx, channel, data).Err()
}

func (s *CacheService) Subscribe(ctx context.Context, channel string) *redis.PubSub {
	if s.client == nil {
		return nil
	}
	return s.client.Subscribe(ctx, channel)
}

func (s *CacheService) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

// PredictionKey scopes a reconciled row to the model that scored it.
func PredictionKey(modelVersion, rowKey string) string {
	return "ridecancel:prediction:" + modelVersion + ":" + rowKey
}
