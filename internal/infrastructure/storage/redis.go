package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"recipe-finder/internal/infrastructure/config"
	"recipe-finder/internal/pkg/common"
	"recipe-finder/internal/pkg/metrics"
)

// RedisStore 以 JSON 陣列形式把清單存入 Redis
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore 建立 Redis 儲存並測試連線
func NewRedisStore(cfg config.StoreConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	common.LogInfo("Redis 儲存已連線", zap.String("addr", cfg.Redis.Addr), zap.Int("db", cfg.Redis.DB))
	return NewRedisStoreWithClient(client, cfg.TTL), nil
}

// NewRedisStoreWithClient 使用既有的 client
func NewRedisStoreWithClient(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// Get 取得清單
func (s *RedisStore) Get(ctx context.Context, key string) ([]string, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.StoreOperations.WithLabelValues("get", "miss").Inc()
			return []string{}, nil
		}
		metrics.StoreOperations.WithLabelValues("get", "error").Inc()
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}

	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		metrics.StoreOperations.WithLabelValues("get", "error").Inc()
		return nil, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	if values == nil {
		values = []string{}
	}
	metrics.StoreOperations.WithLabelValues("get", "hit").Inc()
	return values, nil
}

// Set 覆寫清單
func (s *RedisStore) Set(ctx context.Context, key string, values []string) error {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		metrics.StoreOperations.WithLabelValues("set", "error").Inc()
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	metrics.StoreOperations.WithLabelValues("set", "ok").Inc()
	return nil
}

// Delete 刪除鍵
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		metrics.StoreOperations.WithLabelValues("delete", "error").Inc()
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	metrics.StoreOperations.WithLabelValues("delete", "ok").Inc()
	return nil
}

// Ping 檢查連線
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close 關閉連線
func (s *RedisStore) Close() error {
	return s.client.Close()
}
