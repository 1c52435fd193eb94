// Package storage 提供清單型的鍵值儲存（已選食材、收藏、購物清單）。
package storage

import (
	"context"
	"fmt"

	"recipe-finder/internal/infrastructure/config"
)

// Store 通用的清單鍵值儲存；不存在的鍵回傳空清單而非錯誤
type Store interface {
	Get(ctx context.Context, key string) ([]string, error)
	Set(ctx context.Context, key string, values []string) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

// New 依設定建立儲存實作
func New(cfg *config.Config) (Store, error) {
	switch cfg.Store.Driver {
	case config.StoreRedis:
		return NewRedisStore(cfg.Store)
	case config.StoreMemory, "":
		return NewMemoryStore(cfg.Store), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
