package catalog

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"recipe-finder/internal/pkg/common"
	"recipe-finder/internal/pkg/metrics"
)

// Store 持有目前發布的目錄；重新載入失敗時保留舊目錄
type Store struct {
	loader  *Loader
	current atomic.Pointer[Catalog]
}

// NewStore 建立目錄容器
func NewStore(loader *Loader) *Store {
	return &Store{loader: loader}
}

// NewStaticStore 以已存在的目錄建立容器（CLI 與測試使用）
func NewStaticStore(c *Catalog) *Store {
	s := &Store{}
	s.current.Store(c)
	return s
}

// Load 首次載入；失敗時不發布任何目錄
func (s *Store) Load(ctx context.Context) error {
	c, err := s.loader.Load(ctx)
	if err != nil {
		metrics.CatalogLoads.WithLabelValues("error").Inc()
		return err
	}
	s.publish(c)
	metrics.CatalogLoads.WithLabelValues("ok").Inc()
	return nil
}

// Reload 重新載入並替換目錄
func (s *Store) Reload(ctx context.Context) error {
	if s.loader == nil {
		return nil
	}
	c, err := s.loader.Load(ctx)
	if err != nil {
		metrics.CatalogLoads.WithLabelValues("error").Inc()
		common.LogError("重新載入食譜目錄失敗，保留舊資料", zap.Error(err))
		return err
	}
	s.publish(c)
	metrics.CatalogLoads.WithLabelValues("ok").Inc()
	return nil
}

// Current 回傳目前的目錄，尚未載入時為 nil
func (s *Store) Current() *Catalog {
	return s.current.Load()
}

// Ready 是否已有可用目錄
func (s *Store) Ready() bool {
	return s.current.Load() != nil
}

// LoadedAt 目前目錄的載入時間
func (s *Store) LoadedAt() time.Time {
	if c := s.current.Load(); c != nil {
		return c.LoadedAt
	}
	return time.Time{}
}

func (s *Store) publish(c *Catalog) {
	s.current.Store(c)
	metrics.CatalogRecipes.Set(float64(len(c.Recipes)))
	metrics.CatalogIngredients.Set(float64(len(c.Ingredients)))
}
