package storage

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"recipe-finder/internal/infrastructure/config"
	"recipe-finder/internal/pkg/common"
	"recipe-finder/internal/pkg/metrics"
)

// MemoryStore 記憶體儲存，支援 TTL 與容量上限（淘汰最少使用的鍵）
type MemoryStore struct {
	config config.StoreConfig
	mu     sync.RWMutex
	store  map[string]entry
	stats  stats
	now    func() time.Time
	done   chan struct{}
	wg     sync.WaitGroup
	closed bool
}

// entry 儲存條目
type entry struct {
	values      []string
	expiresAt   time.Time
	lastAccess  time.Time
	accessCount int
}

// stats 儲存統計
type stats struct {
	hits      int64
	misses    int64
	evictions int64
}

// NewMemoryStore 建立記憶體儲存並啟動過期清理協程
func NewMemoryStore(cfg config.StoreConfig) *MemoryStore {
	m := &MemoryStore{
		config: cfg,
		store:  make(map[string]entry),
		now:    time.Now,
		done:   make(chan struct{}),
	}

	if cfg.CleanupInterval > 0 {
		m.wg.Add(1)
		go m.startCleanup()
	}

	common.LogInfo("記憶體儲存已初始化",
		zap.Int("最大容量", cfg.MaxKeys),
		zap.Duration("存活時間", cfg.TTL),
		zap.Duration("清理間隔", cfg.CleanupInterval),
	)
	return m
}

// Get 取得清單，不存在或已過期時回傳空清單
func (m *MemoryStore) Get(ctx context.Context, key string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.store[key]
	if !ok {
		m.stats.misses++
		metrics.StoreOperations.WithLabelValues("get", "miss").Inc()
		return []string{}, nil
	}
	if m.expired(e) {
		delete(m.store, key)
		m.stats.evictions++
		m.stats.misses++
		metrics.StoreOperations.WithLabelValues("get", "expired").Inc()
		return []string{}, nil
	}

	e.lastAccess = m.now()
	e.accessCount++
	m.store[key] = e
	m.stats.hits++
	metrics.StoreOperations.WithLabelValues("get", "hit").Inc()

	out := make([]string, len(e.values))
	copy(out, e.values)
	return out, nil
}

// Set 覆寫清單；容量已滿時先清理過期項目再淘汰最少使用的鍵
func (m *MemoryStore) Set(ctx context.Context, key string, values []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.store[key]; !exists && m.config.MaxKeys > 0 && len(m.store) >= m.config.MaxKeys {
		evicted := m.cleanup()
		if len(m.store) >= m.config.MaxKeys {
			m.evictLRU()
			evicted++
		}
		common.LogDebug("儲存容量已滿，執行清理", zap.Int("清理數量", evicted))
	}

	now := m.now()
	stored := make([]string, len(values))
	copy(stored, values)
	e := entry{values: stored, lastAccess: now}
	if m.config.TTL > 0 {
		e.expiresAt = now.Add(m.config.TTL)
	}
	m.store[key] = e
	metrics.StoreOperations.WithLabelValues("set", "ok").Inc()
	return nil
}

// Delete 刪除鍵
func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, key)
	metrics.StoreOperations.WithLabelValues("delete", "ok").Inc()
	return nil
}

// Ping 記憶體儲存永遠可用
func (m *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Len 目前鍵數量
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.store)
}

// GetStats 取得儲存統計
func (m *MemoryStore) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ratio := 0.0
	if total := m.stats.hits + m.stats.misses; total > 0 {
		ratio = float64(m.stats.hits) / float64(total)
	}
	return map[string]interface{}{
		"size":      len(m.store),
		"max_size":  m.config.MaxKeys,
		"hits":      m.stats.hits,
		"misses":    m.stats.misses,
		"evictions": m.stats.evictions,
		"hit_ratio": ratio,
	}
}

// Close 停止清理協程並清空資料
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	close(m.done)
	m.mu.Unlock()

	m.wg.Wait()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.store = make(map[string]entry)
	common.LogInfo("記憶體儲存已關閉",
		zap.Int64("命中次數", m.stats.hits),
		zap.Int64("未命中次數", m.stats.misses),
		zap.Int64("淘汰次數", m.stats.evictions),
	)
	return nil
}

func (m *MemoryStore) expired(e entry) bool {
	return !e.expiresAt.IsZero() && m.now().After(e.expiresAt)
}

// startCleanup 定期清理過期項目
func (m *MemoryStore) startCleanup() {
	defer m.wg.Done()
	ticker := time.NewTicker(m.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.mu.Lock()
			m.cleanup()
			m.mu.Unlock()
		}
	}
}

// cleanup 清理過期項目，呼叫端須持有寫鎖
func (m *MemoryStore) cleanup() int {
	count := 0
	for key, e := range m.store {
		if m.expired(e) {
			delete(m.store, key)
			count++
			m.stats.evictions++
		}
	}
	if count > 0 {
		common.LogDebug("Cleaned up expired store entries",
			zap.Int("count", count),
			zap.Int("remaining_size", len(m.store)),
		)
	}
	return count
}

// evictLRU 淘汰存取次數最少、其次最久未使用的鍵，呼叫端須持有寫鎖
func (m *MemoryStore) evictLRU() {
	var oldestKey string
	var oldestAccess time.Time
	var lowestAccessCount int

	for key, e := range m.store {
		if oldestKey == "" ||
			e.accessCount < lowestAccessCount ||
			(e.accessCount == lowestAccessCount && e.lastAccess.Before(oldestAccess)) {
			oldestKey = key
			oldestAccess = e.lastAccess
			lowestAccessCount = e.accessCount
		}
	}

	if oldestKey != "" {
		delete(m.store, oldestKey)
		m.stats.evictions++
		common.LogDebug("儲存已淘汰(LRU)", zap.String("鍵", oldestKey))
	}
}
