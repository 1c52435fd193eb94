// Package timer 管理料理步驟的倒數計時。每個 session 同時只有一個計時器，
// 開始新的計時會取代舊的；背景協程負責標記結束與清理過期的計時器。
package timer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"recipe-finder/internal/core/catalog"
	"recipe-finder/internal/pkg/common"
	"recipe-finder/internal/pkg/metrics"
)

// Status 計時器狀態
type Status string

const (
	StatusRunning Status = "RUNNING"
	StatusDone    Status = "DONE"
)

// CatalogProvider 提供目前發布的目錄
type CatalogProvider interface {
	Current() *catalog.Catalog
}

// Timer 一個步驟計時器
type Timer struct {
	ID        string        `json:"id"`
	Session   string        `json:"session"`
	RecipeID  string        `json:"recipe_id"`
	Step      int           `json:"step"`
	Label     string        `json:"label"`
	Duration  time.Duration `json:"-"`
	StartedAt time.Time     `json:"started_at"`
	EndsAt    time.Time     `json:"ends_at"`
	Status    Status        `json:"status"`
}

// View 計時器在某一時刻的狀態
type View struct {
	Timer
	RemainingSeconds int    `json:"remaining_seconds"`
	Display          string `json:"display"`
}

// Option 設定 Manager
type Option func(*Manager)

// WithSweepInterval 背景清理的間隔
func WithSweepInterval(d time.Duration) Option {
	return func(m *Manager) {
		m.sweepInterval = d
	}
}

// WithRetention 計時結束後保留多久才移除
func WithRetention(d time.Duration) Option {
	return func(m *Manager) {
		m.retention = d
	}
}

// WithClock 替換時間來源（測試用）
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// Manager 依 session 保存計時器
type Manager struct {
	catalogs      CatalogProvider
	sweepInterval time.Duration
	retention     time.Duration
	now           func() time.Time

	mu     sync.Mutex
	timers map[string]*Timer

	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New 建立計時器管理者
func New(catalogs CatalogProvider, opts ...Option) *Manager {
	m := &Manager{
		catalogs:      catalogs,
		sweepInterval: 5 * time.Second,
		retention:     10 * time.Minute,
		now:           time.Now,
		timers:        make(map[string]*Timer),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start 啟動背景清理協程，非阻塞
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		common.LogWarn("計時器清理協程已在執行")
		return
	}

	childCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true

	m.wg.Add(1)
	go m.loop(childCtx)

	common.LogInfo("計時器清理協程已啟動",
		zap.Duration("sweep_interval", m.sweepInterval),
		zap.Duration("retention", m.retention),
	)
}

// Close 停止背景協程並等待結束
func (m *Manager) Close() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.cancel()
	m.running = false
	m.mu.Unlock()

	m.wg.Wait()
	common.LogInfo("計時器清理協程已停止")
}

// StartTimer 以食譜第 step 個步驟（從 0 開始）的時間開始倒數，取代該 session 既有的計時器
func (m *Manager) StartTimer(session, recipeID string, step int) (View, error) {
	c := m.catalogs.Current()
	if c == nil {
		return View{}, common.ErrCatalogUnavailable
	}
	r, ok := c.Recipe(recipeID)
	if !ok {
		return View{}, common.ErrRecipeNotFound.Wrap(fmt.Errorf("recipe %q", recipeID))
	}
	if step < 0 || step >= len(r.Steps) {
		return View{}, common.ErrStepNotFound.Wrap(fmt.Errorf("recipe %q has %d steps, got %d", recipeID, len(r.Steps), step))
	}
	d := r.Steps[step].Duration()
	if d <= 0 {
		return View{}, common.ErrStepHasNoTimer.Wrap(fmt.Errorf("recipe %q step %d", recipeID, step))
	}

	now := m.now()
	t := &Timer{
		ID:        common.GenerateUUID(),
		Session:   session,
		RecipeID:  recipeID,
		Step:      step,
		Label:     fmt.Sprintf("%s #%d", r.Title, step+1),
		Duration:  d,
		StartedAt: now,
		EndsAt:    now.Add(d),
		Status:    StatusRunning,
	}

	m.mu.Lock()
	prev, replaced := m.timers[session]
	var prevID string
	if replaced {
		prevID = prev.ID
	}
	m.timers[session] = t
	snapshot := *t
	m.updateGauge()
	m.mu.Unlock()

	fields := []zap.Field{
		zap.String("session", session),
		zap.String("recipe_id", recipeID),
		zap.Int("step", step),
		zap.Duration("duration", d),
	}
	if replaced {
		fields = append(fields, zap.String("replaced", prevID))
	}
	common.LogInfo("計時器已開始", fields...)

	return m.view(snapshot, now), nil
}

// Status 回傳 session 目前的計時器
func (m *Manager) Status(session string) (View, error) {
	m.mu.Lock()
	t, ok := m.timers[session]
	var snapshot Timer
	if ok {
		snapshot = *t
	}
	m.mu.Unlock()

	if !ok {
		return View{}, common.ErrTimerNotFound
	}
	return m.view(snapshot, m.now()), nil
}

// StopTimer 停止並移除 session 的計時器
func (m *Manager) StopTimer(session string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.timers[session]; !ok {
		return common.ErrTimerNotFound
	}
	delete(m.timers, session)
	m.updateGauge()
	common.LogInfo("計時器已停止", zap.String("session", session))
	return nil
}

// Len 目前保存的計時器數量
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}

func (m *Manager) loop(ctx context.Context) {
	defer m.wg.Done()
	ticker := time.NewTicker(m.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

// sweep 標記已結束的計時器，並移除結束超過保留時間的計時器
func (m *Manager) sweep() {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	for session, t := range m.timers {
		if t.Status == StatusRunning && !now.Before(t.EndsAt) {
			t.Status = StatusDone
			common.LogInfo("計時結束",
				zap.String("session", session),
				zap.String("recipe_id", t.RecipeID),
				zap.Int("step", t.Step),
			)
		}
		if t.Status == StatusDone && now.Sub(t.EndsAt) >= m.retention {
			delete(m.timers, session)
		}
	}
	m.updateGauge()
}

// updateGauge 呼叫端須持有鎖
func (m *Manager) updateGauge() {
	running := 0
	for _, t := range m.timers {
		if t.Status == StatusRunning {
			running++
		}
	}
	metrics.ActiveTimers.Set(float64(running))
}

func (m *Manager) view(t Timer, now time.Time) View {
	remaining := t.EndsAt.Sub(now)
	if remaining <= 0 {
		remaining = 0
		t.Status = StatusDone
	}
	secs := int((remaining + time.Second - 1) / time.Second)
	return View{
		Timer:            t,
		RemainingSeconds: secs,
		Display:          fmt.Sprintf("%02d:%02d", secs/60, secs%60),
	}
}
