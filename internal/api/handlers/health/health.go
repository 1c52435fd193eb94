package health

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"recipe-finder/internal/core/catalog"
	"recipe-finder/internal/infrastructure/config"
	"recipe-finder/internal/pkg/common"
)

// Pinger 可檢查連線狀態的依賴（清單儲存）
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime"`
	Catalog   *CatalogStatus         `json:"catalog,omitempty"`
}

// CatalogStatus 目錄狀態
type CatalogStatus struct {
	Recipes     int       `json:"recipes"`
	Ingredients int       `json:"ingredients"`
	Substitutes int       `json:"substitutes"`
	LoadedAt    time.Time `json:"loaded_at"`
}

// Handler 健康檢查處理器
type Handler struct {
	cfg      *config.Config
	catalogs *catalog.Store
	store    Pinger
}

// NewHandler 建立健康檢查處理器
func NewHandler(cfg *config.Config, catalogs *catalog.Store, store Pinger) *Handler {
	return &Handler{cfg: cfg, catalogs: catalogs, store: store}
}

// HealthCheck 健康檢查處理器
func (h *Handler) HealthCheck(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   h.cfg.App.Version,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
	}

	if cat := h.catalogs.Current(); cat != nil {
		response.Catalog = &CatalogStatus{
			Recipes:     len(cat.Recipes),
			Ingredients: len(cat.Ingredients),
			Substitutes: len(cat.Substitutes),
			LoadedAt:    cat.LoadedAt,
		}
	} else {
		response.Status = "degraded"
	}

	common.LogDebug("Health check request",
		zap.String("client_ip", c.ClientIP()),
		zap.String("path", c.Request.URL.Path),
	)

	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 目錄已載入且儲存可連線才算就緒
func (h *Handler) ReadinessCheck(c *gin.Context) {
	checks := gin.H{"catalog": "ok", "store": "ok"}
	ready := true

	if !h.catalogs.Ready() {
		checks["catalog"] = "not loaded"
		ready = false
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.store.Ping(ctx); err != nil {
		common.LogWarn("儲存連線檢查失敗", zap.Error(err))
		checks["store"] = err.Error()
		ready = false
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"checks": checks,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"checks": checks,
	})
}

// LivenessCheck 存活檢查處理器
func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
