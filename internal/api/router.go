package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"recipe-finder/internal/api/handlers"
	"recipe-finder/internal/api/handlers/health"
	"recipe-finder/internal/api/middleware"
	"recipe-finder/internal/core/catalog"
	"recipe-finder/internal/core/pantry"
	"recipe-finder/internal/core/timer"
	"recipe-finder/internal/infrastructure/config"
	"recipe-finder/internal/infrastructure/storage"
	"recipe-finder/internal/pkg/common"
	"recipe-finder/internal/pkg/metrics"
)

// 超時設置
const timeoutDuration = 10 * time.Second

// Dependencies 路由需要的服務
type Dependencies struct {
	Catalogs *catalog.Store
	Store    storage.Store
	Pantry   *pantry.Service
	Timers   *timer.Manager
}

func (d Dependencies) validate() error {
	switch {
	case d.Catalogs == nil:
		return errors.New("catalog store is required")
	case d.Store == nil:
		return errors.New("key-value store is required")
	case d.Pantry == nil:
		return errors.New("pantry service is required")
	case d.Timers == nil:
		return errors.New("timer manager is required")
	}
	return nil
}

// SetupRouter 設置路由；ctx 結束時停止中間件的背景協程
func SetupRouter(ctx context.Context, cfg *config.Config, deps Dependencies) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}

	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	// 設置 gin 模式
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(requestid.New())
	router.Use(middleware.Logger())

	// CORS 設置
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	maxBody := cfg.Server.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 1 << 20
	}
	router.Use(middleware.BodySizeLimit(maxBody))

	// 設置請求超時
	router.Use(func(c *gin.Context) {
		reqCtx, cancel := context.WithTimeout(c.Request.Context(), timeoutDuration)
		defer cancel()
		c.Request = c.Request.WithContext(reqCtx)
		c.Next()
	})

	// 健康檢查與指標
	healthHandler := health.NewHandler(cfg, deps.Catalogs, deps.Store)
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", healthHandler.LivenessCheck)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	h := handlers.NewHandler(deps.Catalogs, deps.Pantry, deps.Timers, cfg.App.Debug)

	// API 路由組
	api := router.Group("/api/v1")
	if cfg.RateLimit.Enabled {
		api.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}
	api.Use(middleware.RequireCatalog(deps.Catalogs))
	{
		api.GET("/ingredients", h.ListIngredients)
		api.GET("/categories", h.ListCategories)
		api.GET("/recipes/random", h.RandomRecipe)
		api.GET("/recipes/:id", h.GetRecipe)
		api.POST("/match", h.Match)
		api.POST("/sessions", h.CreateSession)

		// 只有重複呼叫與單次效果相同的路由才去重；切換類路由每次都要生效
		dedup := middleware.NewDeduplicator(ctx, cfg.DedupWindow).Middleware()
		session := api.Group("/sessions/:sid")
		{
			session.GET("/ranking", h.Ranking)

			session.GET("/ingredients", h.GetSelection)
			session.PUT("/ingredients", h.PutSelection)
			session.DELETE("/ingredients", h.ClearSelection)
			session.POST("/ingredients/:id/toggle", h.ToggleIngredient)

			session.GET("/favorites", h.ListFavorites)
			session.POST("/favorites/:id/toggle", h.ToggleFavorite)

			session.GET("/shopping", h.ListShopping)
			session.POST("/shopping", dedup, h.AddShopping)
			session.DELETE("/shopping", h.ClearShopping)
			session.GET("/shopping/export", h.ExportShopping)
			session.POST("/shopping/from-recipe/:id", dedup, h.ShoppingFromRecipe)
			session.DELETE("/shopping/:item", h.RemoveShopping)

			session.POST("/timers", dedup, h.StartTimer)
			session.GET("/timers", h.GetTimer)
			session.DELETE("/timers", h.StopTimer)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, common.ErrorResponse{
			Code:    common.ErrCodeNotFound,
			Message: common.ErrNotFound.Message,
		})
	})

	common.LogInfo("Router setup completed successfully",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.Bool("rate_limit", cfg.RateLimit.Enabled),
		zap.Duration("dedup_window", cfg.DedupWindow),
		zap.Duration("timeout", timeoutDuration),
		zap.Int64("max_body_size", maxBody),
	)

	return router, nil
}
