package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"recipe-finder/internal/api"
	"recipe-finder/internal/core/catalog"
	"recipe-finder/internal/core/pantry"
	"recipe-finder/internal/core/timer"
	"recipe-finder/internal/infrastructure/config"
	"recipe-finder/internal/infrastructure/storage"
	"recipe-finder/internal/pkg/common"
)

func main() {
	// 載入 .env
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found")
	}

	// 載入設定
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(cfg.LogLevel, cfg.LogFile); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	common.LogInfo("載入設定",
		zap.String("catalog_source", cfg.Catalog.Source),
		zap.String("catalog_dir", cfg.Catalog.Dir),
		zap.String("store_driver", cfg.Store.Driver),
	)

	if err := run(cfg); err != nil {
		common.LogError("服務異常結束", zap.Error(err))
		common.Sync()
		os.Exit(1)
	}
	common.LogInfo("Server exited")
}

func run(cfg *config.Config) error {
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// 載入食譜目錄；失敗即結束
	files := catalog.Files{
		Ingredients: cfg.Catalog.IngredientsFile,
		Recipes:     cfg.Catalog.RecipesFile,
		Substitutes: cfg.Catalog.SubstitutesFile,
	}
	var source catalog.Source = catalog.DirSource{Dir: cfg.Catalog.Dir}
	if cfg.Catalog.Source == config.SourceHTTP {
		source = catalog.NewHTTPSource(cfg.Catalog.BaseURL, cfg.Catalog.Timeout)
	}
	catalogs := catalog.NewStore(catalog.NewLoader(source, files, cfg.Catalog.DefaultServings))

	loadCtx, cancelLoad := context.WithTimeout(ctx, cfg.Catalog.Timeout)
	err := catalogs.Load(loadCtx)
	cancelLoad()
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	if cfg.Catalog.Watch {
		watcher, err := catalog.NewWatcher(catalogs, cfg.Catalog.Dir, files, cfg.Catalog.WatchDebounce)
		if err != nil {
			return fmt.Errorf("watch catalog: %w", err)
		}
		go watcher.Run(ctx)
	}

	// 初始化清單儲存
	store, err := storage.New(cfg)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer store.Close()

	timers := timer.New(catalogs,
		timer.WithSweepInterval(cfg.Timer.SweepInterval),
		timer.WithRetention(cfg.Timer.Retention),
	)
	timers.Start(ctx)
	defer timers.Close()

	// 設置路由
	router, err := api.SetupRouter(ctx, cfg, api.Dependencies{
		Catalogs: catalogs,
		Store:    store,
		Pantry:   pantry.NewService(store, catalogs, cfg.Store.KeyPrefix),
		Timers:   timers,
	})
	if err != nil {
		return fmt.Errorf("setup router: %w", err)
	}

	// 設置 HTTP 服務器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		common.LogInfo("啟動應用",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Bool("debug", cfg.App.Debug),
			zap.Int("port", cfg.Server.Port),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// 等待中斷信號
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("start server: %w", err)
		}
	}

	common.LogInfo("Shutting down server...")

	// 設置關閉超時
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}
