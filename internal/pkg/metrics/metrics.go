// Package metrics 定義服務的 Prometheus 指標
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "recipe_finder"

var (
	// Registry 服務專用的指標註冊表
	Registry = prometheus.NewRegistry()

	// RankRequests 排名計算次數，依來源區分
	RankRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rank_requests_total",
		Help:      "Number of ranking computations.",
	}, []string{"source"})

	// RankDuration 排名計算耗時
	RankDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "rank_duration_seconds",
		Help:      "Time spent scoring, filtering and sorting the catalog.",
		Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1},
	}, []string{"source"})

	// CatalogLoads 目錄載入次數，依結果區分
	CatalogLoads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "catalog_loads_total",
		Help:      "Catalog load and reload attempts by result.",
	}, []string{"result"})

	// CatalogRecipes 目前目錄中的食譜數
	CatalogRecipes = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "catalog_recipes",
		Help:      "Recipes in the published catalog.",
	})

	// CatalogIngredients 目前目錄中的食材數
	CatalogIngredients = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "catalog_ingredients",
		Help:      "Ingredients in the published catalog.",
	})

	// StoreOperations 清單儲存操作次數
	StoreOperations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_operations_total",
		Help:      "Key-value store operations by operation and result.",
	}, []string{"op", "result"})

	// ActiveTimers 進行中的步驟計時器數量
	ActiveTimers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_timers",
		Help:      "Step timers currently counting down.",
	})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		RankRequests,
		RankDuration,
		CatalogLoads,
		CatalogRecipes,
		CatalogIngredients,
		StoreOperations,
		ActiveTimers,
	)
}
