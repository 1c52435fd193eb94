// Package handlers 實作 /api/v1 下的 HTTP 處理器。
package handlers

import (
	"errors"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"recipe-finder/internal/core/catalog"
	"recipe-finder/internal/core/matching"
	"recipe-finder/internal/core/pantry"
	"recipe-finder/internal/core/timer"
	"recipe-finder/internal/pkg/common"
	"recipe-finder/internal/pkg/metrics"
)

// Handler 持有各處理器需要的服務
type Handler struct {
	catalogs *catalog.Store
	pantry   *pantry.Service
	timers   *timer.Manager
	debug    bool
	randIntN func(n int) int
}

// NewHandler 建立處理器
func NewHandler(catalogs *catalog.Store, pantrySvc *pantry.Service, timers *timer.Manager, debug bool) *Handler {
	return &Handler{
		catalogs: catalogs,
		pantry:   pantrySvc,
		timers:   timers,
		debug:    debug,
		randIntN: rand.IntN,
	}
}

// RankingResponse 排名結果
type RankingResponse struct {
	Results  []matching.Ranked `json:"results"`
	Total    int               `json:"total"`
	Selected int               `json:"selected"`
}

// RecipeResponse 單一食譜與其匹配結果
type RecipeResponse struct {
	Recipe *catalog.Recipe      `json:"recipe"`
	Match  matching.MatchResult `json:"match"`
}

// respondError 把錯誤轉為統一的錯誤響應
func (h *Handler) respondError(c *gin.Context, err error) {
	status, resp := common.ToErrorResponse(err, h.debug)
	fields := []zap.Field{
		zap.Error(err),
		zap.String("code", resp.Code),
		zap.String("path", c.Request.URL.Path),
		zap.String("request_id", requestid.Get(c)),
	}
	if status >= 500 {
		common.LogError("請求處理失敗", fields...)
	} else {
		common.LogDebug("請求被拒絕", fields...)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, resp)
}

// catalog 取得目前目錄；RequireCatalog 之後仍可能在重新載入前為 nil
func (h *Handler) catalog() (*catalog.Catalog, error) {
	c := h.catalogs.Current()
	if c == nil {
		return nil, common.ErrCatalogUnavailable
	}
	return c, nil
}

// sessionID 讀取並驗證路徑中的 session id
func sessionID(c *gin.Context) (string, error) {
	sid := c.Param("sid")
	if !common.IsUUID(sid) {
		return "", common.ErrInvalidRequest.Wrap(errors.New("session id must be a UUID"))
	}
	return sid, nil
}

// normalizeCriteria 修正查詢字串中被解碼成空白的 "+"
func normalizeCriteria(cr matching.Criteria) matching.Criteria {
	cr.Category = strings.TrimSpace(cr.Category)
	cr.Servings = strings.TrimSpace(cr.Servings)
	if cr.Servings == "5" {
		cr.Servings = matching.ServingsFivePlus
	}
	return cr
}

// rank 執行排名並記錄指標
func (h *Handler) rank(source string, c *catalog.Catalog, sel matching.Selection, cr matching.Criteria, favorites matching.IDSet) RankingResponse {
	start := time.Now()
	results := matching.Rank(c, sel, normalizeCriteria(cr), favorites)
	elapsed := time.Since(start)

	metrics.RankRequests.WithLabelValues(source).Inc()
	metrics.RankDuration.WithLabelValues(source).Observe(elapsed.Seconds())
	common.LogRanking(source, sel.Len(), len(c.Recipes), len(results), elapsed)

	return RankingResponse{Results: results, Total: len(results), Selected: sel.Len()}
}
