package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"recipe-finder/internal/pkg/common"
)

// ReadyChecker 回報目錄是否已載入
type ReadyChecker interface {
	Ready() bool
}

// RequireCatalog 目錄尚未載入時回傳 503
func RequireCatalog(store ReadyChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !store.Ready() {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, common.ErrorResponse{
				Code:    common.ErrCodeCatalogUnavailable,
				Message: common.ErrCatalogUnavailable.Message,
			})
			return
		}
		c.Next()
	}
}
