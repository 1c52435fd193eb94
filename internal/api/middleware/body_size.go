package middleware

import (
	"net/http"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"recipe-finder/internal/pkg/common"
)

// BodySizeLimit 限制寫入類請求的 JSON 內容大小。
// 宣告長度超限時直接拒絕；未宣告長度（chunked）時由 MaxBytesReader 截斷，
// 綁定錯誤經 common.ToErrorResponse 轉為 413。
func BodySizeLimit(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		if declared := c.Request.ContentLength; declared > limit {
			common.LogDebug("請求內容過大",
				zap.String("request_id", requestid.Get(c)),
				zap.String("route", c.FullPath()),
				zap.Int64("declared", declared),
				zap.Int64("limit", limit),
			)
			status, resp := common.ToErrorResponse(common.ErrPayloadTooLarge, false)
			c.AbortWithStatusJSON(status, resp)
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
