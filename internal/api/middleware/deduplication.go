package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"recipe-finder/internal/pkg/common"
)

// Deduplicator 在短時間窗口內拒絕重複的寫入請求（例如連點兩次切換按鈕）
type Deduplicator struct {
	window time.Duration
	now    func() time.Time

	mu       sync.Mutex
	requests map[string]time.Time
}

// NewDeduplicator 建立去重器；ctx 結束時停止清理協程
func NewDeduplicator(ctx context.Context, window time.Duration) *Deduplicator {
	if window <= 0 {
		window = time.Second
	}
	d := &Deduplicator{
		window:   window,
		now:      time.Now,
		requests: make(map[string]time.Time),
	}
	go d.cleanupLoop(ctx, 10*time.Minute)
	return d
}

func (d *Deduplicator) cleanupLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.cleanup()
		}
	}
}

func (d *Deduplicator) cleanup() {
	now := d.now()
	d.mu.Lock()
	defer d.mu.Unlock()
	for k, t := range d.requests {
		if now.Sub(t) > 10*d.window {
			delete(d.requests, k)
		}
	}
}

// seen 記錄指紋並回傳窗口內是否已出現過
func (d *Deduplicator) seen(fingerprint string) bool {
	now := d.now()
	d.mu.Lock()
	defer d.mu.Unlock()
	if last, ok := d.requests[fingerprint]; ok && now.Sub(last) <= d.window {
		return true
	}
	d.requests[fingerprint] = now
	return false
}

// Middleware 只處理 POST 請求；指紋為 IP、路徑與請求體雜湊
func (d *Deduplicator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		bodyHash := ""
		if c.Request.Body != nil {
			body, err := io.ReadAll(c.Request.Body)
			if err != nil {
				common.LogError("Failed to read request body", zap.Error(err))
				c.Next()
				return
			}
			hash := sha256.Sum256(body)
			bodyHash = hex.EncodeToString(hash[:])
			c.Request.Body = io.NopCloser(bytes.NewReader(body))
		}

		fingerprint := c.ClientIP() + ":" + c.Request.Method + ":" + c.Request.URL.Path
		if bodyHash != "" {
			fingerprint += ":" + bodyHash
		}

		if d.seen(fingerprint) {
			common.LogDebug("重複請求已拒絕", zap.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, common.ErrorResponse{
				Code:    common.ErrCodeTooManyRequests,
				Message: "重複的請求",
			})
			return
		}

		c.Next()
	}
}
