package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipe-finder/internal/pkg/common"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRateLimiter_RefillsOverTime(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, time.Second)
	rl.now = func() time.Time { return now }
	rl.lastTime = now

	assert.True(t, rl.Allow())
	assert.True(t, rl.Allow())
	assert.False(t, rl.Allow())

	now = now.Add(250 * time.Millisecond)
	assert.False(t, rl.Allow())

	now = now.Add(250 * time.Millisecond)
	assert.True(t, rl.Allow())

	now = now.Add(time.Hour)
	assert.True(t, rl.Allow())
	assert.True(t, rl.Allow())
	assert.False(t, rl.Allow())
}

func TestRateLimit_Middleware(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(1, time.Minute))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "TOO_MANY_REQUESTS")
}

func TestBodySizeLimit(t *testing.T) {
	r := gin.New()
	r.Use(BodySizeLimit(16))
	bind := func(c *gin.Context) {
		var body map[string]interface{}
		if err := c.ShouldBindJSON(&body); err != nil {
			status, resp := common.ToErrorResponse(common.ErrInvalidRequest.Wrap(err), false)
			c.AbortWithStatusJSON(status, resp)
			return
		}
		c.Status(http.StatusOK)
	}
	r.POST("/", bind)
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	tests := []struct {
		name    string
		method  string
		body    string
		chunked bool
		want    int
		code    string
	}{
		{name: "small body", method: http.MethodPost, body: `{"a":1}`, want: http.StatusOK},
		{name: "declared too large", method: http.MethodPost, body: `{"items":["bread","milk"]}`, want: http.StatusRequestEntityTooLarge, code: common.ErrCodePayloadTooLarge},
		{name: "chunked too large", method: http.MethodPost, body: `{"items":["bread","milk"]}`, chunked: true, want: http.StatusRequestEntityTooLarge, code: common.ErrCodePayloadTooLarge},
		{name: "malformed small body", method: http.MethodPost, body: `{"a":`, want: http.StatusBadRequest, code: common.ErrCodeInvalidRequest},
		{name: "get skips limit", method: http.MethodGet, body: `{"items":["bread","milk"]}`, want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			if tt.chunked {
				req.ContentLength = -1
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
			if tt.code != "" {
				assert.Contains(t, w.Body.String(), tt.code)
			}
		})
	}
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery())
	r.GET("/", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
}

func TestDeduplicator(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := NewDeduplicator(ctx, time.Second)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	d.now = func() time.Time { return now }

	r := gin.New()
	r.Use(d.Middleware())
	hits := 0
	r.POST("/toggle", func(c *gin.Context) {
		hits++
		c.Status(http.StatusOK)
	})
	r.GET("/toggle", func(c *gin.Context) { c.Status(http.StatusOK) })

	post := func(body string) int {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/toggle", strings.NewReader(body)))
		return w.Code
	}

	require.Equal(t, http.StatusOK, post(`{"a":1}`))
	assert.Equal(t, http.StatusTooManyRequests, post(`{"a":1}`))
	assert.Equal(t, http.StatusOK, post(`{"a":2}`))

	now = now.Add(2 * time.Second)
	assert.Equal(t, http.StatusOK, post(`{"a":1}`))
	assert.Equal(t, 3, hits)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/toggle", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}

	now = now.Add(time.Minute)
	d.cleanup()
	assert.Empty(t, d.requests)
}

type readyFlag bool

func (r readyFlag) Ready() bool { return bool(r) }

func TestRequireCatalog(t *testing.T) {
	for _, tt := range []struct {
		ready bool
		want  int
	}{
		{true, http.StatusOK},
		{false, http.StatusServiceUnavailable},
	} {
		r := gin.New()
		r.Use(RequireCatalog(readyFlag(tt.ready)))
		r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, tt.want, w.Code)
	}
}
