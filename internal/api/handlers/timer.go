package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"recipe-finder/internal/pkg/common"
)

// TimerRequest 開始步驟計時；step 從 0 開始
type TimerRequest struct {
	RecipeID string `json:"recipe_id" binding:"required"`
	Step     *int   `json:"step" binding:"required"`
}

// StartTimer POST /sessions/:sid/timers
func (h *Handler) StartTimer(c *gin.Context) {
	sid, err := sessionID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	var req TimerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, common.ErrInvalidRequest.Wrap(err))
		return
	}
	view, err := h.timers.StartTimer(sid, req.RecipeID, *req.Step)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// GetTimer GET /sessions/:sid/timers
func (h *Handler) GetTimer(c *gin.Context) {
	sid, err := sessionID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	view, err := h.timers.Status(sid)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// StopTimer DELETE /sessions/:sid/timers
func (h *Handler) StopTimer(c *gin.Context) {
	sid, err := sessionID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.timers.StopTimer(sid); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
