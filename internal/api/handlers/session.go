package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"recipe-finder/internal/core/matching"
	"recipe-finder/internal/pkg/common"
)

// SelectionRequest 整體替換已選食材
type SelectionRequest struct {
	Ingredients []string `json:"ingredients"`
}

// CreateSession POST /sessions
func (h *Handler) CreateSession(c *gin.Context) {
	c.JSON(http.StatusCreated, gin.H{"session_id": common.GenerateUUID()})
}

// Ranking GET /sessions/:sid/ranking，條件由查詢字串提供
func (h *Handler) Ranking(c *gin.Context) {
	sid, err := sessionID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	var criteria matching.Criteria
	if err := c.ShouldBindQuery(&criteria); err != nil {
		h.respondError(c, common.ErrInvalidRequest.Wrap(err))
		return
	}
	cat, err := h.catalog()
	if err != nil {
		h.respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	sel, err := h.pantry.Selection(ctx, sid)
	if err != nil {
		h.respondError(c, err)
		return
	}
	favorites, err := h.pantry.FavoriteSet(ctx, sid)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.rank("session", cat, sel, criteria, favorites))
}

// GetSelection GET /sessions/:sid/ingredients
func (h *Handler) GetSelection(c *gin.Context) {
	sid, err := sessionID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	sel, err := h.pantry.Selection(c.Request.Context(), sid)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ingredients": sel.IDs()})
}

// PutSelection PUT /sessions/:sid/ingredients
func (h *Handler) PutSelection(c *gin.Context) {
	sid, err := sessionID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	var req SelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, common.ErrInvalidRequest.Wrap(err))
		return
	}
	sel, err := h.pantry.SetSelection(c.Request.Context(), sid, req.Ingredients)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ingredients": sel.IDs()})
}

// ClearSelection DELETE /sessions/:sid/ingredients
func (h *Handler) ClearSelection(c *gin.Context) {
	sid, err := sessionID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.pantry.ClearSelection(c.Request.Context(), sid); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ToggleIngredient POST /sessions/:sid/ingredients/:id/toggle
func (h *Handler) ToggleIngredient(c *gin.Context) {
	sid, err := sessionID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	sel, selected, err := h.pantry.ToggleIngredient(c.Request.Context(), sid, c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ingredients": sel.IDs(),
		"selected":    selected,
	})
}

// ListFavorites GET /sessions/:sid/favorites
func (h *Handler) ListFavorites(c *gin.Context) {
	sid, err := sessionID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	list, err := h.pantry.Favorites(c.Request.Context(), sid)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"favorites": list})
}

// ToggleFavorite POST /sessions/:sid/favorites/:id/toggle
func (h *Handler) ToggleFavorite(c *gin.Context) {
	sid, err := sessionID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	list, favorite, err := h.pantry.ToggleFavorite(c.Request.Context(), sid, c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"favorites": list,
		"favorite":  favorite,
	})
}
