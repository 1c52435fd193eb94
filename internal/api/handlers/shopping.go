package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"recipe-finder/internal/pkg/common"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ShoppingRequest 新增購物清單項目
type ShoppingRequest struct {
	Items []string `json:"items" binding:"required,min=1"`
}

// ListShopping GET /sessions/:sid/shopping
func (h *Handler) ListShopping(c *gin.Context) {
	sid, err := sessionID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	list, err := h.pantry.ShoppingList(c.Request.Context(), sid)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": list})
}

// AddShopping POST /sessions/:sid/shopping
func (h *Handler) AddShopping(c *gin.Context) {
	sid, err := sessionID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	var req ShoppingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, common.ErrInvalidRequest.Wrap(err))
		return
	}
	list, err := h.pantry.AddShoppingItems(c.Request.Context(), sid, req.Items)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": list})
}

// ClearShopping DELETE /sessions/:sid/shopping
func (h *Handler) ClearShopping(c *gin.Context) {
	sid, err := sessionID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.pantry.ClearShopping(c.Request.Context(), sid); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RemoveShopping DELETE /sessions/:sid/shopping/:item
func (h *Handler) RemoveShopping(c *gin.Context) {
	sid, err := sessionID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	list, err := h.pantry.RemoveShoppingItem(c.Request.Context(), sid, c.Param("item"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": list})
}

// ShoppingFromRecipe POST /sessions/:sid/shopping/from-recipe/:id
func (h *Handler) ShoppingFromRecipe(c *gin.Context) {
	sid, err := sessionID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	list, match, err := h.pantry.AddMissingFromRecipe(c.Request.Context(), sid, c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items": list,
		"match": match,
	})
}

// ExportShopping GET /sessions/:sid/shopping/export
func (h *Handler) ExportShopping(c *gin.Context) {
	sid, err := sessionID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	data, err := h.pantry.ExportShoppingXLSX(c.Request.Context(), sid)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="shopping-%s.xlsx"`, sid[:8]))
	c.Data(http.StatusOK, xlsxContentType, data)
}
