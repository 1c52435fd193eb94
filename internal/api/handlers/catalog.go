package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"recipe-finder/internal/core/catalog"
	"recipe-finder/internal/core/matching"
	"recipe-finder/internal/pkg/common"
)

// MatchRequest 無狀態排名請求
type MatchRequest struct {
	Selected  []string          `json:"selected"`
	Criteria  matching.Criteria `json:"criteria"`
	Favorites []string          `json:"favorites"`
}

// ListIngredients GET /ingredients?q=
func (h *Handler) ListIngredients(c *gin.Context) {
	cat, err := h.catalog()
	if err != nil {
		h.respondError(c, err)
		return
	}
	list := cat.SearchIngredients(c.Query("q"))
	c.JSON(http.StatusOK, gin.H{
		"ingredients": list,
		"total":       len(list),
	})
}

// ListCategories GET /categories
func (h *Handler) ListCategories(c *gin.Context) {
	cat, err := h.catalog()
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": cat.Categories()})
}

// GetRecipe GET /recipes/:id，匹配度依 ?session= 的已選食材或 ?have= 清單計算
func (h *Handler) GetRecipe(c *gin.Context) {
	cat, err := h.catalog()
	if err != nil {
		h.respondError(c, err)
		return
	}
	id := c.Param("id")
	r, ok := cat.Recipe(id)
	if !ok {
		h.respondError(c, common.ErrRecipeNotFound.Wrap(fmt.Errorf("recipe %q", id)))
		return
	}
	h.respondRecipe(c, cat, r)
}

// RandomRecipe GET /recipes/random
func (h *Handler) RandomRecipe(c *gin.Context) {
	cat, err := h.catalog()
	if err != nil {
		h.respondError(c, err)
		return
	}
	if len(cat.Recipes) == 0 {
		h.respondError(c, common.ErrRecipeNotFound.Wrap(errors.New("catalog has no recipes")))
		return
	}
	h.respondRecipe(c, cat, &cat.Recipes[h.randIntN(len(cat.Recipes))])
}

func (h *Handler) respondRecipe(c *gin.Context, cat *catalog.Catalog, r *catalog.Recipe) {
	sel, err := h.querySelection(c.Request.Context(), c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, RecipeResponse{
		Recipe: r,
		Match:  matching.ScoreRecipe(cat, r, sel),
	})
}

// querySelection ?session= 優先，其次 ?have=a,b,c
func (h *Handler) querySelection(ctx context.Context, c *gin.Context) (matching.Selection, error) {
	if sid := c.Query("session"); sid != "" {
		if !common.IsUUID(sid) {
			return matching.Selection{}, common.ErrInvalidRequest.Wrap(errors.New("session id must be a UUID"))
		}
		return h.pantry.Selection(ctx, sid)
	}
	return matching.NewSelection(common.SplitList(c.Query("have"))...), nil
}

// Match POST /match
func (h *Handler) Match(c *gin.Context) {
	var req MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, common.ErrInvalidRequest.Wrap(err))
		return
	}
	cat, err := h.catalog()
	if err != nil {
		h.respondError(c, err)
		return
	}
	resp := h.rank("stateless", cat,
		matching.NewSelection(req.Selected...),
		req.Criteria,
		matching.NewIDSet(req.Favorites...),
	)
	c.JSON(http.StatusOK, resp)
}
