// Package pantry 管理每個 session 的已選食材、收藏食譜與購物清單。
package pantry

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"recipe-finder/internal/core/catalog"
	"recipe-finder/internal/core/matching"
	"recipe-finder/internal/infrastructure/storage"
	"recipe-finder/internal/pkg/common"
)

// 清單種類，對應儲存鍵的最後一段
const (
	KindIngredients = "ingredients"
	KindFavorites   = "favorites"
	KindShopping    = "shopping"
)

// maxShoppingItemLen 單一購物清單項目的最大長度
const maxShoppingItemLen = 200

// CatalogProvider 提供目前發布的目錄
type CatalogProvider interface {
	Current() *catalog.Catalog
}

// Service 在鍵值儲存之上提供 session 清單操作
type Service struct {
	store    storage.Store
	catalogs CatalogProvider
	prefix   string
}

// NewService 建立服務
func NewService(store storage.Store, catalogs CatalogProvider, prefix string) *Service {
	if prefix == "" {
		prefix = "fc"
	}
	return &Service{store: store, catalogs: catalogs, prefix: prefix}
}

// Key 回傳 session 清單的儲存鍵
func (s *Service) Key(session, kind string) string {
	return s.prefix + ":" + session + ":" + kind
}

func (s *Service) catalog() (*catalog.Catalog, error) {
	c := s.catalogs.Current()
	if c == nil {
		return nil, common.ErrCatalogUnavailable
	}
	return c, nil
}

func (s *Service) get(ctx context.Context, session, kind string) ([]string, error) {
	list, err := s.store.Get(ctx, s.Key(session, kind))
	if err != nil {
		return nil, common.ErrStorage.Wrap(fmt.Errorf("get %s: %w", kind, err))
	}
	return list, nil
}

func (s *Service) set(ctx context.Context, session, kind string, list []string) error {
	if err := s.store.Set(ctx, s.Key(session, kind), list); err != nil {
		return common.ErrStorage.Wrap(fmt.Errorf("set %s: %w", kind, err))
	}
	return nil
}

// toggle 存在則移除、不存在則附加在尾端；回傳新清單與項目是否在清單中
func toggle(list []string, item string) ([]string, bool) {
	out := make([]string, 0, len(list)+1)
	found := false
	for _, v := range list {
		if v == item {
			found = true
			continue
		}
		out = append(out, v)
	}
	if !found {
		out = append(out, item)
	}
	return out, !found
}

// Selection 讀取 session 的已選食材
func (s *Service) Selection(ctx context.Context, session string) (matching.Selection, error) {
	ids, err := s.get(ctx, session, KindIngredients)
	if err != nil {
		return matching.Selection{}, err
	}
	return matching.NewSelection(ids...), nil
}

// SetSelection 整體替換已選食材；任一 id 不在目錄中即失敗且不寫入
func (s *Service) SetSelection(ctx context.Context, session string, ids []string) (matching.Selection, error) {
	c, err := s.catalog()
	if err != nil {
		return matching.Selection{}, err
	}
	for _, id := range ids {
		if !c.HasIngredient(id) {
			return matching.Selection{}, common.ErrIngredientNotFound.Wrap(fmt.Errorf("ingredient %q", id))
		}
	}
	sel := matching.NewSelection(ids...)
	if err := s.set(ctx, session, KindIngredients, sel.IDs()); err != nil {
		return matching.Selection{}, err
	}
	return sel, nil
}

// ToggleIngredient 切換單一食材
func (s *Service) ToggleIngredient(ctx context.Context, session, id string) (matching.Selection, bool, error) {
	c, err := s.catalog()
	if err != nil {
		return matching.Selection{}, false, err
	}
	if !c.HasIngredient(id) {
		return matching.Selection{}, false, common.ErrIngredientNotFound.Wrap(fmt.Errorf("ingredient %q", id))
	}

	sel, err := s.Selection(ctx, session)
	if err != nil {
		return matching.Selection{}, false, err
	}
	sel = sel.Toggle(id)
	if err := s.set(ctx, session, KindIngredients, sel.IDs()); err != nil {
		return matching.Selection{}, false, err
	}

	common.LogDebug("切換食材",
		zap.String("session", session),
		zap.String("ingredient_id", id),
		zap.Bool("selected", sel.Has(id)),
	)
	return sel, sel.Has(id), nil
}

// ClearSelection 清空已選食材
func (s *Service) ClearSelection(ctx context.Context, session string) error {
	return s.set(ctx, session, KindIngredients, []string{})
}

// Favorites 讀取收藏的食譜 id，保留加入順序
func (s *Service) Favorites(ctx context.Context, session string) ([]string, error) {
	return s.get(ctx, session, KindFavorites)
}

// FavoriteSet 收藏集合
func (s *Service) FavoriteSet(ctx context.Context, session string) (matching.IDSet, error) {
	ids, err := s.Favorites(ctx, session)
	if err != nil {
		return nil, err
	}
	return matching.NewIDSet(ids...), nil
}

// ToggleFavorite 切換收藏，回傳新清單與是否已收藏
func (s *Service) ToggleFavorite(ctx context.Context, session, recipeID string) ([]string, bool, error) {
	c, err := s.catalog()
	if err != nil {
		return nil, false, err
	}
	if _, ok := c.Recipe(recipeID); !ok {
		return nil, false, common.ErrRecipeNotFound.Wrap(fmt.Errorf("recipe %q", recipeID))
	}

	list, err := s.Favorites(ctx, session)
	if err != nil {
		return nil, false, err
	}
	list, on := toggle(list, recipeID)
	if err := s.set(ctx, session, KindFavorites, list); err != nil {
		return nil, false, err
	}
	return list, on, nil
}

// ShoppingList 讀取購物清單
func (s *Service) ShoppingList(ctx context.Context, session string) ([]string, error) {
	return s.get(ctx, session, KindShopping)
}

// AddShoppingItems 附加項目；去除空白，已存在的項目略過
func (s *Service) AddShoppingItems(ctx context.Context, session string, items []string) ([]string, error) {
	clean := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" || len(item) > maxShoppingItemLen {
			return nil, common.ErrShoppingItemInvalid.Wrap(fmt.Errorf("item %q", item))
		}
		clean = append(clean, item)
	}

	list, err := s.ShoppingList(ctx, session)
	if err != nil {
		return nil, err
	}
	list = appendUnique(list, clean...)
	if err := s.set(ctx, session, KindShopping, list); err != nil {
		return nil, err
	}
	return list, nil
}

// RemoveShoppingItem 移除單一項目；項目不存在時清單不變
func (s *Service) RemoveShoppingItem(ctx context.Context, session, item string) ([]string, error) {
	list, err := s.ShoppingList(ctx, session)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(list))
	for _, v := range list {
		if v != item {
			out = append(out, v)
		}
	}
	if len(out) == len(list) {
		return list, nil
	}
	if err := s.set(ctx, session, KindShopping, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ClearShopping 清空購物清單
func (s *Service) ClearShopping(ctx context.Context, session string) error {
	return s.set(ctx, session, KindShopping, []string{})
}

// AddMissingFromRecipe 依目前已選食材計算匹配，把缺少的必要食材名稱加入購物清單
func (s *Service) AddMissingFromRecipe(ctx context.Context, session, recipeID string) ([]string, matching.MatchResult, error) {
	c, err := s.catalog()
	if err != nil {
		return nil, matching.MatchResult{}, err
	}
	r, ok := c.Recipe(recipeID)
	if !ok {
		return nil, matching.MatchResult{}, common.ErrRecipeNotFound.Wrap(fmt.Errorf("recipe %q", recipeID))
	}

	sel, err := s.Selection(ctx, session)
	if err != nil {
		return nil, matching.MatchResult{}, err
	}
	result := matching.ScoreRecipe(c, r, sel)

	missing := result.Missing()
	names := make([]string, 0, len(missing))
	for _, d := range missing {
		names = append(names, d.Name)
	}

	list, err := s.ShoppingList(ctx, session)
	if err != nil {
		return nil, matching.MatchResult{}, err
	}
	list = appendUnique(list, names...)
	if err := s.set(ctx, session, KindShopping, list); err != nil {
		return nil, matching.MatchResult{}, err
	}

	common.LogInfo("缺少的食材已加入購物清單",
		zap.String("session", session),
		zap.String("recipe_id", recipeID),
		zap.Int("missing", len(names)),
	)
	return list, result, nil
}

func appendUnique(list []string, items ...string) []string {
	seen := make(map[string]bool, len(list)+len(items))
	for _, v := range list {
		seen[v] = true
	}
	for _, item := range items {
		if seen[item] {
			continue
		}
		seen[item] = true
		list = append(list, item)
	}
	return list
}
