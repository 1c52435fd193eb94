package matching

import (
	"strings"

	"recipe-finder/internal/core/catalog"
)

// 份量區間
const (
	ServingsAll       = "all"
	ServingsOneTwo    = "1-2"
	ServingsThreeFour = "3-4"
	ServingsFivePlus  = "5+"

	// CategoryAll 不限分類
	CategoryAll = "all"

	// DefaultServings 食譜未宣告份量時的預設值
	DefaultServings = 4
)

// Criteria 過濾條件，每次 UI 變更時整體替換
type Criteria struct {
	MaxTimeMinutes int    `json:"max_time_minutes" form:"max_time"`
	VegetarianOnly bool   `json:"vegetarian_only" form:"vegetarian"`
	BudgetOnly     bool   `json:"budget_only" form:"budget"`
	FavoritesOnly  bool   `json:"favorites_only" form:"favorites"`
	Category       string `json:"category" form:"category"`
	Search         string `json:"search" form:"q"`
	Servings       string `json:"servings" form:"servings"`
}

// IDSet 一組 id（例如收藏的食譜）
type IDSet map[string]struct{}

// NewIDSet 由清單建立集合
func NewIDSet(ids ...string) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has 是否包含
func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Ranked 附帶匹配結果的食譜
type Ranked struct {
	Recipe *catalog.Recipe `json:"recipe"`
	Match  MatchResult     `json:"match"`
}

// Filter 依條件過濾，保留輸入順序
func Filter(list []Ranked, c Criteria, favorites IDSet) []Ranked {
	search := strings.ToLower(strings.TrimSpace(c.Search))
	out := make([]Ranked, 0, len(list))
	for _, item := range list {
		if Matches(item.Recipe, c, search, favorites) {
			out = append(out, item)
		}
	}
	return out
}

// Matches 單一食譜是否通過全部條件；search 須已轉小寫
func Matches(r *catalog.Recipe, c Criteria, search string, favorites IDSet) bool {
	if c.MaxTimeMinutes > 0 && (r.TimeMinutes < 0 || r.TimeMinutes > c.MaxTimeMinutes) {
		return false
	}
	if c.VegetarianOnly && !r.Vegetarian {
		return false
	}
	if c.BudgetOnly && !r.Budget {
		return false
	}
	if c.FavoritesOnly && !favorites.Has(r.ID) {
		return false
	}
	if c.Category != "" && c.Category != CategoryAll && r.Category != c.Category {
		return false
	}
	if !matchesServings(r.Servings, c.Servings) {
		return false
	}
	if search != "" && !matchesSearch(r, search) {
		return false
	}
	return true
}

// matchesSearch 標題或任一食材名稱包含關鍵字
func matchesSearch(r *catalog.Recipe, search string) bool {
	if strings.Contains(strings.ToLower(r.Title), search) {
		return true
	}
	for _, ing := range r.Ingredients {
		if strings.Contains(strings.ToLower(ing.Name), search) {
			return true
		}
	}
	return false
}

// matchesServings 未宣告份量視為 4；無法辨識的區間不匹配任何食譜
func matchesServings(servings int, bucket string) bool {
	if servings <= 0 {
		servings = DefaultServings
	}
	switch bucket {
	case "", ServingsAll:
		return true
	case ServingsOneTwo:
		return servings <= 2
	case ServingsThreeFour:
		return servings >= 3 && servings <= 4
	case ServingsFivePlus:
		return servings >= 5
	default:
		return false
	}
}
