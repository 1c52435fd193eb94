// Package catalog 保存啟動時載入的不可變資料：食材清單、食譜清單與替代表。
package catalog

import (
	"sort"
	"strings"
	"time"
)

// Ingredient 食材
type Ingredient struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// RecipeIngredient 食譜中的食材，Required 為 false 時僅供顯示
type RecipeIngredient struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Amount   string `json:"amount,omitempty"`
	Required bool   `json:"required"`
}

// Step 料理步驟，Minutes 為 0 表示沒有計時
type Step struct {
	Text    string  `json:"text"`
	Minutes float64 `json:"minutes,omitempty"`
}

// Duration 回傳步驟計時長度
func (s Step) Duration() time.Duration {
	return time.Duration(s.Minutes * float64(time.Minute))
}

// Attribution 食譜出處
type Attribution struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Recipe 正規化後的食譜
type Recipe struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Category    string             `json:"category"`
	Difficulty  string             `json:"difficulty,omitempty"`
	TimeMinutes int                `json:"time"`
	Servings    int                `json:"servings"`
	Vegetarian  bool               `json:"vegetarian"`
	Budget      bool               `json:"budget"`
	Image       string             `json:"image,omitempty"`
	Ingredients []RecipeIngredient `json:"ingredients"`
	Steps       []Step             `json:"steps"`
	Source      Attribution        `json:"source"`
}

// RequiredIngredients 依宣告順序回傳必要食材
func (r *Recipe) RequiredIngredients() []RecipeIngredient {
	out := make([]RecipeIngredient, 0, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		if ing.Required {
			out = append(out, ing)
		}
	}
	return out
}

// SubstitutionTable 食材 id 到候選替代食材 id 的對照（有序，單層）
type SubstitutionTable map[string][]string

// Catalog 一次載入的完整目錄，發布後不再修改
type Catalog struct {
	Ingredients  []Ingredient
	Recipes      []Recipe
	Substitutes  SubstitutionTable
	LoadedAt     time.Time
	ingredientAt map[string]int
	recipeAt     map[string]int
}

// New 建立目錄並建立索引；重複 id 以第一筆為準
func New(ingredients []Ingredient, recipes []Recipe, subs SubstitutionTable) *Catalog {
	if subs == nil {
		subs = SubstitutionTable{}
	}
	c := &Catalog{
		Ingredients:  ingredients,
		Recipes:      recipes,
		Substitutes:  subs,
		LoadedAt:     time.Now(),
		ingredientAt: make(map[string]int, len(ingredients)),
		recipeAt:     make(map[string]int, len(recipes)),
	}
	for i, ing := range ingredients {
		if _, exists := c.ingredientAt[ing.ID]; !exists {
			c.ingredientAt[ing.ID] = i
		}
	}
	for i, r := range recipes {
		if _, exists := c.recipeAt[r.ID]; !exists {
			c.recipeAt[r.ID] = i
		}
	}
	return c
}

// Ingredient 依 id 查詢食材
func (c *Catalog) Ingredient(id string) (Ingredient, bool) {
	i, ok := c.ingredientAt[id]
	if !ok {
		return Ingredient{}, false
	}
	return c.Ingredients[i], true
}

// HasIngredient 檢查食材是否存在
func (c *Catalog) HasIngredient(id string) bool {
	_, ok := c.ingredientAt[id]
	return ok
}

// IngredientName 回傳顯示名稱，查無資料時退回原始 id
func (c *Catalog) IngredientName(id string) string {
	if ing, ok := c.Ingredient(id); ok && ing.Name != "" {
		return ing.Name
	}
	return id
}

// Recipe 依 id 查詢食譜
func (c *Catalog) Recipe(id string) (*Recipe, bool) {
	i, ok := c.recipeAt[id]
	if !ok {
		return nil, false
	}
	return &c.Recipes[i], true
}

// Categories 回傳排序後且不重複的食譜分類
func (c *Catalog) Categories() []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, r := range c.Recipes {
		if r.Category == "" || seen[r.Category] {
			continue
		}
		seen[r.Category] = true
		out = append(out, r.Category)
	}
	sort.Strings(out)
	return out
}

// SearchIngredients 以名稱做不分大小寫的子字串搜尋，空查詢回傳全部
func (c *Catalog) SearchIngredients(query string) []Ingredient {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return c.Ingredients
	}
	out := make([]Ingredient, 0)
	for _, ing := range c.Ingredients {
		if strings.Contains(strings.ToLower(ing.Name), q) {
			out = append(out, ing)
		}
	}
	return out
}
