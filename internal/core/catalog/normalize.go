package catalog

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"recipe-finder/internal/pkg/common"
)

// rawRecipe 食譜檔案中的原始格式，涵蓋各版本資料的欄位差異
type rawRecipe struct {
	ID           string                `json:"id"`
	Title        string                `json:"title"`
	Name         string                `json:"name"`
	Category     string                `json:"category"`
	Difficulty   string                `json:"difficulty"`
	Time         *float64              `json:"time"`
	TimeTotal    *float64              `json:"time_total"`
	Servings     *int                  `json:"servings"`
	Vegetarian   bool                  `json:"vegetarian"`
	Budget       bool                  `json:"budget"`
	Image        string                `json:"image"`
	Ingredients  []rawRecipeIngredient `json:"ingredients"`
	Required     []string              `json:"required"`
	Steps        []rawStep             `json:"steps"`
	Instructions []rawStep             `json:"instructions"`
	Source       Attribution           `json:"source"`
}

type rawRecipeIngredient struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Amount   json.RawMessage `json:"amount"`
	Required *bool           `json:"required"`
}

// rawStep 可以是純文字，也可以是 {text, time}
type rawStep struct {
	Text string
	Time float64
}

// UnmarshalJSON 同時接受字串與物件兩種步驟格式
func (s *rawStep) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		s.Text = text
		return nil
	}
	var obj struct {
		Text string  `json:"text"`
		Time float64 `json:"time"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("step must be a string or an object with text/time: %w", err)
	}
	s.Text = obj.Text
	s.Time = obj.Time
	return nil
}

// amountString 數量欄位可能是字串或數字
func amountString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

// normalizer 在載入邊界把各種資料格式轉為單一標準格式
type normalizer struct {
	defaultServings int
	ingredients     map[string]Ingredient
}

func newNormalizer(ingredients []Ingredient, defaultServings int) *normalizer {
	idx := make(map[string]Ingredient, len(ingredients))
	for _, ing := range ingredients {
		if _, exists := idx[ing.ID]; !exists {
			idx[ing.ID] = ing
		}
	}
	return &normalizer{defaultServings: defaultServings, ingredients: idx}
}

// ingredientName 食譜內名稱優先，其次目錄名稱，最後退回 id
func (n *normalizer) ingredientName(id, local string) string {
	if local = strings.TrimSpace(local); local != "" {
		return local
	}
	if ing, ok := n.ingredients[id]; ok && ing.Name != "" {
		return ing.Name
	}
	return id
}

// recipe 正規化單一食譜
func (n *normalizer) recipe(raw rawRecipe) Recipe {
	r := Recipe{
		ID:         raw.ID,
		Title:      plainText(firstNonEmpty(raw.Title, raw.Name, raw.ID)),
		Category:   raw.Category,
		Difficulty: raw.Difficulty,
		Vegetarian: raw.Vegetarian,
		Budget:     raw.Budget,
		Image:      raw.Image,
		Source:     raw.Source,
		Servings:   n.defaultServings,
	}

	switch {
	case raw.Time != nil:
		r.TimeMinutes = int(math.Round(*raw.Time))
	case raw.TimeTotal != nil:
		r.TimeMinutes = int(math.Round(*raw.TimeTotal))
	}
	if raw.Servings != nil && *raw.Servings > 0 {
		r.Servings = *raw.Servings
	}

	// 頂層 required 陣列存在時，以它決定必要食材
	var requiredSet map[string]bool
	if raw.Required != nil {
		requiredSet = make(map[string]bool, len(raw.Required))
		for _, id := range raw.Required {
			requiredSet[id] = true
		}
	}

	seen := make(map[string]bool, len(raw.Ingredients))
	r.Ingredients = make([]RecipeIngredient, 0, len(raw.Ingredients))
	for _, ing := range raw.Ingredients {
		if ing.ID == "" || seen[ing.ID] {
			continue
		}
		seen[ing.ID] = true

		required := true
		if requiredSet != nil {
			required = requiredSet[ing.ID]
		} else if ing.Required != nil {
			required = *ing.Required
		}
		r.Ingredients = append(r.Ingredients, RecipeIngredient{
			ID:       ing.ID,
			Name:     n.ingredientName(ing.ID, ing.Name),
			Amount:   amountString(ing.Amount),
			Required: required,
		})
	}
	for _, id := range raw.Required {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		r.Ingredients = append(r.Ingredients, RecipeIngredient{
			ID:       id,
			Name:     n.ingredientName(id, ""),
			Required: true,
		})
	}

	steps := raw.Steps
	if len(steps) == 0 {
		steps = raw.Instructions
	}
	r.Steps = make([]Step, 0, len(steps))
	for _, s := range steps {
		text := plainText(s.Text)
		if text == "" {
			continue
		}
		minutes := s.Time
		if minutes < 0 {
			minutes = 0
		}
		r.Steps = append(r.Steps, Step{Text: text, Minutes: minutes})
	}

	return r
}

// recipes 正規化整份食譜清單；缺少 id 或重複的食譜會被略過
func (n *normalizer) recipes(raws []rawRecipe) []Recipe {
	out := make([]Recipe, 0, len(raws))
	seen := make(map[string]bool, len(raws))
	for i, raw := range raws {
		if raw.ID == "" {
			common.LogWarn("略過缺少 id 的食譜", zap.Int("index", i))
			continue
		}
		if seen[raw.ID] {
			common.LogWarn("略過重複的食譜", zap.String("recipe_id", raw.ID))
			continue
		}
		seen[raw.ID] = true
		r := n.recipe(raw)
		if len(r.RequiredIngredients()) == 0 {
			common.LogWarn("食譜沒有必要食材，匹配度固定為 100",
				zap.String("recipe_id", r.ID),
			)
		}
		out = append(out, r)
	}
	return out
}

// dedupeIngredients 移除重複 id 與空 id 的食材
func dedupeIngredients(list []Ingredient) []Ingredient {
	out := make([]Ingredient, 0, len(list))
	seen := make(map[string]bool, len(list))
	for _, ing := range list {
		if ing.ID == "" || seen[ing.ID] {
			if ing.ID != "" {
				common.LogWarn("略過重複的食材", zap.String("ingredient_id", ing.ID))
			}
			continue
		}
		seen[ing.ID] = true
		if ing.Name == "" {
			ing.Name = ing.ID
		}
		out = append(out, ing)
	}
	return out
}

// sanitizeSubstitutes 移除自我替代與重複候選，保留表中順序
func sanitizeSubstitutes(raw map[string][]string) SubstitutionTable {
	table := make(SubstitutionTable, len(raw))
	for id, candidates := range raw {
		seen := make(map[string]bool, len(candidates))
		clean := make([]string, 0, len(candidates))
		for _, c := range candidates {
			if c == "" || seen[c] {
				continue
			}
			if c == id {
				common.LogWarn("移除自我替代項目", zap.String("ingredient_id", id))
				continue
			}
			seen[c] = true
			clean = append(clean, c)
		}
		if len(clean) > 0 {
			table[id] = clean
		}
	}
	return table
}

// plainText 把可能含有 HTML 標記的文字轉為純文字
func plainText(s string) string {
	s = strings.TrimSpace(s)
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
