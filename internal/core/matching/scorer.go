package matching

import "recipe-finder/internal/core/catalog"

// Status 單一必要食材的匹配狀態
type Status string

const (
	StatusOK          Status = "OK"
	StatusSubstituted Status = "SUBSTITUTED"
	StatusMissing     Status = "MISSING"
)

// 權重以十分之一為單位，避免浮點誤差：直接擁有 1.0，替代 0.8
const (
	weightDirect     = 10
	weightSubstitute = 8
	weightScale      = 10
)

// Detail 單一必要食材的匹配結果
type Detail struct {
	IngredientID   string `json:"ingredient_id"`
	Name           string `json:"name"`
	Status         Status `json:"status"`
	SubstituteID   string `json:"substitute_id,omitempty"`
	SubstituteName string `json:"substitute_name,omitempty"`
}

// MatchResult 一道食譜對目前選擇的匹配結果，每次重新計算，不快取
type MatchResult struct {
	RecipeID string   `json:"recipe_id"`
	Percent  int      `json:"percent"`
	Details  []Detail `json:"details"`
}

// Missing 回傳缺少的食材
func (m MatchResult) Missing() []Detail {
	out := make([]Detail, 0)
	for _, d := range m.Details {
		if d.Status == StatusMissing {
			out = append(out, d)
		}
	}
	return out
}

// NameFunc 將食材 id 轉為顯示名稱
type NameFunc func(id string) string

// Score 依宣告順序計算每個必要食材的狀態與整體匹配度。
// 沒有必要食材的食譜固定為 100。
func Score(recipe *catalog.Recipe, sel Selection, res Resolver, names NameFunc) MatchResult {
	if names == nil {
		names = func(id string) string { return id }
	}

	result := MatchResult{RecipeID: recipe.ID, Details: make([]Detail, 0, len(recipe.Ingredients))}

	total := 0
	count := 0
	missing := 0
	for _, ing := range recipe.Ingredients {
		if !ing.Required {
			continue
		}
		count++

		name := ing.Name
		if name == "" {
			name = names(ing.ID)
		}
		d := Detail{IngredientID: ing.ID, Name: name}

		if sel.Has(ing.ID) {
			d.Status = StatusOK
			total += weightDirect
		} else if subID, ok := res.FindSubstitute(ing.ID, sel); ok {
			d.Status = StatusSubstituted
			d.SubstituteID = subID
			d.SubstituteName = names(subID)
			total += weightSubstitute
		} else {
			d.Status = StatusMissing
			missing++
		}
		result.Details = append(result.Details, d)
	}

	result.Percent = percent(total, count)
	// 有缺少的食材時不可四捨五入成 100
	if missing > 0 && result.Percent == 100 {
		result.Percent = 99
	}
	return result
}

// percent 計算 round(100 * total / (count * weightScale))，0.5 一律進位
func percent(total, count int) int {
	if count == 0 {
		return 100
	}
	num := 100 * total
	den := weightScale * count
	p := (2*num + den) / (2 * den)
	if p > 100 {
		return 100
	}
	if p < 0 {
		return 0
	}
	return p
}
