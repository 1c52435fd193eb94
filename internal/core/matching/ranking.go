package matching

import (
	"sort"

	"recipe-finder/internal/core/catalog"
)

// Rank 計算所有食譜的匹配度、過濾並排序。
// 排序：匹配度由高到低，其次時間由短到長，再相同則維持目錄順序。
// 選擇為空時仍回傳正確（全為 0）的分數，由呼叫端決定如何呈現。
func Rank(c *catalog.Catalog, sel Selection, criteria Criteria, favorites IDSet) []Ranked {
	if c == nil {
		return []Ranked{}
	}
	res := NewResolver(c.Substitutes)

	scored := make([]Ranked, 0, len(c.Recipes))
	for i := range c.Recipes {
		r := &c.Recipes[i]
		scored = append(scored, Ranked{
			Recipe: r,
			Match:  Score(r, sel, res, c.IngredientName),
		})
	}

	out := Filter(scored, criteria, favorites)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Match.Percent != b.Match.Percent {
			return a.Match.Percent > b.Match.Percent
		}
		return a.Recipe.TimeMinutes < b.Recipe.TimeMinutes
	})
	return out
}

// ScoreRecipe 單一食譜詳情頁使用，與排名清單無關地重新計算
func ScoreRecipe(c *catalog.Catalog, r *catalog.Recipe, sel Selection) MatchResult {
	return Score(r, sel, NewResolver(c.Substitutes), c.IngredientName)
}
