package matching

import "recipe-finder/internal/core/catalog"

// Resolver 判斷缺少的食材是否能由已選食材替代。只看一層，不做遞移。
type Resolver struct {
	table catalog.SubstitutionTable
}

// NewResolver 建立替代判斷器；nil 表視為空表
func NewResolver(table catalog.SubstitutionTable) Resolver {
	return Resolver{table: table}
}

// HasSubstitute 任一候選在已選集合中即回傳 true
func (r Resolver) HasSubstitute(id string, sel Selection) bool {
	_, ok := r.FindSubstitute(id, sel)
	return ok
}

// FindSubstitute 依表中順序回傳第一個已選的候選食材
func (r Resolver) FindSubstitute(id string, sel Selection) (string, bool) {
	for _, candidate := range r.table[id] {
		if candidate != id && sel.Has(candidate) {
			return candidate, true
		}
	}
	return "", false
}
