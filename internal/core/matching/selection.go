// Package matching 實作食譜匹配核心：替代判斷、匹配度計算、條件過濾與排名。
// 所有函式皆為純函式，呼叫端持有唯一的可變狀態並在每次變更後重新計算。
package matching

import "sort"

// Selection 使用者目前擁有的食材集合。
// 修改方法回傳新值，不影響原本的 Selection。
type Selection struct {
	ids map[string]struct{}
}

// NewSelection 由 id 清單建立集合，忽略空字串與重複值
func NewSelection(ids ...string) Selection {
	s := Selection{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		if id != "" {
			s.ids[id] = struct{}{}
		}
	}
	return s
}

// Has 是否包含食材
func (s Selection) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Len 集合大小
func (s Selection) Len() int {
	return len(s.ids)
}

// IsEmpty 是否為空
func (s Selection) IsEmpty() bool {
	return len(s.ids) == 0
}

// Add 加入食材
func (s Selection) Add(ids ...string) Selection {
	out := s.clone()
	for _, id := range ids {
		if id != "" {
			out.ids[id] = struct{}{}
		}
	}
	return out
}

// Remove 移除食材
func (s Selection) Remove(ids ...string) Selection {
	out := s.clone()
	for _, id := range ids {
		delete(out.ids, id)
	}
	return out
}

// Toggle 有則移除、無則加入
func (s Selection) Toggle(id string) Selection {
	if s.Has(id) {
		return s.Remove(id)
	}
	return s.Add(id)
}

// Clear 回傳空集合
func (s Selection) Clear() Selection {
	return NewSelection()
}

// IDs 排序後的 id 清單
func (s Selection) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (s Selection) clone() Selection {
	out := Selection{ids: make(map[string]struct{}, len(s.ids)+1)}
	for id := range s.ids {
		out.ids[id] = struct{}{}
	}
	return out
}
