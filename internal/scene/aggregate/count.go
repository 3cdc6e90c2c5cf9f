package aggregate

import (
	"sort"

	"room-passport/internal/scene/models"
)

// ============================================================
// Count Aggregator
// ============================================================

// Counts: количество узлов каждого типа, ключ совпадает с полем type схемы.
type Counts map[string]int

// RequiredKinds возвращает типы, которые всегда присутствуют в результате Count.
func RequiredKinds() []models.Kind {
	var out []models.Kind
	for _, e := range models.Catalog() {
		if e.RequiredInAggregate {
			out = append(out, e.Kind)
		}
	}
	return out
}

// Count группирует узлы по типу и дополняет обязательные типы нулями.
// Типы вне обязательного набора попадают в результат только при наличии узлов.
func Count(nodes []models.Node) Counts {
	counts := make(Counts)
	for _, n := range nodes {
		if n.Kind == "" {
			continue
		}
		counts[string(n.Kind)]++
	}

	for _, kind := range RequiredKinds() {
		if _, ok := counts[string(kind)]; !ok {
			counts[string(kind)] = 0
		}
	}
	return counts
}

// Kinds возвращает ключи в отсортированном порядке.
func (c Counts) Kinds() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Total: общее число узлов.
func (c Counts) Total() int {
	total := 0
	for _, v := range c {
		total += v
	}
	return total
}
