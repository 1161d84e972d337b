package pipeline

import "sort"

// SortCriterion orders items by one derived value. Multiple criteria act
// as tie-breakers, evaluated left to right.
type SortCriterion struct {
	// By derives the sort value: a property name or an accessor.
	By Operand

	// Desc reverses the comparison.
	Desc bool
}

// applySort stable-sorts a copy of the snapshot. The first criterion whose
// comparison is non-zero decides an item pair's order; pairs every
// criterion finds incomparable or equal keep their input order, so the
// result is deterministic even for missing values.
func applySort(criteria []SortCriterion, src []any) []any {
	if len(criteria) == 0 {
		return src
	}

	out := make([]any, len(src))

	// Sort values are derived once against input positions; the accessor
	// index stays stable while the order changes.
	type keyed struct {
		value any
		ok    bool
	}
	keys := make([][]keyed, len(criteria))
	for ci, c := range criteria {
		keys[ci] = make([]keyed, len(src))
		for i, it := range src {
			v, ok := c.By.resolve(it, i)
			keys[ci][i] = keyed{value: v, ok: ok}
		}
	}

	order := make([]int, len(src))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(x, y int) bool {
		ix, iy := order[x], order[y]
		for ci, c := range criteria {
			kx, ky := keys[ci][ix], keys[ci][iy]
			if !kx.ok || !ky.ok {
				// Incomparable: defer to later criteria, then stability.
				continue
			}
			cmp, ok := compareValues(kx.value, ky.value)
			if !ok || cmp == 0 {
				continue
			}
			if c.Desc {
				cmp = -cmp
			}
			return cmp < 0
		}
		return false
	})

	for pos, orig := range order {
		out[pos] = src[orig]
	}
	return out
}
