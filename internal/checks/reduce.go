package checks

import (
	"sort"

	"grid-constraints/internal/frame"
)

// triple is one (element, time step, value) observation.
type triple struct {
	element string
	step    int
	value   float64
}

// extreme is the worst observation of an element.
type extreme struct {
	element string
	step    int
	value   float64
}

// triplesWhere flattens f column by column, keeping values accepted by keep.
// Within an element, steps are in ascending order.
func triplesWhere(f *frame.Frame, keep func(float64) bool) []triple {
	if f.IsEmpty() {
		return nil
	}
	var out []triple
	cols := f.Columns()
	for j, name := range cols {
		for i := 0; i < f.Rows(); i++ {
			v := f.At(i, j)
			if keep(v) {
				out = append(out, triple{element: name, step: i, value: v})
			}
		}
	}
	return out
}

// fold reduces triples to one extreme per element. better(a, b) reports
// whether a replaces the current extreme b, so ties keep the earlier step.
// Elements are returned in order of first appearance.
func fold(ts []triple, better func(a, b float64) bool) []extreme {
	pos := map[string]int{}
	var out []extreme
	for _, t := range ts {
		i, seen := pos[t.element]
		if !seen {
			pos[t.element] = len(out)
			out = append(out, extreme(t))
			continue
		}
		if better(t.value, out[i].value) {
			out[i].value = t.value
			out[i].step = t.step
		}
	}
	return out
}

func greater(a, b float64) bool { return a > b }

func less(a, b float64) bool { return a < b }

func always(float64) bool { return true }

// sortDescending sorts by key, largest first, keeping the original order of ties.
func sortDescending[T any](s []T, key func(T) float64) {
	sort.SliceStable(s, func(i, j int) bool { return key(s[i]) > key(s[j]) })
}
