package dataset

import (
	"math"
	"sort"
)

// Quantile returns the q-th quantile of sorted values using linear
// interpolation between closest ranks. sorted must be ascending.
func Quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// Median returns the median of the present values, NaN when none are present
func (c *Column) Median() float64 {
	vals := c.Floats()
	if len(vals) == 0 {
		return math.NaN()
	}
	sort.Float64s(vals)
	return Quantile(vals, 0.5)
}

// Mode returns the row index of a most frequent present value and its count.
// Ties resolve to the smallest value. ok is false when every cell is missing.
func (c *Column) Mode() (row, count int, ok bool) {
	idx := c.sortedPresent()
	if len(idx) == 0 {
		return 0, 0, false
	}
	row, count = idx[0], 0
	for start := 0; start < len(idx); {
		end := start + 1
		for end < len(idx) && c.Equal(idx[start], idx[end]) {
			end++
		}
		if end-start > count {
			row, count = idx[start], end-start
		}
		start = end
	}
	return row, count, true
}

// Top returns the row index of a most frequent present value, with ties
// resolved to the value seen first, along with its count and the number of
// distinct present values.
func (c *Column) Top() (row, freq, unique int, ok bool) {
	counts := make(map[string]int)
	first := make(map[string]int)
	var order []string
	for i := 0; i < c.Len(); i++ {
		if c.Null[i] {
			continue
		}
		k := c.key(i)
		if _, seen := counts[k]; !seen {
			first[k] = i
			order = append(order, k)
		}
		counts[k]++
	}
	if len(order) == 0 {
		return 0, 0, 0, false
	}
	best := order[0]
	for _, k := range order[1:] {
		if counts[k] > counts[best] {
			best = k
		}
	}
	return first[best], counts[best], len(order), true
}

// sortedPresent returns the indexes of present cells ordered by value,
// keeping row order among equal values.
func (c *Column) sortedPresent() []int {
	idx := make([]int, 0, c.Len())
	for i := 0; i < c.Len(); i++ {
		if !c.Null[i] {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return c.Less(idx[a], idx[b])
	})
	return idx
}
