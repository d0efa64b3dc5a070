package analytics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"dataexplorer/internal/dataset"
	"dataexplorer/pkg/contracts/domain"
)

// MissingLabel names the group of missing keys
const MissingLabel = "NaN"

// Group is one distinct key combination and the rows holding it
type Group struct {
	Keys []string
	Rows []int
}

// GroupRows partitions the rows of f by the key columns. Missing keys form
// their own group. Groups are ordered by key with missing keys last; rows
// keep frame order inside a group.
func GroupRows(f *dataset.Frame, keys []*dataset.Column) []Group {
	rows := make([]int, f.Len())
	for i := range rows {
		rows[i] = i
	}
	sort.SliceStable(rows, func(a, b int) bool {
		return compareKeys(keys, rows[a], rows[b]) < 0
	})

	var groups []Group
	for start := 0; start < len(rows); {
		end := start + 1
		for end < len(rows) && compareKeys(keys, rows[start], rows[end]) == 0 {
			end++
		}
		member := append([]int(nil), rows[start:end]...)
		sort.Ints(member)
		groups = append(groups, Group{Keys: keyLabels(keys, rows[start]), Rows: member})
		start = end
	}
	return groups
}

func compareKeys(keys []*dataset.Column, i, j int) int {
	for _, c := range keys {
		ni, nj := c.IsNull(i), c.IsNull(j)
		switch {
		case ni && nj:
			continue
		case ni:
			return 1
		case nj:
			return -1
		case c.Less(i, j):
			return -1
		case c.Less(j, i):
			return 1
		}
	}
	return 0
}

func keyLabels(keys []*dataset.Column, row int) []string {
	labels := make([]string, len(keys))
	for k, c := range keys {
		labels[k] = Label(c, row)
	}
	return labels
}

// Label is the display text of a cell; missing cells read MissingLabel
func Label(c *dataset.Column, row int) string {
	if c.IsNull(row) {
		return MissingLabel
	}
	return c.Text(row)
}

// Aggregate reduces the present values of y over rows. Count works on any
// column kind; the other reducers read numeric values. Sum over no values is
// zero; mean and median over no values are NaN.
func Aggregate(y *dataset.Column, rows []int, agg domain.Aggregation) float64 {
	if agg == domain.AggCount {
		return float64(CountPresent(y, rows))
	}
	var vals []float64
	for _, i := range rows {
		if v, ok := y.Float(i); ok {
			vals = append(vals, v)
		}
	}
	switch agg {
	case domain.AggSum:
		return floats.Sum(vals)
	case domain.AggMean:
		if len(vals) == 0 {
			return math.NaN()
		}
		return floats.Sum(vals) / float64(len(vals))
	case domain.AggMedian:
		if len(vals) == 0 {
			return math.NaN()
		}
		sort.Float64s(vals)
		return dataset.Quantile(vals, 0.5)
	default:
		return math.NaN()
	}
}

// CountPresent counts the rows where c has a value
func CountPresent(c *dataset.Column, rows []int) int {
	n := 0
	for _, i := range rows {
		if !c.IsNull(i) {
			n++
		}
	}
	return n
}
