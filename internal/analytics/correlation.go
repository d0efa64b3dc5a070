package analytics

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"dataexplorer/internal/dataset"
	"dataexplorer/pkg/contracts/domain"
)

// Correlation computes Pearson coefficients between every pair of numeric
// columns using the rows where both values are present.
func Correlation(f *dataset.Frame) domain.CorrelationMatrix {
	cols := f.NumericColumns()
	if len(cols) < 2 {
		return domain.CorrelationMatrix{Columns: []string{}, Values: [][]*float64{}, Notice: NoticeNoCorrelation}
	}

	m := domain.CorrelationMatrix{
		Columns: make([]string, len(cols)),
		Values:  make([][]*float64, len(cols)),
	}
	for i, c := range cols {
		m.Columns[i] = c.Name
		m.Values[i] = make([]*float64, len(cols))
	}
	for i := range cols {
		for j := i; j < len(cols); j++ {
			v := pairwise(cols[i], cols[j])
			if i == j && !math.IsNaN(v) {
				v = 1
			}
			m.Values[i][j] = ptr(v)
			m.Values[j][i] = ptr(v)
		}
	}
	return m
}

// pairwise returns NaN with fewer than two complete pairs or a constant side
func pairwise(a, b *dataset.Column) float64 {
	var x, y []float64
	for i := 0; i < a.Len(); i++ {
		av, aok := a.Float(i)
		bv, bok := b.Float(i)
		if aok && bok {
			x = append(x, av)
			y = append(y, bv)
		}
	}
	if len(x) < 2 {
		return math.NaN()
	}
	if constant(x) || constant(y) {
		return math.NaN()
	}
	r := stat.Correlation(x, y, nil)
	return math.Max(-1, math.Min(1, r))
}

func constant(vals []float64) bool {
	for _, v := range vals[1:] {
		if v != vals[0] {
			return false
		}
	}
	return true
}
