package analytics

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"dataexplorer/internal/dataset"
	"dataexplorer/pkg/contracts/domain"
)

// Describe summarizes every column. Numeric columns get moments and
// quartiles, datetimes get timestamp quartiles, everything else gets
// unique/top/freq.
func Describe(f *dataset.Frame) []domain.ColumnSummary {
	out := make([]domain.ColumnSummary, 0, len(f.Columns))
	for _, c := range f.Columns {
		out = append(out, DescribeColumn(c))
	}
	return out
}

// DescribeColumn summarizes one column
func DescribeColumn(c *dataset.Column) domain.ColumnSummary {
	s := domain.ColumnSummary{
		Column: c.Name,
		Dtype:  c.Kind,
		Count:  c.Len() - c.MissingCount(),
	}
	switch {
	case c.IsNumeric():
		describeNumeric(&s, c.Floats())
	case c.Kind == domain.KindDatetime:
		describeDatetime(&s, c)
	default:
		describeCategorical(&s, c)
	}
	return s
}

func describeNumeric(s *domain.ColumnSummary, vals []float64) {
	if len(vals) == 0 {
		return
	}
	sort.Float64s(vals)
	s.Mean = ptr(stat.Mean(vals, nil))
	if len(vals) > 1 {
		s.Std = ptr(stat.StdDev(vals, nil))
	}
	s.Min = ptr(vals[0])
	s.P25 = ptr(dataset.Quantile(vals, 0.25))
	s.P50 = ptr(dataset.Quantile(vals, 0.5))
	s.P75 = ptr(dataset.Quantile(vals, 0.75))
	s.Max = ptr(vals[len(vals)-1])
}

func describeCategorical(s *domain.ColumnSummary, c *dataset.Column) {
	row, freq, unique, ok := c.Top()
	if !ok {
		zero := 0
		s.Unique = &zero
		return
	}
	top := c.Text(row)
	s.Unique = &unique
	s.Top = &top
	s.Freq = &freq
}

func describeDatetime(s *domain.ColumnSummary, c *dataset.Column) {
	var nanos []int64
	for i, t := range c.Times {
		if !c.IsNull(i) {
			nanos = append(nanos, t.UnixNano())
		}
	}
	if len(nanos) == 0 {
		return
	}
	sort.Slice(nanos, func(i, j int) bool { return nanos[i] < nanos[j] })

	var sum float64
	for _, n := range nanos {
		sum += float64(n - nanos[0])
	}
	mean := nanos[0] + int64(sum/float64(len(nanos)))

	s.Datetimes = &domain.DatetimeSummary{
		Mean: stamp(mean),
		Min:  stamp(nanos[0]),
		P25:  stamp(quantileNanos(nanos, 0.25)),
		P50:  stamp(quantileNanos(nanos, 0.5)),
		P75:  stamp(quantileNanos(nanos, 0.75)),
		Max:  stamp(nanos[len(nanos)-1]),
	}
}

// quantileNanos interpolates in integer nanoseconds to keep precision
func quantileNanos(sorted []int64, q float64) int64 {
	pos := q * float64(len(sorted)-1)
	lo := int(pos)
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + int64(float64(sorted[lo+1]-sorted[lo])*frac)
}

func stamp(n int64) string {
	return time.Unix(0, n).UTC().Format("2006-01-02 15:04:05.999999999")
}
