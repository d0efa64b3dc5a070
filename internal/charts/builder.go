package charts

import (
	"fmt"
	"math"
	"sort"

	"dataexplorer/internal/analytics"
	"dataexplorer/internal/dataset"
	"dataexplorer/pkg/contracts/domain"
)

// Notices returned instead of a chart
const (
	NoticeScatterCount = "Scatter needs a numeric Y; switch Y from '(count)'."
	noticeUnknown      = "Column '%s' is not in the data; pick another column."
	noticeNumericY     = "Aggregation '%s' needs a numeric Y; '%s' is %s."
	noticeScatterY     = "Scatter needs a numeric Y; '%s' is %s."
	noticeBoxValues    = "Box plots need numeric values; '%s' is %s."
)

// Build computes the series or boxes of a chart from the cleaned display
// frame. Selections that cannot be drawn produce a chart carrying a notice.
func Build(f *dataset.Frame, spec domain.ChartSpec) *domain.Chart {
	spec = withDefaults(spec)
	chart := &domain.Chart{Spec: spec, XLabel: spec.X}

	x, ok := f.Column(spec.X)
	if !ok {
		chart.Notice = fmt.Sprintf(noticeUnknown, spec.X)
		return chart
	}
	var y, color *dataset.Column
	if spec.Y != domain.CountColumn {
		if y, ok = f.Column(spec.Y); !ok {
			chart.Notice = fmt.Sprintf(noticeUnknown, spec.Y)
			return chart
		}
	}
	if spec.Color != domain.NoColor {
		if color, ok = f.Column(spec.Color); !ok {
			chart.Notice = fmt.Sprintf(noticeUnknown, spec.Color)
			return chart
		}
	}
	if f.Len() == 0 {
		chart.Notice = analytics.NoticeNoRows
		return chart
	}

	switch spec.Kind {
	case domain.ChartScatter:
		buildScatter(chart, f, x, y, color)
	case domain.ChartBox:
		buildBox(chart, f, x, y, color)
	default:
		buildAggregated(chart, f, x, y, color)
	}
	return chart
}

func withDefaults(spec domain.ChartSpec) domain.ChartSpec {
	if spec.Y == "" {
		spec.Y = domain.CountColumn
	}
	if spec.Color == "" {
		spec.Color = domain.NoColor
	}
	if spec.Kind == "" {
		spec.Kind = domain.ChartBar
	}
	if spec.Agg == "" {
		spec.Agg = domain.AggCount
	}
	return spec
}

// buildAggregated groups by x (and color) and reduces y per group for bar and line charts
func buildAggregated(chart *domain.Chart, f *dataset.Frame, x, y, color *dataset.Column) {
	spec := chart.Spec
	if y != nil && spec.Agg != domain.AggCount && !y.IsNumeric() {
		chart.Notice = fmt.Sprintf(noticeNumericY, spec.Agg, y.Name, y.Kind)
		return
	}

	keys := []*dataset.Column{x}
	if color != nil {
		keys = append(keys, color)
	}
	series := newSeriesIndex(f, color)
	for _, g := range analytics.GroupRows(f, keys) {
		value := float64(len(g.Rows))
		if y != nil {
			value = analytics.Aggregate(y, g.Rows, spec.Agg)
		}
		name := ""
		if color != nil {
			name = g.Keys[1]
		}
		chart.Categories = appendCategory(chart.Categories, g.Keys[0])
		series.add(name, point(x, g.Rows[0], valuePtr(value)))
	}
	chart.Series = series.list()
	chart.YLabel = "value"
	if y == nil {
		chart.Title = fmt.Sprintf("count by %s", x.Name)
	} else {
		chart.Title = fmt.Sprintf("%s of %s by %s", spec.Agg, y.Name, x.Name)
	}
}

// buildScatter plots raw rows
func buildScatter(chart *domain.Chart, f *dataset.Frame, x, y, color *dataset.Column) {
	if y == nil {
		chart.Notice = NoticeScatterCount
		return
	}
	if !y.IsNumeric() {
		chart.Notice = fmt.Sprintf(noticeScatterY, y.Name, y.Kind)
		return
	}

	series := newSeriesIndex(f, color)
	seen := make(map[string]struct{})
	for i := 0; i < f.Len(); i++ {
		name := ""
		if color != nil {
			name = analytics.Label(color, i)
		}
		var yv *float64
		if v, ok := y.Float(i); ok {
			yv = valuePtr(v)
		}
		if !x.IsNumeric() {
			label := analytics.Label(x, i)
			if _, ok := seen[label]; !ok {
				seen[label] = struct{}{}
				chart.Categories = append(chart.Categories, label)
			}
		}
		series.add(name, point(x, i, yv))
	}
	chart.Series = series.list()
	chart.YLabel = y.Name
	chart.Title = fmt.Sprintf("%s vs %s", y.Name, x.Name)
}

// buildBox summarizes y per x category (and color); with y = (count) the
// boxes summarize x itself, one per color.
func buildBox(chart *domain.Chart, f *dataset.Frame, x, y, color *dataset.Column) {
	values := y
	var keys []*dataset.Column
	if y == nil {
		values = x
		chart.XLabel = ""
		chart.YLabel = x.Name
	} else {
		keys = append(keys, x)
		chart.YLabel = y.Name
	}
	if color != nil {
		keys = append(keys, color)
	}
	if !values.IsNumeric() {
		chart.Notice = fmt.Sprintf(noticeBoxValues, values.Name, values.Kind)
		return
	}

	groups := []analytics.Group{{Rows: allRows(f.Len())}}
	if len(keys) > 0 {
		groups = analytics.GroupRows(f, keys)
	}
	for _, g := range groups {
		box, ok := boxStats(values, g.Rows)
		if !ok {
			continue
		}
		switch {
		case y == nil && color != nil:
			box.Series = g.Keys[0]
		case y != nil:
			box.Category = g.Keys[0]
			chart.Categories = appendCategory(chart.Categories, g.Keys[0])
			if color != nil {
				box.Series = g.Keys[1]
			}
		}
		chart.Boxes = append(chart.Boxes, box)
	}
	if y == nil {
		chart.Title = fmt.Sprintf("distribution of %s", x.Name)
	} else {
		chart.Title = fmt.Sprintf("%s by %s", y.Name, x.Name)
	}
}

func boxStats(c *dataset.Column, rows []int) (domain.BoxStats, bool) {
	var vals []float64
	for _, i := range rows {
		if v, ok := c.Float(i); ok {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return domain.BoxStats{}, false
	}
	sort.Float64s(vals)
	return domain.BoxStats{
		Count:  len(vals),
		Min:    vals[0],
		Q1:     dataset.Quantile(vals, 0.25),
		Median: dataset.Quantile(vals, 0.5),
		Q3:     dataset.Quantile(vals, 0.75),
		Max:    vals[len(vals)-1],
		Values: vals,
	}, true
}

func point(x *dataset.Column, row int, y *float64) domain.ChartPoint {
	p := domain.ChartPoint{X: analytics.Label(x, row), Y: y}
	if x.IsNumeric() {
		if v, ok := x.Float(row); ok {
			p.XValue = valuePtr(v)
		}
	}
	return p
}

func valuePtr(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

// appendCategory adds label unless it is already the last entry; callers
// feed labels in group order.
func appendCategory(cats []string, label string) []string {
	if len(cats) > 0 && cats[len(cats)-1] == label {
		return cats
	}
	return append(cats, label)
}

func allRows(n int) []int {
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	return rows
}

// seriesIndex collects points per series, ordered by color key
type seriesIndex struct {
	order  map[string]int
	series []domain.ChartSeries
}

func newSeriesIndex(f *dataset.Frame, color *dataset.Column) *seriesIndex {
	idx := &seriesIndex{order: make(map[string]int)}
	if color == nil {
		idx.order[""] = 0
		idx.series = []domain.ChartSeries{{Points: []domain.ChartPoint{}}}
		return idx
	}
	for _, g := range analytics.GroupRows(f, []*dataset.Column{color}) {
		idx.order[g.Keys[0]] = len(idx.series)
		idx.series = append(idx.series, domain.ChartSeries{Name: g.Keys[0], Points: []domain.ChartPoint{}})
	}
	return idx
}

func (s *seriesIndex) add(name string, p domain.ChartPoint) {
	i := s.order[name]
	s.series[i].Points = append(s.series[i].Points, p)
}

func (s *seriesIndex) list() []domain.ChartSeries {
	return s.series
}
