package charts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dataexplorer/internal/dataset"
	"dataexplorer/pkg/contracts/domain"
)

func frame(t *testing.T, csv string) *dataset.Frame {
	t.Helper()
	f, err := dataset.ReadCSV(strings.NewReader(csv))
	require.NoError(t, err)
	return f
}

func yValues(s domain.ChartSeries) map[string]float64 {
	out := make(map[string]float64)
	for _, p := range s.Points {
		if p.Y != nil {
			out[p.X] = *p.Y
		}
	}
	return out
}

func TestBuild_BarCount(t *testing.T) {
	f := frame(t, "city,v\nParis,1\nLyon,2\nParis,3\n,4\n")

	chart := Build(f, domain.ChartSpec{X: "city", Y: domain.CountColumn, Color: domain.NoColor, Kind: domain.ChartBar, Agg: domain.AggCount})

	assert.Empty(t, chart.Notice)
	assert.Equal(t, "count by city", chart.Title)
	assert.Equal(t, []string{"Lyon", "Paris", "NaN"}, chart.Categories)
	require.Len(t, chart.Series, 1)
	assert.Equal(t, map[string]float64{"Lyon": 1, "Paris": 2, "NaN": 1}, yValues(chart.Series[0]))
}

func TestBuild_GroupedSum(t *testing.T) {
	f := frame(t, "g,c,v\na,x,1\na,y,2\nb,x,3\na,x,4\n")

	chart := Build(f, domain.ChartSpec{X: "g", Y: "v", Color: "c", Kind: domain.ChartLine, Agg: domain.AggSum})

	assert.Equal(t, []string{"a", "b"}, chart.Categories)
	require.Len(t, chart.Series, 2)
	assert.Equal(t, "x", chart.Series[0].Name)
	assert.Equal(t, map[string]float64{"a": 5, "b": 3}, yValues(chart.Series[0]))
	assert.Equal(t, "y", chart.Series[1].Name)
	assert.Equal(t, map[string]float64{"a": 2}, yValues(chart.Series[1]))
}

func TestBuild_Aggregations(t *testing.T) {
	f := frame(t, "g,v,s\na,1,p\na,,q\na,5,\nb,2,r\n")

	tests := []struct {
		name  string
		y     string
		agg   domain.Aggregation
		wantA float64
	}{
		{"count numeric", "v", domain.AggCount, 2},
		{"count text", "s", domain.AggCount, 2},
		{"mean", "v", domain.AggMean, 3},
		{"median", "v", domain.AggMedian, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chart := Build(f, domain.ChartSpec{X: "g", Y: tt.y, Kind: domain.ChartBar, Agg: tt.agg})
			require.Empty(t, chart.Notice)
			assert.Equal(t, tt.wantA, yValues(chart.Series[0])["a"])
		})
	}
}

func TestBuild_Notices(t *testing.T) {
	f := frame(t, "g,v,s\na,1,p\nb,2,q\n")

	tests := []struct {
		name string
		spec domain.ChartSpec
		want string
	}{
		{"unknown x", domain.ChartSpec{X: "nope"}, "Column 'nope' is not in the data"},
		{"unknown color", domain.ChartSpec{X: "g", Color: "nope"}, "Column 'nope'"},
		{"text y mean", domain.ChartSpec{X: "g", Y: "s", Agg: domain.AggMean}, "needs a numeric Y"},
		{"scatter count", domain.ChartSpec{X: "g", Kind: domain.ChartScatter}, NoticeScatterCount},
		{"scatter text y", domain.ChartSpec{X: "g", Y: "s", Kind: domain.ChartScatter}, "Scatter needs a numeric Y"},
		{"box text", domain.ChartSpec{X: "g", Kind: domain.ChartBox}, "Box plots need numeric values"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chart := Build(f, tt.spec)
			assert.Contains(t, chart.Notice, tt.want)
			assert.Empty(t, chart.Series)
			assert.Empty(t, chart.Boxes)
		})
	}
}

func TestBuild_Scatter(t *testing.T) {
	f := frame(t, "x,y,c\n1,2,a\n2,,b\n3,6,a\n")

	chart := Build(f, domain.ChartSpec{X: "x", Y: "y", Color: "c", Kind: domain.ChartScatter})

	require.Len(t, chart.Series, 2)
	a := chart.Series[0]
	assert.Equal(t, "a", a.Name)
	require.Len(t, a.Points, 2)
	require.NotNil(t, a.Points[1].XValue)
	assert.Equal(t, 3.0, *a.Points[1].XValue)
	assert.Equal(t, 6.0, *a.Points[1].Y)
	assert.Nil(t, chart.Series[1].Points[0].Y)
	assert.Empty(t, chart.Categories)
}

func TestBuild_Box(t *testing.T) {
	f := frame(t, "g,v\na,1\na,2\na,3\nb,10\n")

	t.Run("values per category", func(t *testing.T) {
		chart := Build(f, domain.ChartSpec{X: "g", Y: "v", Kind: domain.ChartBox})
		require.Len(t, chart.Boxes, 2)
		assert.Equal(t, "a", chart.Boxes[0].Category)
		assert.Equal(t, 3, chart.Boxes[0].Count)
		assert.Equal(t, 1.5, chart.Boxes[0].Q1)
		assert.Equal(t, 2.0, chart.Boxes[0].Median)
		assert.Equal(t, 10.0, chart.Boxes[1].Max)
	})

	t.Run("count y summarizes x", func(t *testing.T) {
		chart := Build(f, domain.ChartSpec{X: "v", Kind: domain.ChartBox})
		require.Len(t, chart.Boxes, 1)
		assert.Equal(t, 4, chart.Boxes[0].Count)
		assert.Equal(t, "v", chart.YLabel)
	})
}

func TestBuild_EmptyFrame(t *testing.T) {
	chart := Build(frame(t, "g,v\n"), domain.ChartSpec{X: "g"})
	assert.NotEmpty(t, chart.Notice)
}
