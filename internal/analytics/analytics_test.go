package analytics

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dataexplorer/internal/dataset"
	"dataexplorer/internal/shared/testutil"
	"dataexplorer/pkg/contracts/domain"
)

func frame(t *testing.T, csv string) *dataset.Frame {
	t.Helper()
	f, err := dataset.ReadCSV(strings.NewReader(csv))
	require.NoError(t, err)
	return f
}

func TestSchema(t *testing.T) {
	f := frame(t, testutil.SampleCSV)

	got := Schema(f)
	require.Len(t, got, 5)
	assert.Equal(t, domain.ColumnSchema{Column: "city", Dtype: domain.KindObject}, got[0])
	assert.Equal(t, domain.ColumnSchema{Column: "joined", Dtype: domain.KindDatetime}, got[4])
}

func TestMissing(t *testing.T) {
	t.Run("sorted by share then frame order", func(t *testing.T) {
		f := frame(t, "a,b,c\n1,,\n2,,x\n3,4,y\n4,5,z\n")
		got := Missing(f)
		require.Len(t, got.Columns, 2)
		assert.Equal(t, domain.MissingEntry{Column: "b", MissingCount: 2, MissingPct: 50}, got.Columns[0])
		assert.Equal(t, domain.MissingEntry{Column: "c", MissingCount: 1, MissingPct: 25}, got.Columns[1])
		assert.Empty(t, got.Notice)
	})

	t.Run("rounded to two decimals", func(t *testing.T) {
		got := Missing(frame(t, testutil.SampleCSV))
		require.Len(t, got.Columns, 4)
		names := []string{}
		for _, e := range got.Columns {
			names = append(names, e.Column)
			assert.Equal(t, 16.67, e.MissingPct)
		}
		assert.Equal(t, []string{"city", "temp", "visits", "joined"}, names)
	})

	t.Run("ties round to even", func(t *testing.T) {
		var b strings.Builder
		b.WriteString("a,k\n,0\n")
		for i := 1; i < 32; i++ {
			b.WriteString("1,0\n")
		}
		got := Missing(frame(t, b.String()))
		require.Len(t, got.Columns, 1)
		assert.Equal(t, 3.12, got.Columns[0].MissingPct)
	})

	t.Run("notice when complete", func(t *testing.T) {
		got := Missing(frame(t, "a\n1\n"))
		assert.Empty(t, got.Columns)
		assert.Equal(t, NoticeNoMissing, got.Notice)
	})
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 3.12, Round2(3.125))
	assert.Equal(t, 0.38, Round2(0.375))
	assert.Equal(t, 16.67, Round2(100.0/6))
	assert.Equal(t, -2.5, Round2(-2.5))
}

func TestDescribe(t *testing.T) {
	f := frame(t, "a,b,c\n1,x,2024-01-01\n2,y,2024-01-03\n3,x,\n4,,2024-01-05\n")
	got := Describe(f)
	require.Len(t, got, 3)

	a := got[0]
	assert.Equal(t, 4, a.Count)
	assert.Nil(t, a.Unique)
	require.NotNil(t, a.Mean)
	assert.InDelta(t, 2.5, *a.Mean, 1e-12)
	assert.InDelta(t, 1.2909944487358056, *a.Std, 1e-12)
	assert.InDelta(t, 1.0, *a.Min, 1e-12)
	assert.InDelta(t, 1.75, *a.P25, 1e-12)
	assert.InDelta(t, 2.5, *a.P50, 1e-12)
	assert.InDelta(t, 3.25, *a.P75, 1e-12)
	assert.InDelta(t, 4.0, *a.Max, 1e-12)

	b := got[1]
	assert.Equal(t, 3, b.Count)
	assert.Equal(t, 2, *b.Unique)
	assert.Equal(t, "x", *b.Top)
	assert.Equal(t, 2, *b.Freq)
	assert.Nil(t, b.Mean)

	c := got[2]
	assert.Equal(t, 3, c.Count)
	require.NotNil(t, c.Datetimes)
	assert.Equal(t, "2024-01-01 00:00:00", c.Datetimes.Min)
	assert.Equal(t, "2024-01-02 00:00:00", c.Datetimes.P25)
	assert.Equal(t, "2024-01-03 00:00:00", c.Datetimes.Mean)
	assert.Equal(t, "2024-01-05 00:00:00", c.Datetimes.Max)
}

func TestDescribe_SingleValueHasNoStd(t *testing.T) {
	got := Describe(frame(t, "a\n5\n"))
	require.Len(t, got, 1)
	assert.Nil(t, got[0].Std)
	assert.InDelta(t, 5.0, *got[0].Mean, 1e-12)
}

func TestDescribe_TopTiesGoToFirstSeen(t *testing.T) {
	got := Describe(frame(t, "s\nb\na\na\nb\n"))
	assert.Equal(t, "b", *got[0].Top)
	assert.Equal(t, 2, *got[0].Freq)
}

func TestCorrelation(t *testing.T) {
	f := frame(t, "x,y,z,s\n1,2,3,a\n2,4,1,b\n3,6,2,c\n")
	got := Correlation(f)

	assert.Equal(t, []string{"x", "y", "z"}, got.Columns)
	assert.InDelta(t, 1.0, *got.Values[0][0], 1e-12)
	assert.InDelta(t, 1.0, *got.Values[0][1], 1e-12)
	assert.InDelta(t, -0.5, *got.Values[0][2], 1e-12)
	assert.InDelta(t, -0.5, *got.Values[2][0], 1e-12)
	assert.Empty(t, got.Notice)
}

func TestCorrelation_PairwiseComplete(t *testing.T) {
	got := Correlation(frame(t, "x,y,k\n1,,a\n2,4,b\n3,6,c\n4,8,d\n"))
	assert.InDelta(t, 1.0, *got.Values[0][1], 1e-12)
}

func TestCorrelation_ConstantColumnIsUndefined(t *testing.T) {
	got := Correlation(frame(t, "x,y\n1,5\n2,5\n3,5\n"))
	assert.Nil(t, got.Values[0][1])
	assert.Nil(t, got.Values[1][1])
}

func TestCorrelation_Notice(t *testing.T) {
	got := Correlation(frame(t, "x,s\n1,a\n2,b\n"))
	assert.Equal(t, NoticeNoCorrelation, got.Notice)
	assert.Empty(t, got.Columns)
}

func TestGroupRows(t *testing.T) {
	f := frame(t, "k,v\nb,1\na,2\n,3\na,4\n")
	k, _ := f.Column("k")

	groups := GroupRows(f, []*dataset.Column{k})
	require.Len(t, groups, 3)
	assert.Equal(t, Group{Keys: []string{"a"}, Rows: []int{1, 3}}, groups[0])
	assert.Equal(t, Group{Keys: []string{"b"}, Rows: []int{0}}, groups[1])
	assert.Equal(t, Group{Keys: []string{MissingLabel}, Rows: []int{2}}, groups[2])
}

func TestGroupRows_NumericKeysSortNumerically(t *testing.T) {
	f := frame(t, "k\n10\n9\n100\n")
	k, _ := f.Column("k")

	groups := GroupRows(f, []*dataset.Column{k})
	var keys []string
	for _, g := range groups {
		keys = append(keys, g.Keys[0])
	}
	assert.Equal(t, []string{"9", "10", "100"}, keys)
}

func TestAggregate(t *testing.T) {
	f := frame(t, "v,s\n1,a\n,b\n3,\n8,d\n")
	v, _ := f.Column("v")
	s, _ := f.Column("s")
	rows := []int{0, 1, 2, 3}

	assert.Equal(t, 3.0, Aggregate(v, rows, domain.AggCount))
	assert.Equal(t, 12.0, Aggregate(v, rows, domain.AggSum))
	assert.Equal(t, 4.0, Aggregate(v, rows, domain.AggMean))
	assert.Equal(t, 3.0, Aggregate(v, rows, domain.AggMedian))
	assert.Equal(t, 3.0, Aggregate(s, rows, domain.AggCount))
	assert.Equal(t, 0.0, Aggregate(v, []int{1}, domain.AggSum))
}
