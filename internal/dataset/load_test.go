package dataset

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"dataexplorer/internal/shared/testutil"
	"dataexplorer/pkg/contracts/domain"
)

func TestReadCSV_SampleTable(t *testing.T) {
	f, err := ReadCSV(strings.NewReader(testutil.SampleCSV))
	require.NoError(t, err)

	assert.Equal(t, 6, f.Len())
	assert.Equal(t, []string{"city", "temp", "visits", "active", "joined"}, f.Names())

	kinds := map[string]domain.ColumnKind{
		"city":   domain.KindObject,
		"temp":   domain.KindFloat64,
		"visits": domain.KindFloat64,
		"active": domain.KindBool,
		"joined": domain.KindDatetime,
	}
	for name, want := range kinds {
		col, ok := f.Column(name)
		require.True(t, ok, name)
		assert.Equal(t, want, col.Kind, name)
	}

	city, _ := f.Column("city")
	assert.Equal(t, 1, city.MissingCount())
	assert.True(t, city.IsNull(4))

	temp, _ := f.Column("temp")
	assert.Equal(t, "18.0", temp.Text(3))
	assert.Equal(t, "", temp.Text(1))

	visits, _ := f.Column("visits")
	assert.Equal(t, "3.0", visits.Text(0))

	assert.Equal(t, []string{"Paris", "12.5", "3.0", "True", "2024-01-05"}, f.Record(0))
}

func TestReadCSV_Inference(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantKind domain.ColumnKind
		missing  int
	}{
		{"integers", "a\n1\n2\n-3\n", domain.KindInt64, 0},
		{"integers with gap", "a,k\n1,x\n,y\n3,z\n", domain.KindFloat64, 1},
		{"floats", "a\n1.5\n2\n1e3\n", domain.KindFloat64, 0},
		{"missing tokens", "a\nNA\n1\nnull\nN/A\n", domain.KindFloat64, 3},
		{"booleans", "a\ntrue\nFALSE\nTrue\n", domain.KindBool, 0},
		{"booleans with gap", "a,k\ntrue,x\n,y\nfalse,z\n", domain.KindObject, 1},
		{"dates", "a\n2024-01-01\n2024-02-01\n", domain.KindDatetime, 0},
		{"slash dates", "a\n1/2/2024\n12/31/2024\n", domain.KindDatetime, 0},
		{"mixed", "a\n1\nfoo\n", domain.KindObject, 0},
		{"all missing", "a,b\n,1\n,2\n", domain.KindFloat64, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ReadCSV(strings.NewReader(tt.input))
			require.NoError(t, err)
			col := f.Columns[0]
			assert.Equal(t, tt.wantKind, col.Kind)
			assert.Equal(t, tt.missing, col.MissingCount())
		})
	}
}

func TestReadCSV_BooleansWithGapKeepCanonicalText(t *testing.T) {
	f, err := ReadCSV(strings.NewReader("a,k\ntrue,x\n,y\nFALSE,z\n"))
	require.NoError(t, err)

	col := f.Columns[0]
	assert.Equal(t, "True", col.Text(0))
	assert.Equal(t, "", col.Text(1))
	assert.Equal(t, "False", col.Text(2))
}

func TestReadCSV_Headers(t *testing.T) {
	f, err := ReadCSV(strings.NewReader("\xEF\xBB\xBFa,a,,a\n1,2,3,4\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "a.1", "Unnamed: 2", "a.2"}, f.Names())
}

func TestReadCSV_ShortRowsArePadded(t *testing.T) {
	f, err := ReadCSV(strings.NewReader("a,b\n1\n2,x\n"))
	require.NoError(t, err)

	b, ok := f.Column("b")
	require.True(t, ok)
	assert.True(t, b.IsNull(0))
	assert.Equal(t, "x", b.Text(1))
}

func TestReadCSV_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"no input", "", ErrNoColumns.Error()},
		{"long row", "a,b\n1,2,3\n", "expected 2 fields in line 2, saw 3"},
		{"bare quote", "a,b\n1,x\"y\n", "bare \""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestReadCSV_HeaderOnlyIsEmpty(t *testing.T) {
	f, err := ReadCSV(strings.NewReader("a,b\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, f.Len())
	assert.Equal(t, 2, f.Width())
	assert.True(t, f.Empty())
}

func TestReadExcel_StoredValues(t *testing.T) {
	wb := excelize.NewFile()
	defer wb.Close()

	rows := [][]interface{}{
		{"amount", "when", "flag", "id"},
		{1234.5, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), true, int64(1234567890123456789)},
		{98765.25, time.Date(2024, 2, 29, 13, 30, 0, 0, time.UTC), false, int64(9007199254740993)},
	}
	for r, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		require.NoError(t, err)
		require.NoError(t, wb.SetSheetRow("Sheet1", cell, &row))
	}
	thousands, err := wb.NewStyle(&excelize.Style{NumFmt: 4})
	require.NoError(t, err)
	require.NoError(t, wb.SetCellStyle("Sheet1", "A2", "A3", thousands))

	var buf bytes.Buffer
	require.NoError(t, wb.Write(&buf))

	f, err := ReadExcel(&buf, "")
	require.NoError(t, err)

	amount, _ := f.Column("amount")
	assert.Equal(t, domain.KindFloat64, amount.Kind)
	assert.Equal(t, []float64{1234.5, 98765.25}, amount.Floats())

	when, _ := f.Column("when")
	require.Equal(t, domain.KindDatetime, when.Kind)
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), when.Times[0])
	assert.Equal(t, time.Date(2024, 2, 29, 13, 30, 0, 0, time.UTC), when.Times[1])

	flag, _ := f.Column("flag")
	assert.Equal(t, domain.KindBool, flag.Kind)
	assert.Equal(t, "True", flag.Text(0))
	assert.Equal(t, "False", flag.Text(1))

	id, _ := f.Column("id")
	require.Equal(t, domain.KindInt64, id.Kind)
	assert.Equal(t, "1234567890123456789", id.Text(0))
	assert.Equal(t, "9007199254740993", id.Text(1))
}

func TestIsDateFormatCode(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"yyyy-mm-dd", true},
		{"[$-409]h:mm AM/PM", true},
		{"dd/mm/yyyy hh:mm:ss", true},
		{"#,##0.00", false},
		{`0.0 "days"`, false},
		{"[Red]#,##0", false},
		{"General", false},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, isDateFormatCode(tt.code))
		})
	}
}

func TestLoad_Excel(t *testing.T) {
	book := testutil.BuildWorkbook(t,
		testutil.Sheet{Name: "Data", Rows: [][]interface{}{
			{"name", "score"},
			{"x", 1.5},
			{"y", 2},
		}},
		testutil.Sheet{Name: "Other", Rows: [][]interface{}{
			{"k"},
			{"v"},
		}},
	)

	t.Run("first sheet by default", func(t *testing.T) {
		f, err := Load("book.xlsx", bytes.NewReader(book), "")
		require.NoError(t, err)
		assert.Equal(t, "book.xlsx", f.Name)
		assert.Equal(t, []string{"name", "score"}, f.Names())
		score, _ := f.Column("score")
		assert.Equal(t, domain.KindFloat64, score.Kind)
		assert.Equal(t, []float64{1.5, 2}, score.Floats())
	})

	t.Run("named sheet", func(t *testing.T) {
		f, err := Load("BOOK.XLSX", bytes.NewReader(book), "Other")
		require.NoError(t, err)
		assert.Equal(t, []string{"k"}, f.Names())
		assert.Equal(t, 1, f.Len())
	})

	t.Run("unknown sheet", func(t *testing.T) {
		_, err := Load("book.xlsx", bytes.NewReader(book), "Missing")
		require.ErrorIs(t, err, ErrUnknownSheet)
		assert.Contains(t, err.Error(), "Data, Other")
	})

	t.Run("legacy xls content", func(t *testing.T) {
		_, err := Load("old.xls", strings.NewReader("not a workbook"), "")
		require.Error(t, err)
	})
}

func TestFormatOf(t *testing.T) {
	assert.Equal(t, FormatExcel, FormatOf("a.xlsx"))
	assert.Equal(t, FormatExcel, FormatOf("A.XLS"))
	assert.Equal(t, FormatCSV, FormatOf("a.csv"))
	assert.Equal(t, FormatCSV, FormatOf("a.txt"))
}
