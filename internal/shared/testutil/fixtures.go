package testutil

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"
)

// Sheet is one worksheet of a test workbook; the first row is the header
type Sheet struct {
	Name string
	Rows [][]interface{}
}

// BuildWorkbook renders sheets into XLSX bytes
func BuildWorkbook(t *testing.T, sheets ...Sheet) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet.Name); err != nil {
				t.Fatalf("rename sheet: %v", err)
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			t.Fatalf("new sheet: %v", err)
		}
		for r, row := range sheet.Rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetSheetRow(sheet.Name, cell, &row); err != nil {
				t.Fatalf("set row: %v", err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

// SampleCSV is a small mixed-type table with one duplicate row and gaps
const SampleCSV = `city,temp,visits,active,joined
Paris,12.5,3,true,2024-01-05
Lyon,,5,false,2024-02-11
Paris,12.5,3,true,2024-01-05
Nice,18,,true,2024-03-20
,9.5,7,false,
Lyon,14,2,true,2024-04-01
`
