package analytics

import (
	"sort"

	"dataexplorer/internal/dataset"
	"dataexplorer/pkg/contracts/domain"
)

// Schema lists every column with its dtype
func Schema(f *dataset.Frame) []domain.ColumnSchema {
	out := make([]domain.ColumnSchema, len(f.Columns))
	for i, c := range f.Columns {
		out[i] = domain.ColumnSchema{Column: c.Name, Dtype: c.Kind}
	}
	return out
}

// Missing reports columns with missing cells, highest share first. Columns
// with equal shares keep frame order.
func Missing(f *dataset.Frame) domain.MissingReport {
	report := domain.MissingReport{Columns: []domain.MissingEntry{}}
	n := f.Len()
	if n > 0 {
		for _, c := range f.Columns {
			count := c.MissingCount()
			if count == 0 {
				continue
			}
			report.Columns = append(report.Columns, domain.MissingEntry{
				Column:       c.Name,
				MissingCount: count,
				MissingPct:   Round2(float64(count) / float64(n) * 100),
			})
		}
	}
	sort.SliceStable(report.Columns, func(i, j int) bool {
		return report.Columns[i].MissingPct > report.Columns[j].MissingPct
	})
	if len(report.Columns) == 0 {
		report.Notice = NoticeNoMissing
	}
	return report
}
