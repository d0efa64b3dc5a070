package dataprocessing

import (
	"log/slog"
	"math"

	"dataexplorer/internal/dataset"
	"dataexplorer/pkg/contracts/domain"
)

// Cleaner applies cleaning steps to copies of a frame. The input frame is
// never modified.
type Cleaner struct {
	logger *slog.Logger
}

// NewCleaner creates a cleaner; a nil logger falls back to slog.Default
func NewCleaner(logger *slog.Logger) *Cleaner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cleaner{logger: logger.With("component", "cleaner")}
}

// Clean returns a cleaned copy of f and a report of the changes
func (c *Cleaner) Clean(f *dataset.Frame, opts domain.CleaningOptions) (*dataset.Frame, domain.CleaningReport) {
	report := domain.CleaningReport{RowsBefore: f.Len()}
	out := f.Clone()
	for _, step := range StepsFor(opts) {
		out = step.Apply(out, &report)
	}
	report.RowsAfter = out.Len()

	c.logger.Debug("frame cleaned",
		slog.String("dataset", f.Name),
		slog.Int("rows_before", report.RowsBefore),
		slog.Int("rows_after", report.RowsAfter),
		slog.Int("duplicates_removed", report.DuplicatesRemoved))
	return out, report
}

// DuplicateRemover drops rows equal to an earlier row, keeping the first
type DuplicateRemover struct{}

func (DuplicateRemover) Name() string { return "drop_duplicates" }

func (DuplicateRemover) Apply(f *dataset.Frame, report *domain.CleaningReport) *dataset.Frame {
	seen := make(map[string]struct{}, f.Len())
	keep := make([]int, 0, f.Len())
	for i := 0; i < f.Len(); i++ {
		key := f.RowKey(i)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keep = append(keep, i)
	}
	if len(keep) == f.Len() {
		return f
	}
	report.DuplicatesRemoved += f.Len() - len(keep)
	return f.Take(keep)
}

// MedianImputer fills missing numeric cells with the column median
type MedianImputer struct{}

func (MedianImputer) Name() string { return "impute_numeric" }

func (MedianImputer) Apply(f *dataset.Frame, report *domain.CleaningReport) *dataset.Frame {
	for _, col := range f.NumericColumns() {
		missing := col.MissingCount()
		if missing == 0 {
			continue
		}
		median := col.Median()
		if math.IsNaN(median) {
			continue
		}
		for i := 0; i < col.Len(); i++ {
			if col.IsNull(i) {
				col.SetFloat(i, median)
			}
		}
		if report.NumericFilled == nil {
			report.NumericFilled = make(map[string]int)
		}
		report.NumericFilled[col.Name] = missing
	}
	return f
}

// ModeImputer fills missing non-numeric cells with the column mode
type ModeImputer struct{}

func (ModeImputer) Name() string { return "impute_categorical" }

func (ModeImputer) Apply(f *dataset.Frame, report *domain.CleaningReport) *dataset.Frame {
	for _, col := range f.Columns {
		if col.IsNumeric() {
			continue
		}
		missing := col.MissingCount()
		if missing == 0 {
			continue
		}
		src, _, ok := col.Mode()
		if !ok {
			continue
		}
		for i := 0; i < col.Len(); i++ {
			if col.IsNull(i) {
				col.CopyCell(i, src)
			}
		}
		if report.CategoricalFilled == nil {
			report.CategoricalFilled = make(map[string]int)
		}
		report.CategoricalFilled[col.Name] = missing
	}
	return f
}
