package dataprocessing

import (
	"dataexplorer/internal/dataset"
	"dataexplorer/pkg/contracts/domain"
)

// Step is one cleaning transformation. Apply mutates f in place and records
// what it changed in report.
type Step interface {
	Name() string
	Apply(f *dataset.Frame, report *domain.CleaningReport) *dataset.Frame
}

// StepsFor returns the enabled steps in application order: deduplication
// first, then numeric and categorical imputation.
func StepsFor(opts domain.CleaningOptions) []Step {
	var steps []Step
	if opts.DropDuplicates {
		steps = append(steps, DuplicateRemover{})
	}
	if opts.ImputeNumeric {
		steps = append(steps, MedianImputer{})
	}
	if opts.ImputeCategorical {
		steps = append(steps, ModeImputer{})
	}
	return steps
}
