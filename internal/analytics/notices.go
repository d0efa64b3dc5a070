package analytics

import "math"

// Informational notices returned in place of a result
const (
	NoticeNoMissing       = "No missing values in the (sampled) data."
	NoticeNoCorrelation   = "Not enough numeric columns for a correlation heatmap."
	NoticePCAPrecondition = "Need at least 2 numeric columns and 2 rows after NA drop for PCA."
	NoticeNoRows          = "No rows to show for the current selection."
)

// Round2 rounds to two decimals, ties to even
func Round2(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}

// ptr returns nil for values JSON cannot carry
func ptr(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
