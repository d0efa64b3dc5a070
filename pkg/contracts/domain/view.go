package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// View is the whole dashboard computed for one settings snapshot
type View struct {
	Dataset     DatasetInfo       `json:"dataset"`
	Settings    ViewSettings      `json:"settings"`
	Summary     Summary           `json:"summary"`
	Cleaning    CleaningReport    `json:"cleaning"`
	Preview     Preview           `json:"preview"`
	Schema      []ColumnSchema    `json:"schema"`
	Missing     MissingReport     `json:"missing"`
	Describe    []ColumnSummary   `json:"describe"`
	Correlation CorrelationMatrix `json:"correlation"`
	PCA         *PCAResult        `json:"pca,omitempty"`
}

func pcLabel(i int, pct float64) string {
	return fmt.Sprintf("PC%d (%s%%)", i+1, FormatPercent(pct))
}

// FormatPercent prints a rounded percentage the way the dashboard shows it:
// shortest form, always with a decimal point ("50.0", "43.21").
func FormatPercent(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".NI") {
		s += ".0"
	}
	return s
}
