package domain

// PCAOptions are the PCA inputs
type PCAOptions struct {
	Components  int  `json:"components"`
	Standardize bool `json:"standardize"`
}

// PCAPoint is one projected row of the display frame
type PCAPoint struct {
	Row int     `json:"row"`
	PC1 float64 `json:"pc1"`
	PC2 float64 `json:"pc2"`
}

// PCAResult is a fitted projection. ExplainedVariance holds percentages
// rounded to two decimals, one per component.
type PCAResult struct {
	Features          []string    `json:"features"`
	Components        int         `json:"components"`
	Standardized      bool        `json:"standardized"`
	RowsUsed          int         `json:"rows_used"`
	RowsDropped       int         `json:"rows_dropped"`
	ExplainedVariance []float64   `json:"explained_variance_pct"`
	Loadings          [][]float64 `json:"loadings"`
	Points            []PCAPoint  `json:"points,omitempty"`
	Message           string      `json:"message,omitempty"`
	Notice            string      `json:"notice,omitempty"`

	// Scores holds every component per used row, aligned with Rows
	Scores [][]float64 `json:"-"`
	Rows   []int       `json:"-"`
}

// TopExplained returns the explained variance of at most the first three components
func (r *PCAResult) TopExplained() []float64 {
	if len(r.ExplainedVariance) <= 3 {
		return r.ExplainedVariance
	}
	return r.ExplainedVariance[:3]
}

// AxisLabel returns "PCn (x%)" for the zero-based component i
func (r *PCAResult) AxisLabel(i int) string {
	if i < 0 || i >= len(r.ExplainedVariance) {
		return ""
	}
	return pcLabel(i, r.ExplainedVariance[i])
}
