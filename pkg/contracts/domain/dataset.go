// Package domain holds the data transfer types shared by the explorer
// service, its HTTP and WebSocket transports and the CLI.
package domain

import "time"

// ColumnKind is the inferred storage type of a column, reported as a dtype string
type ColumnKind string

const (
	KindInt64    ColumnKind = "int64"
	KindFloat64  ColumnKind = "float64"
	KindBool     ColumnKind = "bool"
	KindDatetime ColumnKind = "datetime64[ns]"
	KindObject   ColumnKind = "object"
)

// IsNumeric reports whether the kind takes part in numeric statistics
func (k ColumnKind) IsNumeric() bool {
	return k == KindInt64 || k == KindFloat64
}

// DatasetInfo describes one uploaded dataset
type DatasetInfo struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Sheet       string    `json:"sheet,omitempty"`
	Format      string    `json:"format"`
	Rows        int       `json:"rows"`
	Columns     int       `json:"columns"`
	MemoryBytes int64     `json:"memory_bytes"`
	MemoryMB    float64   `json:"memory_mb"`
	SizeBytes   int64     `json:"size_bytes"`
	UploadedAt  time.Time `json:"uploaded_at"`
	ExpiresAt   time.Time `json:"expires_at"`
	Message     string    `json:"message"`
}

// CleaningOptions toggles the cleaning steps applied to display and export copies
type CleaningOptions struct {
	DropDuplicates    bool `json:"drop_duplicates"`
	ImputeNumeric     bool `json:"impute_numeric"`
	ImputeCategorical bool `json:"impute_categorical"`
}

// DefaultCleaningOptions enables every cleaning step
func DefaultCleaningOptions() CleaningOptions {
	return CleaningOptions{
		DropDuplicates:    true,
		ImputeNumeric:     true,
		ImputeCategorical: true,
	}
}

// ViewSettings are the per-interaction inputs of the pipeline
type ViewSettings struct {
	Cleaning   CleaningOptions `json:"cleaning"`
	SampleRows int             `json:"sample_rows"`
}

// DefaultViewSettings returns all cleaning on and no sampling
func DefaultViewSettings() ViewSettings {
	return ViewSettings{Cleaning: DefaultCleaningOptions()}
}

// CleaningReport summarizes what cleaning changed
type CleaningReport struct {
	RowsBefore        int            `json:"rows_before"`
	RowsAfter         int            `json:"rows_after"`
	DuplicatesRemoved int            `json:"duplicates_removed"`
	NumericFilled     map[string]int `json:"numeric_filled,omitempty"`
	CategoricalFilled map[string]int `json:"categorical_filled,omitempty"`
}

// Summary is the KPI strip shown above every view
type Summary struct {
	Rows        int     `json:"rows"`
	Columns     int     `json:"columns"`
	MemoryMB    float64 `json:"memory_mb"`
	Sampled     bool    `json:"sampled"`
	DisplayRows int     `json:"display_rows"`
}

// Preview is the head of the cleaned display frame. Cells are nil for
// missing values, numbers for numeric and bool columns and strings otherwise.
type Preview struct {
	Columns   []string        `json:"columns"`
	Rows      [][]interface{} `json:"rows"`
	Shown     int             `json:"shown"`
	TotalRows int             `json:"total_rows"`
	Sampled   bool            `json:"sampled"`
	Caption   string          `json:"caption"`
}
