package domain

// ColumnSchema pairs a column with its dtype
type ColumnSchema struct {
	Column string     `json:"column"`
	Dtype  ColumnKind `json:"dtype"`
}

// MissingEntry reports missingness of one column
type MissingEntry struct {
	Column       string  `json:"column"`
	MissingCount int     `json:"missing_count"`
	MissingPct   float64 `json:"missing_pct"`
}

// MissingReport lists columns with missing values, worst first
type MissingReport struct {
	Columns []MissingEntry `json:"columns"`
	Notice  string         `json:"notice,omitempty"`
}

// DatetimeSummary holds describe statistics of a datetime column
type DatetimeSummary struct {
	Mean string `json:"mean"`
	Min  string `json:"min"`
	P25  string `json:"25%"`
	P50  string `json:"50%"`
	P75  string `json:"75%"`
	Max  string `json:"max"`
}

// ColumnSummary is one column of describe(include="all"). Statistics that do
// not apply to the column kind are nil.
type ColumnSummary struct {
	Column    string           `json:"column"`
	Dtype     ColumnKind       `json:"dtype"`
	Count     int              `json:"count"`
	Unique    *int             `json:"unique"`
	Top       *string          `json:"top"`
	Freq      *int             `json:"freq"`
	Mean      *float64         `json:"mean"`
	Std       *float64         `json:"std"`
	Min       *float64         `json:"min"`
	P25       *float64         `json:"25%"`
	P50       *float64         `json:"50%"`
	P75       *float64         `json:"75%"`
	Max       *float64         `json:"max"`
	Datetimes *DatetimeSummary `json:"datetimes,omitempty"`
}

// CorrelationMatrix is a Pearson matrix over numeric columns. Undefined
// coefficients are nil.
type CorrelationMatrix struct {
	Columns []string     `json:"columns"`
	Values  [][]*float64 `json:"values"`
	Notice  string       `json:"notice,omitempty"`
}
