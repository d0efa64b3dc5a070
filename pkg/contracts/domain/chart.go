package domain

// ChartKind selects the chart type
type ChartKind string

const (
	ChartBar     ChartKind = "bar"
	ChartLine    ChartKind = "line"
	ChartScatter ChartKind = "scatter"
	ChartBox     ChartKind = "box"
)

// Aggregation selects the group reducer for bar and line charts
type Aggregation string

const (
	AggCount  Aggregation = "count"
	AggSum    Aggregation = "sum"
	AggMean   Aggregation = "mean"
	AggMedian Aggregation = "median"
)

// Sentinel selector values
const (
	CountColumn = "(count)"
	NoColor     = "(none)"
)

// ChartSpec is the user's chart selection
type ChartSpec struct {
	X     string      `json:"x"`
	Y     string      `json:"y"`
	Color string      `json:"color"`
	Kind  ChartKind   `json:"kind"`
	Agg   Aggregation `json:"agg"`
}

// ChartPoint is one mark. XValue is set when the x column is numeric.
type ChartPoint struct {
	X      string   `json:"x"`
	XValue *float64 `json:"x_value,omitempty"`
	Y      *float64 `json:"y"`
}

// ChartSeries is one trace; Name is the color group or empty
type ChartSeries struct {
	Name   string       `json:"name"`
	Points []ChartPoint `json:"points"`
}

// BoxStats is the five-number summary of one box
type BoxStats struct {
	Series   string    `json:"series"`
	Category string    `json:"category"`
	Count    int       `json:"count"`
	Min      float64   `json:"min"`
	Q1       float64   `json:"q1"`
	Median   float64   `json:"median"`
	Q3       float64   `json:"q3"`
	Max      float64   `json:"max"`
	Values   []float64 `json:"-"`
}

// Chart is a built chart ready for JSON or rendering
type Chart struct {
	Spec   ChartSpec `json:"spec"`
	Title  string    `json:"title"`
	XLabel string    `json:"x_label"`
	YLabel string    `json:"y_label"`
	// Categories lists the x labels of categorical axes in plotting order
	Categories []string      `json:"categories,omitempty"`
	Series     []ChartSeries `json:"series,omitempty"`
	Boxes      []BoxStats    `json:"boxes,omitempty"`
	Notice     string        `json:"notice,omitempty"`
}
