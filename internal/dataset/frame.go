// Package dataset holds the in-memory tabular model: frames of typed columns
// with per-cell missingness, plus CSV and XLSX ingestion.
package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"dataexplorer/pkg/contracts/domain"
)

// Column is one named, typed column. Num holds int64, float64 and bool
// kinds, Times datetimes and Str objects. Int64 columns also keep the exact
// values in Ints, which text, identity and ordering use. Null marks missing
// cells in every kind.
type Column struct {
	Name  string
	Kind  domain.ColumnKind
	Num   []float64
	Ints  []int64
	Times []time.Time
	Str   []string
	Null  []bool
}

// Len returns the number of cells
func (c *Column) Len() int {
	return len(c.Null)
}

// IsNull reports whether cell i is missing
func (c *Column) IsNull(i int) bool {
	return c.Null[i]
}

// MissingCount returns the number of missing cells
func (c *Column) MissingCount() int {
	n := 0
	for _, null := range c.Null {
		if null {
			n++
		}
	}
	return n
}

// IsNumeric reports whether the column is int64 or float64
func (c *Column) IsNumeric() bool {
	return c.Kind.IsNumeric()
}

// Float returns the numeric value of cell i. It is false for missing cells
// and for non-numeric kinds other than bool.
func (c *Column) Float(i int) (float64, bool) {
	if c.Null[i] || c.Num == nil {
		return math.NaN(), false
	}
	return c.Num[i], true
}

// Floats returns the non-missing numeric values in row order
func (c *Column) Floats() []float64 {
	if c.Num == nil {
		return nil
	}
	out := make([]float64, 0, len(c.Num))
	for i, v := range c.Num {
		if !c.Null[i] {
			out = append(out, v)
		}
	}
	return out
}

// Text returns the canonical text of cell i, empty for missing cells.
// This is the form written to CSV exports.
func (c *Column) Text(i int) string {
	if c.Null[i] {
		return ""
	}
	switch c.Kind {
	case domain.KindInt64:
		return c.intText(i)
	case domain.KindFloat64:
		return FormatFloat(c.Num[i])
	case domain.KindBool:
		return formatBool(c.Num[i] != 0)
	case domain.KindDatetime:
		return formatTime(c.Times[i], c.dateOnly())
	default:
		return c.Str[i]
	}
}

// Value returns cell i as a JSON-friendly value: nil, int64, float64, bool or string
func (c *Column) Value(i int) interface{} {
	if c.Null[i] {
		return nil
	}
	switch c.Kind {
	case domain.KindInt64:
		if c.Ints != nil {
			return c.Ints[i]
		}
		return int64(c.Num[i])
	case domain.KindFloat64:
		v := c.Num[i]
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return FormatFloat(v)
		}
		return v
	case domain.KindBool:
		return c.Num[i] != 0
	case domain.KindDatetime:
		return formatTime(c.Times[i], c.dateOnly())
	default:
		return c.Str[i]
	}
}

// Less orders two non-missing cells: numerically, chronologically or lexically
func (c *Column) Less(i, j int) bool {
	switch {
	case c.Ints != nil:
		return c.Ints[i] < c.Ints[j]
	case c.Num != nil:
		return c.Num[i] < c.Num[j]
	case c.Times != nil:
		return c.Times[i].Before(c.Times[j])
	default:
		return c.Str[i] < c.Str[j]
	}
}

// Equal reports whether two cells hold the same value; missing equals missing
func (c *Column) Equal(i, j int) bool {
	if c.Null[i] || c.Null[j] {
		return c.Null[i] == c.Null[j]
	}
	switch {
	case c.Ints != nil:
		return c.Ints[i] == c.Ints[j]
	case c.Num != nil:
		return c.Num[i] == c.Num[j]
	case c.Times != nil:
		return c.Times[i].Equal(c.Times[j])
	default:
		return c.Str[i] == c.Str[j]
	}
}

// key returns a string identity of present cell i for hashing
func (c *Column) key(i int) string {
	switch {
	case c.Ints != nil:
		return strconv.FormatInt(c.Ints[i], 10)
	case c.Num != nil:
		v := c.Num[i]
		if v == 0 {
			// -0 and 0 are the same value
			v = 0
		}
		return FormatFloat(v)
	case c.Times != nil:
		return strconv.FormatInt(c.Times[i].UnixNano(), 10)
	default:
		return c.Str[i]
	}
}

// SetFloat stores v in cell i and clears its missing flag
func (c *Column) SetFloat(i int, v float64) {
	c.Num[i] = v
	if c.Ints != nil {
		c.Ints[i] = int64(v)
	}
	c.Null[i] = false
}

func (c *Column) intText(i int) string {
	if c.Ints != nil {
		return strconv.FormatInt(c.Ints[i], 10)
	}
	return formatInt(c.Num[i])
}

// CopyCell copies cell src of the same column into cell dst
func (c *Column) CopyCell(dst, src int) {
	switch {
	case c.Num != nil:
		c.Num[dst] = c.Num[src]
		if c.Ints != nil {
			c.Ints[dst] = c.Ints[src]
		}
	case c.Times != nil:
		c.Times[dst] = c.Times[src]
	default:
		c.Str[dst] = c.Str[src]
	}
	c.Null[dst] = c.Null[src]
}

// Clone returns a deep copy
func (c *Column) Clone() *Column {
	out := &Column{Name: c.Name, Kind: c.Kind, Null: append([]bool(nil), c.Null...)}
	if c.Num != nil {
		out.Num = append([]float64(nil), c.Num...)
	}
	if c.Ints != nil {
		out.Ints = append([]int64(nil), c.Ints...)
	}
	if c.Times != nil {
		out.Times = append([]time.Time(nil), c.Times...)
	}
	if c.Str != nil {
		out.Str = append([]string(nil), c.Str...)
	}
	return out
}

// Take returns a new column holding the given rows in order
func (c *Column) Take(rows []int) *Column {
	out := &Column{Name: c.Name, Kind: c.Kind, Null: make([]bool, len(rows))}
	if c.Num != nil {
		out.Num = make([]float64, len(rows))
	}
	if c.Ints != nil {
		out.Ints = make([]int64, len(rows))
	}
	if c.Times != nil {
		out.Times = make([]time.Time, len(rows))
	}
	if c.Str != nil {
		out.Str = make([]string, len(rows))
	}
	for k, i := range rows {
		out.Null[k] = c.Null[i]
		switch {
		case c.Num != nil:
			out.Num[k] = c.Num[i]
			if c.Ints != nil {
				out.Ints[k] = c.Ints[i]
			}
		case c.Times != nil:
			out.Times[k] = c.Times[i]
		default:
			out.Str[k] = c.Str[i]
		}
	}
	return out
}

// dateOnly reports whether every present timestamp is at midnight
func (c *Column) dateOnly() bool {
	for i, t := range c.Times {
		if c.Null[i] {
			continue
		}
		if t.Hour() != 0 || t.Minute() != 0 || t.Second() != 0 || t.Nanosecond() != 0 {
			return false
		}
	}
	return true
}

// NewFloatColumn builds a float64 column; NaN values are recorded as missing
func NewFloatColumn(name string, values []float64) *Column {
	c := &Column{Name: name, Kind: domain.KindFloat64, Num: append([]float64(nil), values...), Null: make([]bool, len(values))}
	for i, v := range values {
		if math.IsNaN(v) {
			c.Null[i] = true
		}
	}
	return c
}

// NewObjectColumn builds an object column; nil entries are missing
func NewObjectColumn(name string, values []*string) *Column {
	c := &Column{Name: name, Kind: domain.KindObject, Str: make([]string, len(values)), Null: make([]bool, len(values))}
	for i, v := range values {
		if v == nil {
			c.Null[i] = true
			continue
		}
		c.Str[i] = *v
	}
	return c
}

// Frame is an ordered set of equally long columns
type Frame struct {
	Name    string
	Columns []*Column
	rows    int
}

// NewFrame validates column lengths and name uniqueness
func NewFrame(name string, columns []*Column) (*Frame, error) {
	f := &Frame{Name: name, Columns: columns}
	seen := make(map[string]struct{}, len(columns))
	for i, c := range columns {
		if i == 0 {
			f.rows = c.Len()
		} else if c.Len() != f.rows {
			return nil, fmt.Errorf("column %q has %d rows, expected %d", c.Name, c.Len(), f.rows)
		}
		if _, dup := seen[c.Name]; dup {
			return nil, fmt.Errorf("duplicate column name %q", c.Name)
		}
		seen[c.Name] = struct{}{}
	}
	return f, nil
}

// MustFrame is NewFrame for static inputs; it panics on invalid columns
func MustFrame(name string, columns ...*Column) *Frame {
	f, err := NewFrame(name, columns)
	if err != nil {
		panic(err)
	}
	return f
}

// Len returns the number of rows
func (f *Frame) Len() int {
	return f.rows
}

// Width returns the number of columns
func (f *Frame) Width() int {
	return len(f.Columns)
}

// Empty reports a frame with no rows or no columns
func (f *Frame) Empty() bool {
	return f.rows == 0 || len(f.Columns) == 0
}

// Names returns the column names in order
func (f *Frame) Names() []string {
	names := make([]string, len(f.Columns))
	for i, c := range f.Columns {
		names[i] = c.Name
	}
	return names
}

// Column looks a column up by name
func (f *Frame) Column(name string) (*Column, bool) {
	for _, c := range f.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// NumericColumns returns the int64 and float64 columns in order
func (f *Frame) NumericColumns() []*Column {
	var out []*Column
	for _, c := range f.Columns {
		if c.IsNumeric() {
			out = append(out, c)
		}
	}
	return out
}

// Record returns the canonical text of row i
func (f *Frame) Record(i int) []string {
	rec := make([]string, len(f.Columns))
	for j, c := range f.Columns {
		rec[j] = c.Text(i)
	}
	return rec
}

// RowKey returns an identity string of row i. Each cell key is length
// prefixed and missing cells are a bare '-', so rows share a key exactly
// when every cell is equal.
func (f *Frame) RowKey(i int) string {
	var b strings.Builder
	for _, c := range f.Columns {
		if c.Null[i] {
			b.WriteByte('-')
			continue
		}
		k := c.key(i)
		b.WriteString(strconv.Itoa(len(k)))
		b.WriteByte(':')
		b.WriteString(k)
	}
	return b.String()
}

// Take returns a new frame holding the given rows in order
func (f *Frame) Take(rows []int) *Frame {
	cols := make([]*Column, len(f.Columns))
	for j, c := range f.Columns {
		cols[j] = c.Take(rows)
	}
	return &Frame{Name: f.Name, Columns: cols, rows: len(rows)}
}

// Head returns the first n rows
func (f *Frame) Head(n int) *Frame {
	if n >= f.rows {
		return f
	}
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	return f.Take(rows)
}

// Clone returns a deep copy
func (f *Frame) Clone() *Frame {
	cols := make([]*Column, len(f.Columns))
	for j, c := range f.Columns {
		cols[j] = c.Clone()
	}
	return &Frame{Name: f.Name, Columns: cols, rows: f.rows}
}

// WithColumns returns a shallow copy with extra columns appended. An extra
// column replaces an existing one with the same name.
func (f *Frame) WithColumns(extra ...*Column) (*Frame, error) {
	cols := make([]*Column, 0, len(f.Columns)+len(extra))
	replaced := make(map[string]bool, len(extra))
	for _, c := range f.Columns {
		found := false
		for _, e := range extra {
			if e.Name == c.Name {
				cols = append(cols, e)
				replaced[e.Name] = true
				found = true
				break
			}
		}
		if !found {
			cols = append(cols, c)
		}
	}
	for _, e := range extra {
		if !replaced[e.Name] {
			cols = append(cols, e)
		}
	}
	out, err := NewFrame(f.Name, cols)
	if err != nil {
		return nil, err
	}
	if len(cols) > 0 && out.rows != f.rows && len(f.Columns) > 0 {
		return nil, fmt.Errorf("extra columns have %d rows, frame has %d", out.rows, f.rows)
	}
	return out, nil
}
