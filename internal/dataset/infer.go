package dataset

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"dataexplorer/pkg/contracts/domain"
)

// missingTokens are cell values read as missing
var missingTokens = map[string]struct{}{
	"":         {},
	"#N/A":     {},
	"#N/A N/A": {},
	"#NA":      {},
	"-1.#IND":  {},
	"-1.#QNAN": {},
	"-NaN":     {},
	"-nan":     {},
	"1.#IND":   {},
	"1.#QNAN":  {},
	"<NA>":     {},
	"N/A":      {},
	"NA":       {},
	"NULL":     {},
	"NaN":      {},
	"None":     {},
	"n/a":      {},
	"nan":      {},
	"null":     {},
}

// IsMissingToken reports whether s is read as a missing cell
func IsMissingToken(s string) bool {
	_, ok := missingTokens[s]
	return ok
}

// timeLayouts are tried in order; every non-missing cell of a column must
// parse with the same layout for the column to become a datetime.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006/01/02",
	"2006/01/02 15:04:05",
	"01/02/2006",
	"1/2/2006",
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
	"01-02-06",
	"01-02-06 15:04",
	"1/2/06",
	"1/2/06 15:04",
	"02-Jan-2006",
	"Jan 2, 2006",
}

// Infer builds a typed column from raw cell text
func Infer(name string, raw []string) *Column {
	n := len(raw)
	null := make([]bool, n)
	present := 0
	for i, s := range raw {
		if IsMissingToken(s) {
			null[i] = true
		} else {
			present++
		}
	}

	if present == 0 {
		return &Column{Name: name, Kind: domain.KindFloat64, Num: make([]float64, n), Null: null}
	}

	if ints, ok := parseInts(raw, null); ok {
		nums := make([]float64, n)
		for i, v := range ints {
			nums[i] = float64(v)
		}
		if present < n {
			return &Column{Name: name, Kind: domain.KindFloat64, Num: nums, Null: null}
		}
		return &Column{Name: name, Kind: domain.KindInt64, Num: nums, Ints: ints, Null: null}
	}
	if nums, ok := parseFloats(raw, null); ok {
		return &Column{Name: name, Kind: domain.KindFloat64, Num: nums, Null: null}
	}
	if nums, ok := parseBools(raw, null); ok {
		if present == n {
			return &Column{Name: name, Kind: domain.KindBool, Num: nums, Null: null}
		}
		// booleans with gaps are kept as objects holding True/False
		str := make([]string, n)
		for i, v := range nums {
			if !null[i] {
				str[i] = formatBool(v != 0)
			}
		}
		return &Column{Name: name, Kind: domain.KindObject, Str: str, Null: null}
	}
	if times, ok := parseTimes(raw, null); ok {
		return &Column{Name: name, Kind: domain.KindDatetime, Times: times, Null: null}
	}

	str := make([]string, n)
	for i, s := range raw {
		if !null[i] {
			str[i] = s
		}
	}
	return &Column{Name: name, Kind: domain.KindObject, Str: str, Null: null}
}

func parseInts(raw []string, null []bool) ([]int64, bool) {
	out := make([]int64, len(raw))
	for i, s := range raw {
		if null[i] {
			continue
		}
		v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

func parseFloats(raw []string, null []bool) ([]float64, bool) {
	out := make([]float64, len(raw))
	for i, s := range raw {
		if null[i] {
			continue
		}
		v, err := parseNumber(s)
		if err != nil {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

// parseNumber accepts decimal and exponent notation but not Go-only forms
// such as hex floats or underscores.
func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if strings.ContainsAny(s, "_xXpP") {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	return strconv.ParseFloat(s, 64)
}

func parseBools(raw []string, null []bool) ([]float64, bool) {
	out := make([]float64, len(raw))
	for i, s := range raw {
		if null[i] {
			continue
		}
		switch {
		case strings.EqualFold(strings.TrimSpace(s), "true"):
			out[i] = 1
		case strings.EqualFold(strings.TrimSpace(s), "false"):
			out[i] = 0
		default:
			return nil, false
		}
	}
	return out, true
}

func parseTimes(raw []string, null []bool) ([]time.Time, bool) {
	first := -1
	for i := range raw {
		if !null[i] {
			first = i
			break
		}
	}
	sample := strings.TrimSpace(raw[first])
	for _, layout := range timeLayouts {
		if _, err := time.Parse(layout, sample); err != nil {
			continue
		}
		if times, ok := parseTimesWith(layout, raw, null); ok {
			return times, true
		}
	}
	return nil, false
}

func parseTimesWith(layout string, raw []string, null []bool) ([]time.Time, bool) {
	out := make([]time.Time, len(raw))
	for i, s := range raw {
		if null[i] {
			continue
		}
		t, err := time.Parse(layout, strings.TrimSpace(s))
		if err != nil {
			return nil, false
		}
		out[i] = t.UTC()
	}
	return out, true
}
