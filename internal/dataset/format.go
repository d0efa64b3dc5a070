package dataset

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// FormatFloat renders v with the shortest round-trip digits, always with a
// decimal point in positional form, and in exponent form outside
// [1e-4, 1e16).
func FormatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	if v == 0 {
		if math.Signbit(v) {
			return "-0.0"
		}
		return "0.0"
	}
	abs := math.Abs(v)
	if abs >= 1e16 || abs < 1e-4 {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

func formatInt(v float64) string {
	return strconv.FormatInt(int64(v), 10)
}

func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

func formatTime(t time.Time, dateOnly bool) string {
	if dateOnly {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02 15:04:05.999999999")
}

// FormatTimestamp renders t with full date and time
func FormatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05.999999999")
}
