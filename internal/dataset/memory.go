package dataset

import (
	"unicode/utf8"

	"dataexplorer/pkg/contracts/domain"
)

const (
	rangeIndexBytes = 132
	pointerBytes    = 8
	floatObjBytes   = 24
	boolObjBytes    = 28
)

// MemoryUsage estimates the deep in-memory size of f in bytes the way a
// dataframe library would report it: fixed width for numeric, datetime and
// bool columns, and per-object sizes for object columns.
func (f *Frame) MemoryUsage() int64 {
	total := int64(rangeIndexBytes)
	for _, c := range f.Columns {
		total += c.memoryUsage()
	}
	return total
}

// MemoryMB returns MemoryUsage in MiB
func (f *Frame) MemoryMB() float64 {
	return float64(f.MemoryUsage()) / (1024 * 1024)
}

func (c *Column) memoryUsage() int64 {
	n := int64(c.Len())
	switch c.Kind {
	case domain.KindBool:
		return n
	case domain.KindInt64, domain.KindFloat64, domain.KindDatetime:
		return n * 8
	}
	total := n * pointerBytes
	for i, s := range c.Str {
		switch {
		case c.Null[i]:
			total += floatObjBytes
		case s == "True" || s == "False":
			total += boolObjBytes
		default:
			total += stringObjBytes(s)
		}
	}
	return total
}

// stringObjBytes sizes an interpreter string object by its widest code point
func stringObjBytes(s string) int64 {
	runes := int64(utf8.RuneCountInString(s))
	if runes == int64(len(s)) {
		return 49 + runes
	}
	widest := rune(0)
	for _, r := range s {
		if r > widest {
			widest = r
		}
	}
	switch {
	case widest < 0x100:
		return 73 + runes
	case widest < 0x10000:
		return 74 + 2*runes
	default:
		return 76 + 4*runes
	}
}
