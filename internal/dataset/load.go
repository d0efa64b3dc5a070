package dataset

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Format is the reader chosen for an upload
type Format string

const (
	FormatCSV   Format = "csv"
	FormatExcel Format = "excel"
)

var (
	// ErrNoColumns is returned for input without a header row
	ErrNoColumns = errors.New("no columns to parse from file")
	// ErrUnknownSheet is returned when the requested worksheet does not exist
	ErrUnknownSheet = errors.New("worksheet not found")
)

// FormatOf picks the reader by file extension: .xls and .xlsx are read as
// spreadsheets, everything else as CSV.
func FormatOf(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xls", ".xlsx":
		return FormatExcel
	default:
		return FormatCSV
	}
}

// Load reads an upload into a frame. sheet selects a worksheet for
// spreadsheets; empty means the first sheet.
func Load(name string, r io.Reader, sheet string) (*Frame, error) {
	var (
		f   *Frame
		err error
	)
	switch FormatOf(name) {
	case FormatExcel:
		f, err = ReadExcel(r, sheet)
	default:
		f, err = ReadCSV(r)
	}
	if err != nil {
		return nil, err
	}
	f.Name = filepath.Base(name)
	return f, nil
}

// LoadFile opens path and reads it with Load
func LoadFile(path, sheet string) (*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return Load(path, bufio.NewReader(file), sheet)
}

// ReadCSV reads comma-separated text with a header row
func ReadCSV(r io.Reader) (*Frame, error) {
	reader := csv.NewReader(skipBOM(r))
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = false

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoColumns
	}
	if err != nil {
		return nil, err
	}

	var rows [][]string
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(rec) > len(header) {
			line, _ := reader.FieldPos(0)
			return nil, fmt.Errorf("error tokenizing data: expected %d fields in line %d, saw %d", len(header), line, len(rec))
		}
		rows = append(rows, rec)
	}
	return build(header, rows)
}

// ReadExcel reads one worksheet of an XLSX workbook; the first row is the header
func ReadExcel(r io.Reader, sheet string) (*Frame, error) {
	wb, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("not a readable xlsx workbook: %w", err)
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoColumns
	}
	if sheet == "" {
		sheet = sheets[0]
	} else if idx, _ := wb.GetSheetIndex(sheet); idx < 0 {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownSheet, sheet, strings.Join(sheets, ", "))
	}

	rows, err := readSheet(wb, sheet)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoColumns
	}

	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	header := rows[0]
	for len(header) < width {
		header = append(header, "")
	}
	body := rows[1:]
	// trailing blank rows carry no data
	for len(body) > 0 && blank(body[len(body)-1]) {
		body = body[:len(body)-1]
	}
	return build(header, body)
}

// readSheet returns the stored cell values of a worksheet rather than their
// displayed form, so number formats never cost precision. Serials under a
// date format become timestamps and booleans read TRUE or FALSE.
func readSheet(wb *excelize.File, sheet string) ([][]string, error) {
	rows, err := wb.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}
	shown, err := wb.GetRows(sheet)
	if err != nil {
		return nil, err
	}

	date1904 := false
	if props, err := wb.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}
	dateStyles := make(map[int]bool)

	for r, row := range rows {
		for c, raw := range row {
			if r >= len(shown) || c >= len(shown[r]) || shown[r][c] == raw {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, err
			}
			typ, err := wb.GetCellType(sheet, cell)
			if err != nil {
				return nil, err
			}
			switch typ {
			case excelize.CellTypeBool:
				row[c] = shown[r][c]
			case excelize.CellTypeUnset, excelize.CellTypeNumber:
				styleID, err := wb.GetCellStyle(sheet, cell)
				if err != nil {
					return nil, err
				}
				isDate, ok := dateStyles[styleID]
				if !ok {
					isDate = isDateStyle(wb, styleID)
					dateStyles[styleID] = isDate
				}
				if !isDate {
					continue
				}
				serial, err := strconv.ParseFloat(raw, 64)
				if err != nil {
					continue
				}
				if t, err := excelize.ExcelDateToTime(serial, date1904); err == nil {
					row[c] = t.Format("2006-01-02 15:04:05")
				}
			}
		}
	}
	return rows, nil
}

// isDateStyle reports whether a cell style displays numbers as dates or times
func isDateStyle(wb *excelize.File, styleID int) bool {
	style, err := wb.GetStyle(styleID)
	if err != nil || style == nil {
		return false
	}
	if style.CustomNumFmt != nil {
		return isDateFormatCode(*style.CustomNumFmt)
	}
	id := style.NumFmt
	return (id >= 14 && id <= 22) || (id >= 27 && id <= 36) || (id >= 45 && id <= 47) || (id >= 50 && id <= 58)
}

// isDateFormatCode looks for date or time tokens outside quoted literals,
// bracketed sections and escaped characters
func isDateFormatCode(code string) bool {
	var b strings.Builder
	quoted, bracket := false, false
	for i := 0; i < len(code); i++ {
		ch := code[i]
		switch {
		case quoted:
			quoted = ch != '"'
		case bracket:
			bracket = ch != ']'
		case ch == '"':
			quoted = true
		case ch == '[':
			bracket = true
		case ch == '\\' || ch == '_' || ch == '*':
			i++
		default:
			b.WriteByte(ch)
		}
	}
	rest := strings.ToLower(b.String())
	if rest == "general" {
		return false
	}
	return strings.ContainsAny(rest, "dymhs")
}

func build(header []string, rows [][]string) (*Frame, error) {
	names := headerNames(header)
	cols := make([]*Column, len(names))
	raw := make([]string, len(rows))
	for j, name := range names {
		for i, rec := range rows {
			if j < len(rec) {
				raw[i] = rec[j]
			} else {
				raw[i] = ""
			}
		}
		cols[j] = Infer(name, raw)
	}
	f, err := NewFrame("", cols)
	if err != nil {
		return nil, err
	}
	f.rows = len(rows)
	return f, nil
}

// headerNames fills blank headers and suffixes duplicates with .1, .2, ...
func headerNames(header []string) []string {
	names := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		if strings.TrimSpace(h) == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		name := h
		if _, dup := seen[name]; dup {
			k := seen[h]
			for {
				k++
				name = fmt.Sprintf("%s.%d", h, k)
				if _, taken := seen[name]; !taken {
					break
				}
			}
			seen[h] = k
		}
		seen[name] = 0
		names[i] = name
	}
	return names
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}
