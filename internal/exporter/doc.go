// Package exporter writes frames as CSV downloads and files.
//
// WriteFrame streams a header row followed by every row, using each column's
// canonical text (missing cells are empty). CSVWriter adds file handling for
// the command line tool, with an optional UTF-8 BOM for Excel.
//
// Example usage:
//
//	w.Header().Set("Content-Type", exporter.CSVContentType)
//	w.Header().Set("Content-Disposition", exporter.ContentDisposition(exporter.CleanedFileName(name)))
//	err := exporter.WriteFrame(w, cleaned, exporter.WriteOptions{})
package exporter
