package exporter

import (
	"fmt"
	"mime"
	"strings"

	"dataexplorer/internal/config"
)

// CSVContentType is the media type of every export
const CSVContentType = "text/csv"

// CleanedFileName names the cleaned export after the upload, dropping only
// the last extension: "sales.2024.xlsx" becomes "cleaned_sales.2024.csv".
func CleanedFileName(uploadName string) string {
	base := uploadName
	if i := strings.LastIndex(base, "."); i >= 0 {
		base = base[:i]
	}
	return fmt.Sprintf("%s%s.csv", config.CleanedExportPrefix, base)
}

// PCAFileName names the export of the display frame joined with PC1 and PC2
func PCAFileName() string {
	return config.PCAExportFileName
}

// ContentDisposition returns an attachment header value for filename
func ContentDisposition(filename string) string {
	return mime.FormatMediaType("attachment", map[string]string{"filename": filename})
}
