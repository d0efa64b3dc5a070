package exporter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanedFileName(t *testing.T) {
	tests := map[string]string{
		"sales.csv":       "cleaned_sales.csv",
		"sales.2024.xlsx": "cleaned_sales.2024.csv",
		"README":          "cleaned_README.csv",
	}
	for in, want := range tests {
		assert.Equal(t, want, CleanedFileName(in), in)
	}
}

func TestPCAFileName(t *testing.T) {
	assert.Equal(t, "data_with_pca.csv", PCAFileName())
}

func TestContentDisposition(t *testing.T) {
	assert.Equal(t, `attachment; filename=cleaned_sales.csv`, ContentDisposition("cleaned_sales.csv"))
	assert.Equal(t, `attachment; filename="my data.csv"`, ContentDisposition("my data.csv"))
}
