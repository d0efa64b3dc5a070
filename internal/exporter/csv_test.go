package exporter

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dataexplorer/internal/dataset"
	"dataexplorer/internal/shared/testutil"
)

func sampleFrame(t *testing.T) *dataset.Frame {
	t.Helper()
	f, err := dataset.ReadCSV(strings.NewReader(testutil.SampleCSV))
	require.NoError(t, err)
	return f
}

func TestWriteFrame(t *testing.T) {
	tests := []struct {
		name    string
		options WriteOptions
		wantBOM bool
	}{
		{"plain", WriteOptions{}, false},
		{"with BOM", WriteOptions{BOMPrefix: true}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WriteFrame(&buf, sampleFrame(t), tt.options))

			content := buf.Bytes()
			assert.Equal(t, tt.wantBOM, bytes.HasPrefix(content, utf8BOM))
			content = bytes.TrimPrefix(content, utf8BOM)

			lines := strings.Split(strings.TrimSpace(string(content)), "\n")
			require.Len(t, lines, 7)
			assert.Equal(t, "city,temp,visits,active,joined", lines[0])
			assert.Equal(t, "Paris,12.5,3.0,True,2024-01-05", lines[1])
			assert.Equal(t, "Lyon,,5.0,False,2024-02-11", lines[2])
			assert.Equal(t, ",9.5,7.0,False,", lines[5])
		})
	}
}

func TestWriteFrame_QuotesSpecialCharacters(t *testing.T) {
	f, err := dataset.ReadCSV(strings.NewReader("name,note\n\"Smith, J\",\"said \"\"hi\"\"\"\n"))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, f, WriteOptions{}))
	assert.Equal(t, "name,note\n\"Smith, J\",\"said \"\"hi\"\"\"\n", buf.String())
}

func TestWriteFrame_RoundTrip(t *testing.T) {
	original := sampleFrame(t)

	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, original, WriteOptions{BOMPrefix: true}))

	reread, err := dataset.ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, original.Names(), reread.Names())
	for i := 0; i < original.Len(); i++ {
		assert.Equal(t, original.Record(i), reread.Record(i))
	}
}

func TestCSVWriter_WriteFrameFile(t *testing.T) {
	dir := t.TempDir()
	writer := NewCSVWriter(dir, nil)

	require.NoError(t, writer.WriteFrameFile(filepath.Join("out", "cleaned.csv"), sampleFrame(t), WriteOptions{}))

	content, err := os.ReadFile(filepath.Join(dir, "out", "cleaned.csv"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(content), "city,temp,visits,active,joined\n"))
	assert.Equal(t, 7, strings.Count(string(content), "\n"))
}

func TestCSVWriter_CreateStreamWriter(t *testing.T) {
	dir := t.TempDir()
	writer := NewCSVWriter(dir, nil)

	absolute := filepath.Join(t.TempDir(), "stream.csv")
	stream, err := writer.CreateStreamWriter(absolute, []string{"a", "b"}, WriteOptions{BOMPrefix: true})
	require.NoError(t, err)
	assert.Equal(t, absolute, stream.Path())

	require.NoError(t, stream.WriteRecord([]string{"1", "x"}))
	require.NoError(t, stream.Close())

	content, err := os.ReadFile(absolute)
	require.NoError(t, err)
	assert.Equal(t, "\xEF\xBB\xBFa,b\n1,x\n", string(content))
}
