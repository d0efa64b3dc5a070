package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apierrors "dataexplorer/internal/errors"
)

// maxNameLength bounds the upload file name
const maxNameLength = 255

// FileValidator checks uploads and local input files before they are parsed
type FileValidator struct {
	logger            *slog.Logger
	allowedExtensions []string
	maxBytes          int64
}

// NewFileValidator creates a new file validator. Extensions are matched
// case-insensitively and must include the leading dot.
func NewFileValidator(logger *slog.Logger, allowedExtensions []string, maxBytes int64) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	exts := make([]string, 0, len(allowedExtensions))
	for _, ext := range allowedExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	return &FileValidator{
		logger:            logger,
		allowedExtensions: exts,
		maxBytes:          maxBytes,
	}
}

// MaxBytes returns the upload size limit, zero meaning unlimited
func (v *FileValidator) MaxBytes() int64 {
	return v.maxBytes
}

// ValidateUpload checks the name and declared size of an upload. A negative
// size means unknown and is checked later while reading.
func (v *FileValidator) ValidateUpload(name string, size int64) error {
	if err := v.ValidateName(name); err != nil {
		return err
	}
	if v.maxBytes > 0 && size > v.maxBytes {
		v.logger.Warn("Upload exceeds size limit",
			slog.String("file", name),
			slog.Int64("size", size),
			slog.Int64("max_bytes", v.maxBytes))
		return apierrors.NewTooLargeError(v.maxBytes, nil).WithContext("size", size)
	}
	return nil
}

// ValidateName checks an upload file name and its extension
func (v *FileValidator) ValidateName(name string) error {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	switch {
	case strings.TrimSpace(name) == "" || base == "." || base == "/":
		v.logger.Warn("Upload without a file name")
		return apierrors.NewUnsupportedFileError("file name is required", nil)
	case len(name) > maxNameLength:
		v.logger.Warn("Upload file name too long",
			slog.Int("length", len(name)))
		return apierrors.NewUnsupportedFileError(
			fmt.Sprintf("file name must be at most %d characters", maxNameLength), nil)
	case strings.HasPrefix(base, "~$"):
		v.logger.Warn("Rejected temporary Excel file",
			slog.String("file", name))
		return apierrors.NewUnsupportedFileError(
			fmt.Sprintf("%s is a temporary Excel lock file", base), nil)
	}

	ext := strings.ToLower(filepath.Ext(base))
	if !v.allowed(ext) {
		v.logger.Warn("Rejected file extension",
			slog.String("file", name),
			slog.String("extension", ext))
		return apierrors.NewUnsupportedFileError(
			fmt.Sprintf("unsupported file type %q (allowed: %s)", ext, strings.Join(v.allowedExtensions, ", ")), nil).
			WithContext("allowed_extensions", v.allowedExtensions)
	}
	return nil
}

func (v *FileValidator) allowed(ext string) bool {
	if len(v.allowedExtensions) == 0 {
		return true
	}
	for _, a := range v.allowedExtensions {
		if a == ext {
			return true
		}
	}
	return false
}

// ValidateFile checks if a specific file exists and is readable
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("File does not exist",
			slog.String("file", path))
		return fmt.Errorf("file %s does not exist", path)
	}
	if err != nil {
		v.logger.Error("Failed to stat file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		v.logger.Error("Path is a directory, not a file",
			slog.String("path", path))
		return fmt.Errorf("%s is a directory, not a file", path)
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return v.ValidateUpload(path, info.Size())
}

// ValidateOutputDirectory ensures output directory exists or can be created
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	// Verify it's writable by creating a test file
	testFile := filepath.Join(dir, ".write_test")
	file, err := os.Create(testFile)
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	file.Close()
	os.Remove(testFile)

	v.logger.Info("Output directory validated",
		slog.String("directory", dir))
	return nil
}
