package services

import "errors"

// Explorer service errors. They are wrapped in categorized application
// errors before they leave the service.
var (
	// Dataset errors
	ErrDatasetNotFound = errors.New("dataset not found")

	// Input errors
	ErrInvalidSettings   = errors.New("invalid view settings")
	ErrInvalidComponents = errors.New("invalid number of PCA components")
	ErrMissingContent    = errors.New("upload has no content")

	// Export errors
	ErrPCAUnavailable = errors.New("PCA is not available for this data")
)
