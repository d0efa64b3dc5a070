// Package api contains request contracts of the explorer HTTP API.
// Version v1 represents the current stable API version.
package api

import (
	"dataexplorer/pkg/contracts/domain"
)

// SettingsQuery carries the cleaning and sampling toggles every view accepts
type SettingsQuery struct {
	DropDuplicates    bool `json:"drop_duplicates"`
	ImputeNumeric     bool `json:"impute_numeric"`
	ImputeCategorical bool `json:"impute_categorical"`
	SampleRows        int  `json:"sample_rows" validate:"min=0,max=100000,sample_step"`
}

// DefaultSettingsQuery returns every cleaning step on and no sampling
func DefaultSettingsQuery() SettingsQuery {
	return SettingsQuery{
		DropDuplicates:    true,
		ImputeNumeric:     true,
		ImputeCategorical: true,
	}
}

// ToDomain converts the query to pipeline settings
func (q SettingsQuery) ToDomain() domain.ViewSettings {
	return domain.ViewSettings{
		Cleaning: domain.CleaningOptions{
			DropDuplicates:    q.DropDuplicates,
			ImputeNumeric:     q.ImputeNumeric,
			ImputeCategorical: q.ImputeCategorical,
		},
		SampleRows: q.SampleRows,
	}
}

// UploadRequest describes the non-file fields of a dataset upload
type UploadRequest struct {
	Filename string `json:"filename" validate:"required,filename"`
	Sheet    string `json:"sheet" validate:"max=31"`
}

// ChartQuery selects a chart
type ChartQuery struct {
	SettingsQuery
	X      string `json:"x" validate:"required"`
	Y      string `json:"y" validate:"required"`
	Color  string `json:"color" validate:"required"`
	Kind   string `json:"kind" validate:"required,oneof=bar line scatter box"`
	Agg    string `json:"agg" validate:"required,oneof=count sum mean median"`
	Format string `json:"format" validate:"omitempty,oneof=json png svg"`
}

// Spec converts the query to a chart spec
func (q ChartQuery) Spec() domain.ChartSpec {
	return domain.ChartSpec{
		X:     q.X,
		Y:     q.Y,
		Color: q.Color,
		Kind:  domain.ChartKind(q.Kind),
		Agg:   domain.Aggregation(q.Agg),
	}
}

// PCAQuery selects the PCA parameters. The upper bound on components also
// depends on the data and is checked by the service.
type PCAQuery struct {
	SettingsQuery
	Components  int    `json:"components" validate:"min=2,max=10"`
	Standardize bool   `json:"standardize"`
	Format      string `json:"format" validate:"omitempty,oneof=json png svg"`
}

// Options converts the query to PCA options
func (q PCAQuery) Options() domain.PCAOptions {
	return domain.PCAOptions{Components: q.Components, Standardize: q.Standardize}
}

// ImageQuery selects the output format of a rendered figure
type ImageQuery struct {
	SettingsQuery
	Format string `json:"format" validate:"omitempty,oneof=json png svg"`
}

// LiveViewRequest is a client frame on the live view WebSocket
type LiveViewRequest struct {
	Type     string        `json:"type" validate:"required,oneof=settings ping"`
	Settings SettingsQuery `json:"settings"`
	PCA      *PCAQuery     `json:"pca,omitempty"`
}
