package http

import (
	"context"

	"dataexplorer/internal/charts"
	"dataexplorer/internal/services"
	"dataexplorer/pkg/contracts/domain"
)

// ExplorerServiceInterface defines the dataset operations behind the API
type ExplorerServiceInterface interface {
	Upload(ctx context.Context, in services.UploadInput) (*domain.DatasetInfo, error)
	List(ctx context.Context) []domain.DatasetInfo
	Get(ctx context.Context, id string) (*domain.DatasetInfo, error)
	Delete(ctx context.Context, id string) error

	Preview(ctx context.Context, id string, settings domain.ViewSettings) (*domain.Preview, error)
	Schema(ctx context.Context, id string, settings domain.ViewSettings) ([]domain.ColumnSchema, error)
	Missing(ctx context.Context, id string, settings domain.ViewSettings) (*domain.MissingReport, error)
	Describe(ctx context.Context, id string, settings domain.ViewSettings) ([]domain.ColumnSummary, error)

	Correlation(ctx context.Context, id string, settings domain.ViewSettings) (*domain.CorrelationMatrix, error)
	CorrelationImage(ctx context.Context, id string, settings domain.ViewSettings, format charts.Format) (*services.Image, *domain.CorrelationMatrix, error)
	Chart(ctx context.Context, id string, settings domain.ViewSettings, spec domain.ChartSpec) (*domain.Chart, error)
	ChartImage(ctx context.Context, id string, settings domain.ViewSettings, spec domain.ChartSpec, format charts.Format) (*services.Image, *domain.Chart, error)
	PCA(ctx context.Context, id string, settings domain.ViewSettings, opts domain.PCAOptions) (*domain.PCAResult, error)
	PCAImage(ctx context.Context, id string, settings domain.ViewSettings, opts domain.PCAOptions, format charts.Format) (*services.Image, *domain.PCAResult, error)

	ExportCleaned(ctx context.Context, id string, cleaning domain.CleaningOptions) (*services.Download, error)
	ExportPCA(ctx context.Context, id string, settings domain.ViewSettings, opts domain.PCAOptions) (*services.Download, error)
	View(ctx context.Context, id string, settings domain.ViewSettings, pca *domain.PCAOptions) (*domain.View, error)
}

// StructValidator validates request contracts
type StructValidator interface {
	ValidateStruct(v interface{}) error
}
