package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"dataexplorer/internal/analytics"
	"dataexplorer/internal/charts"
	"dataexplorer/internal/config"
	"dataexplorer/internal/dataprocessing"
	"dataexplorer/internal/dataset"
	apierrors "dataexplorer/internal/errors"
	"dataexplorer/internal/exporter"
	"dataexplorer/internal/infrastructure"
	"dataexplorer/internal/validation"
	"dataexplorer/pkg/contracts/domain"
)

// UploadInput is one file to register
type UploadInput struct {
	Filename string
	Sheet    string
	// Size is the declared length in bytes, -1 when unknown
	Size    int64
	Content io.Reader
}

// Image is a rendered figure
type Image struct {
	ContentType string
	Data        []byte
}

// Download is a CSV export ready to be streamed
type Download struct {
	FileName    string
	ContentType string

	frame   *dataset.Frame
	options exporter.WriteOptions
}

// Rows returns the number of data rows in the export
func (d *Download) Rows() int {
	return d.frame.Len()
}

// Write streams the export as CSV
func (d *Download) Write(w io.Writer) error {
	return exporter.WriteFrame(w, d.frame, d.options)
}

// cleanedFrame is a cleaned copy of a raw or sampled frame
type cleanedFrame struct {
	Frame   *dataset.Frame
	Report  domain.CleaningReport
	Sampled bool
}

// ExplorerService runs the explorer pipeline on uploaded datasets:
// sample, clean, then compute the requested view. Every view is recomputed
// from the raw upload; pure computations are memoized by content hash.
type ExplorerService struct {
	registry  *DatasetRegistry
	cache     *MemoCache
	cleaner   *dataprocessing.Cleaner
	renderer  *charts.Renderer
	validator *validation.FileValidator
	cfg       config.ExplorerConfig
	metrics   *infrastructure.BusinessMetrics
	logger    *slog.Logger

	listenersMu sync.RWMutex
	listeners   []func(id, reason string)
}

// NewExplorerService wires the registry, cache and pipeline from configuration
func NewExplorerService(cfg *config.Config, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *ExplorerService {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = infrastructure.NoopBusinessMetrics()
	}

	s := &ExplorerService{
		registry:  NewDatasetRegistry(cfg.Datasets, metrics, logger),
		cache:     NewMemoCache(cfg.Cache, metrics, logger),
		cleaner:   dataprocessing.NewCleaner(logger),
		renderer:  charts.NewRenderer(),
		validator: validation.NewFileValidator(logger, cfg.Upload.AllowedExtensions, cfg.Upload.MaxBytes),
		cfg:       cfg.Explorer,
		metrics:   metrics,
		logger:    logger.With(slog.String("service", "explorer")),
	}
	s.registry.OnRemove(s.datasetRemoved)
	return s
}

// Close stops background goroutines and drops every dataset
func (s *ExplorerService) Close() {
	s.registry.Stop()
	s.cache.Stop()
}

// OnDatasetRemoved registers a listener called when a dataset is deleted,
// expires or is evicted
func (s *ExplorerService) OnDatasetRemoved(fn func(id, reason string)) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *ExplorerService) datasetRemoved(ds Dataset, reason string) {
	if !s.registry.HasHash(ds.Hash) {
		s.cache.InvalidatePrefix(ds.Hash + "|")
	}

	s.listenersMu.RLock()
	listeners := append([]func(string, string){}, s.listeners...)
	s.listenersMu.RUnlock()
	for _, fn := range listeners {
		fn(ds.Info.ID, reason)
	}
}

// Upload parses a file and registers it as a new dataset
func (s *ExplorerService) Upload(ctx context.Context, in UploadInput) (*domain.DatasetInfo, error) {
	ctx, span := infrastructure.StartSpan(ctx, "explorer.upload",
		attribute.String("file.name", in.Filename),
		attribute.String("file.sheet", in.Sheet))
	defer span.End()

	start := time.Now()
	format := dataset.FormatOf(in.Filename)
	info, size, err := s.upload(ctx, in)
	infrastructure.RecordUpload(ctx, s.metrics, string(format), size, err)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		s.logger.WarnContext(ctx, "upload rejected",
			slog.String("file", in.Filename),
			slog.String("error", err.Error()))
		return nil, err
	}

	s.logger.InfoContext(ctx, "dataset uploaded",
		slog.String("dataset_id", info.ID),
		slog.String("file", info.Name),
		slog.Int("rows", info.Rows),
		slog.Int("columns", info.Columns),
		slog.Int64("size_bytes", info.SizeBytes),
		slog.Duration("duration", time.Since(start)))
	return info, nil
}

func (s *ExplorerService) upload(ctx context.Context, in UploadInput) (*domain.DatasetInfo, int64, error) {
	if err := s.validator.ValidateUpload(in.Filename, in.Size); err != nil {
		return nil, 0, err
	}
	if in.Content == nil {
		return nil, 0, apierrors.NewAppError(apierrors.ErrTypeValidation, "file content is required", ErrMissingContent)
	}

	data, err := readLimited(in.Content, s.validator.MaxBytes())
	if err != nil {
		return nil, 0, err
	}
	size := int64(len(data))

	frame, err := dataset.Load(in.Filename, bytes.NewReader(data), in.Sheet)
	if err != nil {
		return nil, size, apierrors.NewParsingError(err)
	}
	if frame.Empty() {
		return nil, size, apierrors.NewEmptyDatasetError(nil).
			WithContext("rows", frame.Len()).
			WithContext("columns", frame.Width())
	}

	info := domain.DatasetInfo{
		ID:          uuid.NewString(),
		Name:        frame.Name,
		Sheet:       in.Sheet,
		Format:      string(dataset.FormatOf(in.Filename)),
		Rows:        frame.Len(),
		Columns:     frame.Width(),
		MemoryBytes: frame.MemoryUsage(),
		MemoryMB:    frame.MemoryMB(),
		SizeBytes:   size,
	}
	info.Message = LoadedMessage(info)

	stored := s.registry.Add(ctx, &Dataset{
		Info:  info,
		Frame: frame,
		Hash:  ContentHash(data, in.Sheet),
	})
	return &stored.Info, size, nil
}

// LoadedMessage is the confirmation shown after a successful upload
func LoadedMessage(info domain.DatasetInfo) string {
	return fmt.Sprintf("Loaded %s · shape: %d x %d · memory ~ %.2f MB",
		info.Name, info.Rows, info.Columns, info.MemoryMB)
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit > 0 {
		r = io.LimitReader(r, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, apierrors.NewStorageError("failed to read upload", err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, apierrors.NewTooLargeError(limit, nil)
	}
	return data, nil
}

// List returns every live dataset, newest first
func (s *ExplorerService) List(ctx context.Context) []domain.DatasetInfo {
	return s.registry.List()
}

// Get returns one dataset's info
func (s *ExplorerService) Get(ctx context.Context, id string) (*domain.DatasetInfo, error) {
	ds, err := s.dataset(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ds.Info, nil
}

// Delete removes a dataset
func (s *ExplorerService) Delete(ctx context.Context, id string) error {
	if !s.registry.Delete(ctx, id) {
		return notFound(id)
	}
	s.logger.InfoContext(ctx, "dataset deleted", slog.String("dataset_id", id))
	return nil
}

func (s *ExplorerService) dataset(ctx context.Context, id string) (Dataset, error) {
	ds, ok := s.registry.Get(ctx, id)
	if !ok {
		return Dataset{}, notFound(id)
	}
	return ds, nil
}

func notFound(id string) error {
	return apierrors.NewNotFoundError("dataset", ErrDatasetNotFound).WithContext("dataset_id", id)
}

// Preview returns the head of the cleaned display frame
func (s *ExplorerService) Preview(ctx context.Context, id string, settings domain.ViewSettings) (*domain.Preview, error) {
	var out *domain.Preview
	err := s.run(ctx, "preview", id, settings, func(ctx context.Context, ds Dataset, d *cleanedFrame) error {
		full, err := s.cleanedFull(ctx, ds, settings.Cleaning)
		if err != nil {
			return err
		}
		out = s.preview(d.Frame, full.Frame.Len(), settings.SampleRows > 0)
		return nil
	})
	return out, err
}

func (s *ExplorerService) preview(f *dataset.Frame, fullRows int, sampled bool) *domain.Preview {
	limit := s.cfg.PreviewRows
	if limit <= 0 {
		limit = config.DefaultPreviewRows
	}
	head := f.Head(limit)

	rows := make([][]interface{}, head.Len())
	for i := range rows {
		row := make([]interface{}, head.Width())
		for j, c := range head.Columns {
			row[j] = c.Value(i)
		}
		rows[i] = row
	}

	return &domain.Preview{
		Columns:   head.Names(),
		Rows:      rows,
		Shown:     head.Len(),
		TotalRows: fullRows,
		Sampled:   sampled,
		Caption:   PreviewCaption(limit, sampled, fullRows),
	}
}

// PreviewCaption describes the preview table
func PreviewCaption(limit int, sampled bool, fullRows int) string {
	flag := "False"
	if sampled {
		flag = "True"
	}
	full := message.NewPrinter(language.English).Sprintf("%d", fullRows)
	return fmt.Sprintf("Showing up to %d rows (sampled = %s). Full rows: %s", limit, flag, full)
}

// Schema lists the dtypes of the cleaned display frame
func (s *ExplorerService) Schema(ctx context.Context, id string, settings domain.ViewSettings) ([]domain.ColumnSchema, error) {
	var out []domain.ColumnSchema
	err := s.run(ctx, "schema", id, settings, func(ctx context.Context, ds Dataset, d *cleanedFrame) error {
		out = analytics.Schema(d.Frame)
		return nil
	})
	return out, err
}

// Missing reports missingness of the cleaned display frame
func (s *ExplorerService) Missing(ctx context.Context, id string, settings domain.ViewSettings) (*domain.MissingReport, error) {
	var out domain.MissingReport
	err := s.run(ctx, "missing", id, settings, func(ctx context.Context, ds Dataset, d *cleanedFrame) error {
		out = analytics.Missing(d.Frame)
		s.notice(ctx, "missing", out.Notice)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Describe summarizes every column of the cleaned display frame
func (s *ExplorerService) Describe(ctx context.Context, id string, settings domain.ViewSettings) ([]domain.ColumnSummary, error) {
	var out []domain.ColumnSummary
	err := s.run(ctx, "describe", id, settings, func(ctx context.Context, ds Dataset, d *cleanedFrame) error {
		var err error
		out, err = s.describe(ctx, ds, settings, d)
		return err
	})
	return out, err
}

func (s *ExplorerService) describe(ctx context.Context, ds Dataset, settings domain.ViewSettings, d *cleanedFrame) ([]domain.ColumnSummary, error) {
	key := cacheKey(ds.Hash, "describe", settings.Cleaning, settings.SampleRows, s.cfg.SampleSeed)
	return Memoize(ctx, s.cache, "describe", key, func() ([]domain.ColumnSummary, error) {
		return analytics.Describe(d.Frame), nil
	})
}

// Correlation computes the Pearson matrix of the cleaned display frame
func (s *ExplorerService) Correlation(ctx context.Context, id string, settings domain.ViewSettings) (*domain.CorrelationMatrix, error) {
	var out *domain.CorrelationMatrix
	err := s.run(ctx, "correlation", id, settings, func(ctx context.Context, ds Dataset, d *cleanedFrame) error {
		var err error
		out, err = s.correlation(ctx, ds, settings, d)
		return err
	})
	return out, err
}

// CorrelationImage renders the correlation heatmap. The image is nil when
// the matrix only carries a notice.
func (s *ExplorerService) CorrelationImage(ctx context.Context, id string, settings domain.ViewSettings, format charts.Format) (*Image, *domain.CorrelationMatrix, error) {
	m, err := s.Correlation(ctx, id, settings)
	if err != nil {
		return nil, nil, err
	}
	img, err := s.render(ctx, "correlation", format, func(w io.Writer) error {
		return s.renderer.Correlation(w, m, format)
	})
	return img, m, err
}

func (s *ExplorerService) correlation(ctx context.Context, ds Dataset, settings domain.ViewSettings, d *cleanedFrame) (*domain.CorrelationMatrix, error) {
	key := cacheKey(ds.Hash, "correlation", settings.Cleaning, settings.SampleRows, s.cfg.SampleSeed)
	m, err := Memoize(ctx, s.cache, "correlation", key, func() (*domain.CorrelationMatrix, error) {
		m := analytics.Correlation(d.Frame)
		return &m, nil
	})
	if err != nil {
		return nil, err
	}
	s.notice(ctx, "correlation", m.Notice)
	return m, nil
}

// Chart builds a chart from the cleaned display frame
func (s *ExplorerService) Chart(ctx context.Context, id string, settings domain.ViewSettings, spec domain.ChartSpec) (*domain.Chart, error) {
	var out *domain.Chart
	err := s.run(ctx, "chart", id, settings, func(ctx context.Context, ds Dataset, d *cleanedFrame) error {
		key := cacheKey(ds.Hash, "chart", settings.Cleaning, settings.SampleRows, s.cfg.SampleSeed, spec)
		chart, err := Memoize(ctx, s.cache, "chart", key, func() (*domain.Chart, error) {
			return charts.Build(d.Frame, spec), nil
		})
		if err != nil {
			return err
		}
		s.notice(ctx, "chart", chart.Notice)
		out = chart
		return nil
	})
	return out, err
}

// ChartImage renders a chart. The image is nil when the chart only carries a notice.
func (s *ExplorerService) ChartImage(ctx context.Context, id string, settings domain.ViewSettings, spec domain.ChartSpec, format charts.Format) (*Image, *domain.Chart, error) {
	chart, err := s.Chart(ctx, id, settings, spec)
	if err != nil {
		return nil, nil, err
	}
	img, err := s.render(ctx, "chart_"+string(chart.Spec.Kind), format, func(w io.Writer) error {
		return s.renderer.Chart(w, chart, format)
	})
	return img, chart, err
}

// PCA projects the complete numeric rows of the cleaned display frame
func (s *ExplorerService) PCA(ctx context.Context, id string, settings domain.ViewSettings, opts domain.PCAOptions) (*domain.PCAResult, error) {
	var out *domain.PCAResult
	err := s.run(ctx, "pca", id, settings, func(ctx context.Context, ds Dataset, d *cleanedFrame) error {
		var err error
		out, err = s.pca(ctx, ds, settings, d, opts)
		return err
	})
	return out, err
}

// PCAImage renders the PC1/PC2 scatter. The image is nil when PCA
// preconditions are not met.
func (s *ExplorerService) PCAImage(ctx context.Context, id string, settings domain.ViewSettings, opts domain.PCAOptions, format charts.Format) (*Image, *domain.PCAResult, error) {
	res, err := s.PCA(ctx, id, settings, opts)
	if err != nil {
		return nil, nil, err
	}
	img, err := s.render(ctx, "pca", format, func(w io.Writer) error {
		return s.renderer.PCA(w, res, format)
	})
	return img, res, err
}

func (s *ExplorerService) pca(ctx context.Context, ds Dataset, settings domain.ViewSettings, d *cleanedFrame, opts domain.PCAOptions) (*domain.PCAResult, error) {
	if opts.Components == 0 {
		opts.Components = config.DefaultPCAComponents
	}
	key := cacheKey(ds.Hash, "pca", settings.Cleaning, settings.SampleRows, s.cfg.SampleSeed, opts.Components, opts.Standardize)
	res, err := Memoize(ctx, s.cache, "pca", key, func() (*domain.PCAResult, error) {
		return analytics.PCA(d.Frame, opts, s.cfg.MaxPCAComponents)
	})
	if errors.Is(err, analytics.ErrInvalidComponents) {
		return nil, apierrors.NewAppError(apierrors.ErrTypeValidation, err.Error(),
			fmt.Errorf("%w: %w", ErrInvalidComponents, err)).
			WithContext("components", opts.Components)
	}
	if err != nil {
		return nil, err
	}

	if res.Notice != "" {
		s.notice(ctx, "pca", res.Notice)
	} else {
		s.metrics.PCARunsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.Bool("standardize", opts.Standardize),
			attribute.Int("components", opts.Components)))
	}
	return res, nil
}

// ExportCleaned prepares the full cleaned frame for download
func (s *ExplorerService) ExportCleaned(ctx context.Context, id string, cleaning domain.CleaningOptions) (*Download, error) {
	var out *Download
	settings := domain.ViewSettings{Cleaning: cleaning}
	err := s.run(ctx, "export_cleaned", id, settings, func(ctx context.Context, ds Dataset, _ *cleanedFrame) error {
		full, err := s.cleanedFull(ctx, ds, cleaning)
		if err != nil {
			return err
		}
		out = s.download(ctx, "cleaned", exporter.CleanedFileName(ds.Info.Name), full.Frame)
		return nil
	})
	return out, err
}

// ExportPCA prepares the cleaned display frame joined with PC1 and PC2.
// Rows left out of the fit get empty PC cells.
func (s *ExplorerService) ExportPCA(ctx context.Context, id string, settings domain.ViewSettings, opts domain.PCAOptions) (*Download, error) {
	var out *Download
	err := s.run(ctx, "export_pca", id, settings, func(ctx context.Context, ds Dataset, d *cleanedFrame) error {
		res, err := s.pca(ctx, ds, settings, d, opts)
		if err != nil {
			return err
		}
		if res.Notice != "" {
			return apierrors.NewAppError(apierrors.ErrTypeValidation, res.Notice, ErrPCAUnavailable)
		}
		pc1, pc2 := analytics.ScoreColumns(res, d.Frame.Len())
		joined, err := d.Frame.WithColumns(pc1, pc2)
		if err != nil {
			return fmt.Errorf("join PCA scores: %w", err)
		}
		out = s.download(ctx, "pca", exporter.PCAFileName(), joined)
		return nil
	})
	return out, err
}

func (s *ExplorerService) download(ctx context.Context, kind, name string, f *dataset.Frame) *Download {
	s.metrics.ExportsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
	return &Download{
		FileName:    name,
		ContentType: exporter.CSVContentType,
		frame:       f,
		options:     exporter.WriteOptions{BOMPrefix: s.cfg.ExportBOM},
	}
}

// View runs the whole pipeline for one settings snapshot. PCA is included
// when pca is not nil.
func (s *ExplorerService) View(ctx context.Context, id string, settings domain.ViewSettings, pca *domain.PCAOptions) (*domain.View, error) {
	var out *domain.View
	err := s.run(ctx, "view", id, settings, func(ctx context.Context, ds Dataset, d *cleanedFrame) error {
		full, err := s.cleanedFull(ctx, ds, settings.Cleaning)
		if err != nil {
			return err
		}
		describe, err := s.describe(ctx, ds, settings, d)
		if err != nil {
			return err
		}
		corr, err := s.correlation(ctx, ds, settings, d)
		if err != nil {
			return err
		}
		missing := analytics.Missing(d.Frame)
		s.notice(ctx, "missing", missing.Notice)

		sampled := settings.SampleRows > 0
		view := &domain.View{
			Dataset:  ds.Info,
			Settings: settings,
			Summary: domain.Summary{
				Rows:        ds.Info.Rows,
				Columns:     ds.Info.Columns,
				MemoryMB:    ds.Info.MemoryMB,
				Sampled:     sampled,
				DisplayRows: d.Frame.Len(),
			},
			Cleaning:    d.Report,
			Preview:     *s.preview(d.Frame, full.Frame.Len(), sampled),
			Schema:      analytics.Schema(d.Frame),
			Missing:     missing,
			Describe:    describe,
			Correlation: *corr,
		}
		if pca != nil {
			res, err := s.pca(ctx, ds, settings, d, *pca)
			if err != nil {
				return err
			}
			view.PCA = res
		}
		out = view
		return nil
	})
	return out, err
}

// run validates settings, resolves the dataset and its display frame, and
// calls fn inside a span with pipeline metrics
func (s *ExplorerService) run(ctx context.Context, view, id string, settings domain.ViewSettings, fn func(context.Context, Dataset, *cleanedFrame) error) error {
	ctx, span := infrastructure.StartSpan(ctx, "explorer."+view,
		attribute.String("dataset.id", id),
		attribute.Int("sample_rows", settings.SampleRows))
	defer span.End()

	start := time.Now()
	err := s.pipeline(ctx, id, settings, fn)
	infrastructure.RecordPipelineRun(ctx, s.metrics, view, time.Since(start), err)
	if err != nil {
		s.logger.WarnContext(ctx, "pipeline run failed",
			slog.String("view", view),
			slog.String("dataset_id", id),
			slog.String("error", err.Error()))
		return err
	}

	s.logger.DebugContext(ctx, "pipeline run completed",
		slog.String("view", view),
		slog.String("dataset_id", id),
		slog.Duration("duration", time.Since(start)))
	return nil
}

func (s *ExplorerService) pipeline(ctx context.Context, id string, settings domain.ViewSettings, fn func(context.Context, Dataset, *cleanedFrame) error) error {
	if err := s.CheckSettings(settings); err != nil {
		return err
	}
	ds, err := s.dataset(ctx, id)
	if err != nil {
		return err
	}
	d, err := s.display(ctx, ds, settings)
	if err != nil {
		return err
	}
	return fn(ctx, ds, d)
}

// CheckSettings validates the sampling input
func (s *ExplorerService) CheckSettings(settings domain.ViewSettings) error {
	maxRows := s.cfg.MaxSampleRows
	if maxRows <= 0 {
		maxRows = config.DefaultMaxSampleRows
	}
	n := settings.SampleRows
	if n < 0 || n > maxRows || n%config.SampleRowsStep != 0 {
		return apierrors.NewAppError(apierrors.ErrTypeValidation,
			fmt.Sprintf("sample_rows must be a multiple of %d between 0 and %d", config.SampleRowsStep, maxRows),
			ErrInvalidSettings).
			WithContext("sample_rows", n)
	}
	return nil
}

// display samples the raw frame and cleans the sample. Without sampling it
// is the full cleaned frame.
func (s *ExplorerService) display(ctx context.Context, ds Dataset, settings domain.ViewSettings) (*cleanedFrame, error) {
	if settings.SampleRows <= 0 {
		return s.cleanedFull(ctx, ds, settings.Cleaning)
	}
	key := cacheKey(ds.Hash, "display", settings.Cleaning, settings.SampleRows, s.cfg.SampleSeed)
	return Memoize(ctx, s.cache, "display", key, func() (*cleanedFrame, error) {
		sample, sampled := dataset.Sample(ds.Frame, settings.SampleRows, s.cfg.SampleSeed)
		cleaned, report := s.cleaner.Clean(sample, settings.Cleaning)
		return &cleanedFrame{Frame: cleaned, Report: report, Sampled: sampled}, nil
	})
}

// cleanedFull cleans the whole raw frame for downloads
func (s *ExplorerService) cleanedFull(ctx context.Context, ds Dataset, cleaning domain.CleaningOptions) (*cleanedFrame, error) {
	key := cacheKey(ds.Hash, "cleaned", cleaning)
	return Memoize(ctx, s.cache, "cleaned", key, func() (*cleanedFrame, error) {
		cleaned, report := s.cleaner.Clean(ds.Frame, cleaning)
		return &cleanedFrame{Frame: cleaned, Report: report}, nil
	})
}

func (s *ExplorerService) render(ctx context.Context, kind string, format charts.Format, draw func(io.Writer) error) (*Image, error) {
	var buf bytes.Buffer
	if err := draw(&buf); err != nil {
		if errors.Is(err, charts.ErrNothingToRender) {
			return nil, nil
		}
		return nil, fmt.Errorf("render %s: %w", kind, err)
	}
	s.metrics.ChartRendersTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("format", string(format))))
	return &Image{ContentType: format.ContentType(), Data: buf.Bytes()}, nil
}

func (s *ExplorerService) notice(ctx context.Context, view, notice string) {
	if notice == "" {
		return
	}
	infrastructure.RecordNotice(ctx, s.metrics, view)
	s.logger.DebugContext(ctx, "notice returned",
		slog.String("view", view),
		slog.String("notice", notice))
}

// Stats reports registry and cache usage
func (s *ExplorerService) Stats() map[string]interface{} {
	return map[string]interface{}{
		"datasets":     s.registry.Len(),
		"max_datasets": s.registry.maxDatasets,
		"cache":        s.cache.GetStats(),
	}
}
