package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"dataexplorer/internal/charts"
	"dataexplorer/internal/config"
	apierrors "dataexplorer/internal/errors"
	"dataexplorer/internal/infrastructure"
	"dataexplorer/internal/middleware"
	"dataexplorer/internal/services"
	api "dataexplorer/pkg/contracts/api/v1"
	"dataexplorer/pkg/contracts/domain"
)

type analyzeOptions struct {
	sheet               string
	sampleRows          int
	noDedupe            bool
	noImputeNumeric     bool
	noImputeCategorical bool
	outDir              string
	format              string

	pcaComponents    int
	pcaNoStandardize bool

	chartX     string
	chartY     string
	chartKind  string
	chartAgg   string
	chartColor string
}

func newAnalyzeCmd() *cobra.Command {
	opts := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Clean a CSV/Excel file and write statistics, figures and exports",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runAnalyze(cmd.Context(), cfg, args[0], opts, cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.sheet, "sheet", "", "Excel sheet name (default: first sheet)")
	f.IntVar(&opts.sampleRows, "sample-rows", 0, "analyze a random sample of this many rows, a multiple of 1000 (0 = all rows)")
	f.BoolVar(&opts.noDedupe, "no-dedupe", false, "keep duplicate rows")
	f.BoolVar(&opts.noImputeNumeric, "no-impute-numeric", false, "leave numeric gaps empty instead of filling with the median")
	f.BoolVar(&opts.noImputeCategorical, "no-impute-categorical", false, "leave categorical gaps empty instead of filling with the mode")
	f.StringVarP(&opts.outDir, "out", "o", "explorer-out", "output directory")
	f.StringVar(&opts.format, "format", "png", "figure format (png or svg)")
	f.IntVar(&opts.pcaComponents, "pca", 0, "run PCA with this many components (0 = skip)")
	f.BoolVar(&opts.pcaNoStandardize, "pca-no-standardize", false, "fit PCA on raw values instead of z-scores")
	f.StringVar(&opts.chartX, "chart-x", "", "chart X column (empty = no chart)")
	f.StringVar(&opts.chartY, "chart-y", domain.CountColumn, "chart Y column")
	f.StringVar(&opts.chartKind, "chart-kind", string(domain.ChartBar), "chart kind (bar, line, scatter, box)")
	f.StringVar(&opts.chartAgg, "chart-agg", string(domain.AggCount), "aggregation (count, sum, mean, median)")
	f.StringVar(&opts.chartColor, "chart-color", domain.NoColor, "color/group column")

	return cmd
}

func (o *analyzeOptions) settings() api.SettingsQuery {
	return api.SettingsQuery{
		DropDuplicates:    !o.noDedupe,
		ImputeNumeric:     !o.noImputeNumeric,
		ImputeCategorical: !o.noImputeCategorical,
		SampleRows:        o.sampleRows,
	}
}

// runAnalyze loads the file into a private explorer service and writes every
// output the dashboard offers
func runAnalyze(ctx context.Context, cfg *config.Config, path string, opts *analyzeOptions, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := newLogger()
	validator := middleware.NewValidationMiddleware(logger, apierrors.NewErrorHandler(logger, false))

	format, err := charts.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	settingsQuery := opts.settings()
	if err := validator.ValidateStruct(settingsQuery); err != nil {
		return describeError(err)
	}
	settings := settingsQuery.ToDomain()

	var pcaQuery *api.PCAQuery
	if opts.pcaComponents > 0 {
		pcaQuery = &api.PCAQuery{
			SettingsQuery: settingsQuery,
			Components:    opts.pcaComponents,
			Standardize:   !opts.pcaNoStandardize,
		}
		if err := validator.ValidateStruct(*pcaQuery); err != nil {
			return describeError(err)
		}
	}

	var chartQuery *api.ChartQuery
	if opts.chartX != "" {
		chartQuery = &api.ChartQuery{
			SettingsQuery: settingsQuery,
			X:             opts.chartX,
			Y:             opts.chartY,
			Color:         opts.chartColor,
			Kind:          opts.chartKind,
			Agg:           opts.chartAgg,
		}
		if err := validator.ValidateStruct(*chartQuery); err != nil {
			return describeError(err)
		}
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	size := int64(-1)
	if st, err := file.Stat(); err == nil {
		size = st.Size()
	}

	svc := services.NewExplorerService(cfg, infrastructure.NoopBusinessMetrics(), logger)
	defer svc.Close()

	info, err := svc.Upload(ctx, services.UploadInput{
		Filename: filepath.Base(path),
		Sheet:    opts.sheet,
		Size:     size,
		Content:  file,
	})
	if err != nil {
		return describeError(err)
	}
	fmt.Fprintln(out, services.LoadedMessage(*info))

	var pcaOpts *domain.PCAOptions
	if pcaQuery != nil {
		o := pcaQuery.Options()
		pcaOpts = &o
	}
	view, err := svc.View(ctx, info.ID, settings, pcaOpts)
	if err != nil {
		return describeError(err)
	}

	if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	w := &outputWriter{dir: opts.outDir, out: out}

	c := view.Cleaning
	fmt.Fprintf(out, "Cleaning: %d -> %d rows, %d duplicates removed\n", c.RowsBefore, c.RowsAfter, c.DuplicatesRemoved)
	fmt.Fprintln(out, view.Preview.Caption)
	w.notice(view.Missing.Notice)

	cleaned, err := svc.ExportCleaned(ctx, info.ID, settings.Cleaning)
	if err != nil {
		return describeError(err)
	}
	if err := w.download(cleaned); err != nil {
		return err
	}

	stats, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}
	if err := w.file("stats.json", stats); err != nil {
		return err
	}

	img, matrix, err := svc.CorrelationImage(ctx, info.ID, settings, format)
	if err != nil {
		return describeError(err)
	}
	if img != nil {
		if err := w.file("correlation."+string(format), img.Data); err != nil {
			return err
		}
	} else {
		w.notice(matrix.Notice)
	}

	if pcaOpts != nil {
		if err := analyzePCA(ctx, svc, w, info.ID, settings, *pcaOpts, format); err != nil {
			return err
		}
	}

	if chartQuery != nil {
		img, chart, err := svc.ChartImage(ctx, info.ID, settings, chartQuery.Spec(), format)
		if err != nil {
			return describeError(err)
		}
		if img != nil {
			if err := w.file("chart."+string(format), img.Data); err != nil {
				return err
			}
		} else {
			w.notice(chart.Notice)
		}
	}

	return nil
}

func analyzePCA(ctx context.Context, svc *services.ExplorerService, w *outputWriter, id string, settings domain.ViewSettings, opts domain.PCAOptions, format charts.Format) error {
	img, res, err := svc.PCAImage(ctx, id, settings, opts, format)
	if err != nil {
		return describeError(err)
	}
	if img == nil {
		w.notice(res.Notice)
		return nil
	}
	if res.Message != "" {
		fmt.Fprintln(w.out, res.Message)
	}
	if err := w.file("pca."+string(format), img.Data); err != nil {
		return err
	}

	dl, err := svc.ExportPCA(ctx, id, settings, opts)
	if errors.Is(err, services.ErrPCAUnavailable) {
		w.notice(res.Notice)
		return nil
	}
	if err != nil {
		return describeError(err)
	}
	return w.download(dl)
}

// outputWriter writes result files and reports each one
type outputWriter struct {
	dir string
	out io.Writer
}

func (w *outputWriter) file(name string, data []byte) error {
	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	fmt.Fprintf(w.out, "Wrote %s\n", path)
	return nil
}

func (w *outputWriter) download(dl *services.Download) error {
	path := filepath.Join(w.dir, dl.FileName)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", dl.FileName, err)
	}
	if err := dl.Write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", dl.FileName, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", dl.FileName, err)
	}
	fmt.Fprintf(w.out, "Wrote %s (%d rows)\n", path, dl.Rows())
	return nil
}

func (w *outputWriter) notice(text string) {
	if text != "" {
		fmt.Fprintln(w.out, "Notice:", text)
	}
}

// describeError turns service and validation errors into the message the
// dashboard would show
func describeError(err error) error {
	var apiErr *apierrors.APIError
	if errors.As(err, &apiErr) {
		if details, ok := apiErr.Details.(apierrors.ValidationErrors); ok {
			msgs := make([]string, 0, len(details.Errors))
			for _, fe := range details.Errors {
				msgs = append(msgs, fe.Message)
			}
			return fmt.Errorf("%s: %s", apiErr.Message, strings.Join(msgs, "; "))
		}
		return errors.New(apiErr.Message)
	}
	var appErr *apierrors.AppError
	if errors.As(err, &appErr) {
		return errors.New(appErr.Message)
	}
	return err
}
