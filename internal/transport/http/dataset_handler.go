package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"dataexplorer/internal/charts"
	apierrors "dataexplorer/internal/errors"
	"dataexplorer/internal/exporter"
	"dataexplorer/internal/infrastructure"
	"dataexplorer/internal/services"
	api "dataexplorer/pkg/contracts/api/v1"
	"dataexplorer/pkg/contracts/domain"
)

const (
	// multipartMemory is the part of an upload kept in memory before
	// spilling to a temp file
	multipartMemory = 32 << 20
	// multipartOverhead covers boundaries and the sheet field
	multipartOverhead = 1 << 20
)

// DatasetHandler serves the dataset explorer API with RFC 7807 errors
type DatasetHandler struct {
	service        ExplorerServiceInterface
	validator      StructValidator
	maxUploadBytes int64
	logger         *slog.Logger
	errorHandler   *apierrors.ErrorHandler
}

// NewDatasetHandler creates a new dataset handler
func NewDatasetHandler(service ExplorerServiceInterface, validator StructValidator, maxUploadBytes int64, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DatasetHandler {
	return &DatasetHandler{
		service:        service,
		validator:      validator,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With(slog.String("component", "dataset_handler")),
		errorHandler:   errorHandler,
	}
}

// Routes returns the dataset routes
func (h *DatasetHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Upload)
	r.Get("/", h.List)

	r.Route("/{id}", func(r chi.Router) {
		r.Use(h.DatasetCtx)
		r.Get("/", h.Get)
		r.Delete("/", h.Delete)

		r.Get("/preview", h.Preview)
		r.Get("/schema", h.Schema)
		r.Get("/missing", h.Missing)
		r.Get("/describe", h.Describe)
		r.Get("/correlation", h.Correlation)
		r.Get("/chart", h.Chart)
		r.Get("/pca", h.PCA)
		r.Get("/view", h.View)

		r.Get("/export/cleaned.csv", h.ExportCleaned)
		r.Get("/export/pca.csv", h.ExportPCA)
	})

	return r
}

// DatasetCtx rejects ids that cannot name a dataset
func (h *DatasetHandler) DatasetCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if _, err := uuid.Parse(id); err != nil {
			h.errorHandler.HandleError(w, r, apierrors.NewNotFoundError("dataset", services.ErrDatasetNotFound).
				WithContext("dataset_id", id))
			return
		}
		next.ServeHTTP(w, r.WithContext(infrastructure.WithDatasetID(r.Context(), id)))
	})
}

// Upload handles POST /api/datasets
func (h *DatasetHandler) Upload(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if isBodyTooLarge(err) {
			h.errorHandler.HandleError(w, r, apierrors.NewTooLargeError(h.maxUploadBytes, err))
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("file", "file is required"))
		return
	}
	defer file.Close()

	req := api.UploadRequest{Filename: header.Filename, Sheet: r.FormValue("sheet")}
	if err := h.validator.ValidateStruct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "uploading dataset",
		slog.String("request_id", reqID),
		slog.String("filename", req.Filename),
		slog.String("sheet", req.Sheet),
		slog.Int64("size", header.Size),
	)

	info, err := h.service.Upload(r.Context(), services.UploadInput{
		Filename: req.Filename,
		Sheet:    req.Sheet,
		Size:     header.Size,
		Content:  file,
	})
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/datasets/"+info.ID)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, info)
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large")
}

// List handles GET /api/datasets
func (h *DatasetHandler) List(w http.ResponseWriter, r *http.Request) {
	datasets := h.service.List(r.Context())
	render.JSON(w, r, map[string]interface{}{
		"datasets": datasets,
		"count":    len(datasets),
	})
}

// Get handles GET /api/datasets/{id}
func (h *DatasetHandler) Get(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, info)
}

// Delete handles DELETE /api/datasets/{id}
func (h *DatasetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "dataset deleted",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("dataset_id", id),
	)
	w.WriteHeader(http.StatusNoContent)
}

// settings parses and validates the cleaning and sampling parameters
func (h *DatasetHandler) settings(r *http.Request) (domain.ViewSettings, error) {
	p := newQueryParser(r.URL.Query())
	q := p.settings()
	if err := p.err(); err != nil {
		return domain.ViewSettings{}, err
	}
	if err := h.validator.ValidateStruct(q); err != nil {
		return domain.ViewSettings{}, err
	}
	return q.ToDomain(), nil
}

// Preview handles GET /api/datasets/{id}/preview
func (h *DatasetHandler) Preview(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	preview, err := h.service.Preview(r.Context(), chi.URLParam(r, "id"), settings)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, preview)
}

// Schema handles GET /api/datasets/{id}/schema
func (h *DatasetHandler) Schema(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	schema, err := h.service.Schema(r.Context(), chi.URLParam(r, "id"), settings)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{"columns": schema})
}

// Missing handles GET /api/datasets/{id}/missing
func (h *DatasetHandler) Missing(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	report, err := h.service.Missing(r.Context(), chi.URLParam(r, "id"), settings)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, report)
}

// Describe handles GET /api/datasets/{id}/describe
func (h *DatasetHandler) Describe(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	summary, err := h.service.Describe(r.Context(), chi.URLParam(r, "id"), settings)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{"columns": summary})
}

// Correlation handles GET /api/datasets/{id}/correlation[?format=png|svg]
func (h *DatasetHandler) Correlation(w http.ResponseWriter, r *http.Request) {
	p := newQueryParser(r.URL.Query())
	q := p.image()
	if err := h.check(p, q); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	id := chi.URLParam(r, "id")

	if !wantsImage(q.Format) {
		corr, err := h.service.Correlation(r.Context(), id, q.ToDomain())
		if err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}
		render.JSON(w, r, corr)
		return
	}

	format, err := parseFormat(q.Format)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	img, corr, err := h.service.CorrelationImage(r.Context(), id, q.ToDomain(), format)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.writeImage(w, r, img, corr)
}

// Chart handles GET /api/datasets/{id}/chart
func (h *DatasetHandler) Chart(w http.ResponseWriter, r *http.Request) {
	p := newQueryParser(r.URL.Query())
	q := p.chart()
	if err := h.check(p, q); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	id := chi.URLParam(r, "id")

	if !wantsImage(q.Format) {
		chart, err := h.service.Chart(r.Context(), id, q.ToDomain(), q.Spec())
		if err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}
		render.JSON(w, r, chart)
		return
	}

	format, err := parseFormat(q.Format)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	img, chart, err := h.service.ChartImage(r.Context(), id, q.ToDomain(), q.Spec(), format)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.writeImage(w, r, img, chart)
}

// PCA handles GET /api/datasets/{id}/pca
func (h *DatasetHandler) PCA(w http.ResponseWriter, r *http.Request) {
	p := newQueryParser(r.URL.Query())
	q := p.pca()
	if err := h.check(p, q); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	id := chi.URLParam(r, "id")

	if !wantsImage(q.Format) {
		res, err := h.service.PCA(r.Context(), id, q.ToDomain(), q.Options())
		if err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}
		render.JSON(w, r, res)
		return
	}

	format, err := parseFormat(q.Format)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	img, res, err := h.service.PCAImage(r.Context(), id, q.ToDomain(), q.Options(), format)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.writeImage(w, r, img, res)
}

// View handles GET /api/datasets/{id}/view. PCA is included with pca=true.
func (h *DatasetHandler) View(w http.ResponseWriter, r *http.Request) {
	p := newQueryParser(r.URL.Query())
	withPCA := p.boolean("pca", false)
	q := p.pca()

	var target interface{} = q.SettingsQuery
	if withPCA {
		target = q
	}
	if err := h.check(p, target); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	var opts *domain.PCAOptions
	if withPCA {
		o := q.Options()
		opts = &o
	}

	view, err := h.service.View(r.Context(), chi.URLParam(r, "id"), q.ToDomain(), opts)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, view)
}

// ExportCleaned handles GET /api/datasets/{id}/export/cleaned.csv
func (h *DatasetHandler) ExportCleaned(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	dl, err := h.service.ExportCleaned(r.Context(), chi.URLParam(r, "id"), settings.Cleaning)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.writeDownload(w, r, dl)
}

// ExportPCA handles GET /api/datasets/{id}/export/pca.csv
func (h *DatasetHandler) ExportPCA(w http.ResponseWriter, r *http.Request) {
	p := newQueryParser(r.URL.Query())
	q := p.pca()
	if err := h.check(p, q); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	dl, err := h.service.ExportPCA(r.Context(), chi.URLParam(r, "id"), q.ToDomain(), q.Options())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.writeDownload(w, r, dl)
}

// check reports conversion errors first, then contract violations
func (h *DatasetHandler) check(p *queryParser, v interface{}) error {
	if err := p.err(); err != nil {
		return err
	}
	return h.validator.ValidateStruct(v)
}

func wantsImage(format string) bool {
	return format != "" && format != "json"
}

func parseFormat(s string) (charts.Format, error) {
	format, err := charts.ParseFormat(s)
	if err != nil {
		return "", apierrors.ErrValidation("format", "format must be one of: json, png, svg")
	}
	return format, nil
}

// writeImage sends the rendered figure, or the JSON result when there was
// nothing to draw and the result carries a notice
func (h *DatasetHandler) writeImage(w http.ResponseWriter, r *http.Request, img *services.Image, result interface{}) {
	if img == nil {
		render.JSON(w, r, result)
		return
	}

	w.Header().Set("Content-Type", img.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Data)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(img.Data); err != nil {
		h.logger.WarnContext(r.Context(), "failed to write image",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
	}
}

// writeDownload streams a CSV export as an attachment
func (h *DatasetHandler) writeDownload(w http.ResponseWriter, r *http.Request, dl *services.Download) {
	w.Header().Set("Content-Type", dl.ContentType)
	w.Header().Set("Content-Disposition", exporter.ContentDisposition(dl.FileName))
	w.Header().Set("X-Row-Count", strconv.Itoa(dl.Rows()))
	w.WriteHeader(http.StatusOK)

	if err := dl.Write(w); err != nil {
		// Headers are out; the client sees a truncated file
		h.logger.ErrorContext(r.Context(), "export interrupted",
			slog.String("error", err.Error()),
			slog.String("file", dl.FileName),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
		return
	}

	h.logger.InfoContext(r.Context(), "export sent",
		slog.String("file", dl.FileName),
		slog.Int("rows", dl.Rows()),
	)
}
