package http

import (
	"bytes"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	apierrors "dataexplorer/internal/errors"
)

// DashboardData is passed to the dashboard template
type DashboardData struct {
	Title          string
	Version        string
	PreviewRows    int
	MaxSampleRows  int
	SampleRowsStep int
	MaxUploadMB    int64
}

// DashboardHandler renders the single page explorer UI from an embedded
// filesystem
type DashboardHandler struct {
	tmpl         *template.Template
	data         DashboardData
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDashboardHandler parses index.html from frontend
func NewDashboardHandler(frontend fs.FS, data DashboardData, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) (*DashboardHandler, error) {
	tmpl, err := template.ParseFS(frontend, "index.html")
	if err != nil {
		return nil, err
	}
	return &DashboardHandler{
		tmpl:         tmpl,
		data:         data,
		logger:       logger.With(slog.String("handler", "dashboard")),
		errorHandler: errorHandler,
	}, nil
}

// ServeDashboard handles GET /
func (h *DashboardHandler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.tmpl.Execute(&buf, h.data); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render dashboard",
			slog.String("error", err.Error()))
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(buf.Bytes())
}
