package http

import (
	"net/http"

	"github.com/go-chi/render"

	apierrors "dataexplorer/internal/errors"
	"dataexplorer/internal/services"
)

// MetricsHandler exposes the Prometheus registry and the explorer stats
type MetricsHandler struct {
	prometheus   http.Handler
	stats        services.DatasetStats
	errorHandler *apierrors.ErrorHandler
}

// NewMetricsHandler creates a new metrics handler. prometheus may be nil
// when the metric exporter is disabled.
func NewMetricsHandler(prometheus http.Handler, stats services.DatasetStats, errorHandler *apierrors.ErrorHandler) *MetricsHandler {
	return &MetricsHandler{
		prometheus:   prometheus,
		stats:        stats,
		errorHandler: errorHandler,
	}
}

// GetMetrics handles GET /metrics
func (h *MetricsHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	if h.prometheus == nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrServiceUnavailable)
		return
	}
	h.prometheus.ServeHTTP(w, r)
}

// GetStats handles GET /api/stats with dataset and cache counters
func (h *MetricsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.stats.Stats())
}
