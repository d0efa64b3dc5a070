package infrastructure

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dataexplorer/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOTelInitialization(t *testing.T) {
	providers, err := InitializeOTel(nil, testLogger())
	require.NoError(t, err)
	require.NotNil(t, providers)

	assert.NotNil(t, providers.Tracer)
	assert.Nil(t, providers.TracerProvider, "default trace exporter is none")
	assert.NotNil(t, providers.MeterProvider)
	assert.NotNil(t, providers.Meter)
	assert.NotNil(t, providers.Registry)
	assert.NotNil(t, providers.PrometheusHTTP)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, providers.Shutdown(ctx))
}

func TestOTelInitialization_IndependentRegistries(t *testing.T) {
	first, err := InitializeOTel(DefaultOTelConfig(), testLogger())
	require.NoError(t, err)
	defer first.Shutdown(context.Background())

	second, err := InitializeOTel(DefaultOTelConfig(), testLogger())
	require.NoError(t, err)
	defer second.Shutdown(context.Background())

	assert.NotSame(t, first.Registry, second.Registry)
}

func TestOTelConfiguration(t *testing.T) {
	tests := []struct {
		name    string
		config  *OTelConfig
		wantErr bool
	}{
		{
			name:   "stdout tracing",
			config: &OTelConfig{ServiceName: "test", TraceExporter: "stdout", MetricExporter: "none", SampleRatio: 1},
		},
		{
			name:   "everything disabled",
			config: &OTelConfig{ServiceName: "test", TraceExporter: "none", MetricExporter: "none"},
		},
		{
			name:    "unknown trace exporter",
			config:  &OTelConfig{ServiceName: "test", TraceExporter: "jaeger", MetricExporter: "none"},
			wantErr: true,
		},
		{
			name:    "unknown metric exporter",
			config:  &OTelConfig{ServiceName: "test", TraceExporter: "none", MetricExporter: "statsd"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			providers, err := InitializeOTel(tt.config, testLogger())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, providers.Tracer)
			assert.NotNil(t, providers.Meter)
			assert.NoError(t, providers.Shutdown(context.Background()))
		})
	}
}

func TestOTelConfigFrom(t *testing.T) {
	cfg := OTelConfigFrom(config.TelemetryConfig{
		ServiceName:    "svc",
		TraceExporter:  "stdout",
		MetricExporter: "none",
	})
	assert.Equal(t, "svc", cfg.ServiceName)
	assert.Equal(t, "stdout", cfg.TraceExporter)
	assert.Equal(t, "none", cfg.MetricExporter)
}

func TestTraceCorrelation(t *testing.T) {
	providers, err := InitializeOTel(&OTelConfig{
		ServiceName:    "test",
		TraceExporter:  "stdout",
		MetricExporter: "none",
		SampleRatio:    1,
	}, testLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	ctx, span := providers.Tracer.Start(context.Background(), "test-operation")
	defer span.End()

	traceID := TraceIDFromContext(ctx)
	assert.NotEmpty(t, traceID)
	assert.Equal(t, span.SpanContext().TraceID().String(), traceID)

	RecordError(ctx, assert.AnError)
	assert.True(t, span.IsRecording())
}

func TestBusinessMetricsExposed(t *testing.T) {
	providers, err := InitializeOTel(DefaultOTelConfig(), testLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	metrics, err := CreateBusinessMetrics(providers.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	RecordCacheLookup(ctx, metrics, "describe", true)
	RecordCacheLookup(ctx, metrics, "describe", false)
	RecordUpload(ctx, metrics, "csv", 128, nil)
	RecordPipelineRun(ctx, metrics, "preview", 10*time.Millisecond, nil)
	RecordNotice(ctx, metrics, "pca")

	server := httptest.NewServer(providers.PrometheusHTTP)
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	assert.Contains(t, text, "memo_cache_hits_total")
	assert.Contains(t, text, "memo_cache_misses_total")
	assert.Contains(t, text, "dataset_uploads_total")
	assert.Contains(t, text, "pipeline_runs_total")
	assert.Contains(t, text, "go_goroutines")
}

func TestRecordHelpersTolerateNilMetrics(t *testing.T) {
	ctx := context.Background()
	assert.NotPanics(t, func() {
		RecordCacheLookup(ctx, nil, "x", true)
		RecordUpload(ctx, nil, "csv", 1, nil)
		RecordPipelineRun(ctx, nil, "x", time.Second, assert.AnError)
		RecordNotice(ctx, nil, "x")
	})
	assert.NotNil(t, NoopBusinessMetrics())
}
