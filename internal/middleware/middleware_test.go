package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "dataexplorer/internal/errors"
	"dataexplorer/internal/infrastructure"
	"dataexplorer/internal/shared/testutil"
	api "dataexplorer/pkg/contracts/api/v1"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
})

func TestRequestID(t *testing.T) {
	t.Run("generates id", func(t *testing.T) {
		var seen string
		h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = GetRequestID(r.Context())
			assert.Equal(t, seen, infrastructure.GetTraceID(r.Context()))
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.NotEmpty(t, seen)
		assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))
	})

	t.Run("keeps incoming id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "req-123")
		rec := httptest.NewRecorder()
		RequestID(okHandler).ServeHTTP(rec, req)
		assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
	})
}

func TestStructuredLogger(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	h := RequestID(StructuredLogger(logger)(okHandler))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/datasets", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, handler.ContainsMessage("request completed"))
}

func TestRateLimiter(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	rl := NewRateLimiter(1, 2, apierrors.NewErrorHandler(logger, false), logger)
	t.Cleanup(rl.Stop)
	h := rl.Handler(okHandler)

	send := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1:1111").Code)
	assert.Equal(t, http.StatusOK, send("10.0.0.1:2222").Code)

	limited := send("10.0.0.1:3333")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, apierrors.ProblemContentType, limited.Header().Get("Content-Type"))
	assert.Equal(t, "1", limited.Header().Get("Retry-After"))

	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(limited.Body.Bytes(), &problem))
	assert.Equal(t, apierrors.TypeRateLimit, problem["type"])

	assert.Equal(t, http.StatusOK, send("10.0.0.2:1111").Code, "other clients have their own bucket")
}

func TestTimeout(t *testing.T) {
	var deadline time.Time
	var ok bool
	h := Timeout(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deadline, ok = r.Context().Deadline()
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Second), deadline, time.Second)
}

func TestCORS(t *testing.T) {
	h := CORS(CORSConfig{AllowedOrigins: []string{"http://localhost:8080"}})(okHandler)

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "http://localhost:8080")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, "http://localhost:8080", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, rec.Header().Get("Access-Control-Expose-Headers"), "Content-Disposition")
	})

	t.Run("foreign origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "http://evil.example")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/", nil)
		req.Header.Set("Origin", "http://localhost:8080")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "img-src 'self' data: blob:")
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestOTelMiddleware(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	providers, err := infrastructure.InitializeOTel(&infrastructure.OTelConfig{
		ServiceName:    "test",
		TraceExporter:  "none",
		MetricExporter: "none",
	}, logger)
	require.NoError(t, err)

	m, err := NewOTelMiddleware(providers, nil)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(m.Handler)
	r.Get("/api/datasets/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/datasets/abc", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	_, err = NewOTelMiddleware(&infrastructure.OTelProviders{}, nil)
	assert.Error(t, err)
}

func TestBusinessMetricsContext(t *testing.T) {
	metrics := infrastructure.NoopBusinessMetrics()
	var got *infrastructure.BusinessMetrics
	h := BusinessMetricsMiddleware(metrics)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetBusinessMetricsFromContext(r.Context())
		RecordSystemError(r.Context(), "test", "middleware")
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Same(t, metrics, got)
	assert.Nil(t, GetBusinessMetricsFromContext(context.Background()))
}

func TestGetRealIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	assert.Equal(t, "192.0.2.1:1234", GetRealIP(req))

	req.Header.Set("X-Real-IP", "198.51.100.7")
	assert.Equal(t, "198.51.100.7", GetRealIP(req))
}

func TestValidateStruct(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	v := NewValidationMiddleware(logger, apierrors.NewErrorHandler(logger, false))

	tests := []struct {
		name   string
		value  interface{}
		fields []string
	}{
		{"valid settings", api.SettingsQuery{SampleRows: 2000}, nil},
		{"sample not a step", api.SettingsQuery{SampleRows: 1500}, []string{"sample_rows"}},
		{"sample too large", api.SettingsQuery{SampleRows: 101000}, []string{"sample_rows"}},
		{"valid upload", api.UploadRequest{Filename: "sales.xlsx"}, nil},
		{"upload with path", api.UploadRequest{Filename: "../etc/passwd"}, []string{"filename"}},
		{"chart missing kind", api.ChartQuery{X: "a", Y: "b", Color: "(none)", Agg: "count"}, []string{"kind"}},
		{"pca too few", api.PCAQuery{Components: 1}, []string{"components"}},
		{"live view type", api.LiveViewRequest{Type: "shout"}, []string{"type"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateStruct(tt.value)
			if tt.fields == nil {
				assert.NoError(t, err)
				return
			}

			var apiErr *apierrors.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, "VALIDATION_FAILED", apiErr.ErrorCode)
			details, ok := apiErr.Details.(apierrors.ValidationErrors)
			require.True(t, ok)
			var fields []string
			for _, fe := range details.Errors {
				fields = append(fields, fe.Field)
			}
			assert.Equal(t, tt.fields, fields)
		})
	}
}

func TestValidationMessages(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	v := NewValidationMiddleware(logger, apierrors.NewErrorHandler(logger, false))

	err := v.ValidateStruct(api.SettingsQuery{SampleRows: 1500})
	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	details := apiErr.Details.(apierrors.ValidationErrors)
	assert.Equal(t, "sample_rows must be a multiple of 1000", details.Errors[0].Message)
}

func TestContentTypeValidator(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	v := NewValidationMiddleware(logger, apierrors.NewErrorHandler(logger, false))
	h := v.ContentTypeValidator("multipart/form-data")(okHandler)

	tests := []struct {
		name        string
		method      string
		contentType string
		want        int
	}{
		{"get skips", http.MethodGet, "", http.StatusOK},
		{"multipart", http.MethodPost, "multipart/form-data; boundary=xyz", http.StatusOK},
		{"missing", http.MethodPost, "", http.StatusBadRequest},
		{"json", http.MethodPost, "application/json", http.StatusUnsupportedMediaType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/datasets", strings.NewReader("x"))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
