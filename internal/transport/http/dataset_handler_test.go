package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"dataexplorer/internal/analytics"
	"dataexplorer/internal/config"
	apierrors "dataexplorer/internal/errors"
	"dataexplorer/internal/infrastructure"
	"dataexplorer/internal/middleware"
	"dataexplorer/internal/services"
	"dataexplorer/internal/shared/testutil"
	"dataexplorer/pkg/contracts/domain"
)

type testAPI struct {
	router  chi.Router
	service *services.ExplorerService
}

func newTestAPI(t *testing.T, mutate ...func(*config.Config)) *testAPI {
	t.Helper()
	cfg := config.Default()
	for _, m := range mutate {
		m(cfg)
	}
	logger, _ := testutil.NewTestLogger(t)
	errorHandler := apierrors.NewErrorHandler(logger, false)

	svc := services.NewExplorerService(cfg, infrastructure.NoopBusinessMetrics(), logger)
	t.Cleanup(svc.Close)

	h := NewDatasetHandler(svc, middleware.NewValidationMiddleware(logger, errorHandler), cfg.Upload.MaxBytes, logger, errorHandler)
	r := chi.NewRouter()
	r.Mount("/api/datasets", h.Routes())
	return &testAPI{router: r, service: svc}
}

func (a *testAPI) do(t *testing.T, method, target string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, body)
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func multipartUpload(t *testing.T, filename, sheet string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	if sheet != "" {
		require.NoError(t, w.WriteField("sheet", sheet))
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func (a *testAPI) upload(t *testing.T) domain.DatasetInfo {
	t.Helper()
	body, ct := multipartUpload(t, "sample.csv", "", []byte(testutil.SampleCSV))
	rec := a.do(t, http.MethodPost, "/api/datasets", body, ct)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var info domain.DatasetInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	return info
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	assert.Equal(t, apierrors.ProblemContentType, rec.Header().Get("Content-Type"))
	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	return problem
}

func TestDatasetHandler_UploadListGetDelete(t *testing.T) {
	api := newTestAPI(t)
	info := api.upload(t)

	assert.Equal(t, "sample.csv", info.Name)
	assert.Equal(t, 6, info.Rows)
	assert.Equal(t, 5, info.Columns)

	rec := api.do(t, http.MethodGet, "/api/datasets", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Datasets []domain.DatasetInfo `json:"datasets"`
		Count    int                  `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Count)
	assert.Equal(t, info.ID, list.Datasets[0].ID)

	rec = api.do(t, http.MethodGet, "/api/datasets/"+info.ID, nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodDelete, "/api/datasets/"+info.ID, nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/datasets/"+info.ID, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, apierrors.TypeDatasetNotFound, decodeProblem(t, rec)["type"])
}

func TestDatasetHandler_UploadErrors(t *testing.T) {
	tests := []struct {
		name         string
		filename     string
		content      string
		maxBytes     int64
		expectedCode int
		expectedType string
		detail       string
	}{
		{
			name:         "missing file",
			expectedCode: http.StatusBadRequest,
			expectedType: apierrors.TypeValidation,
		},
		{
			name:         "unsupported extension",
			filename:     "notes.txt",
			content:      "a\n1\n",
			expectedCode: http.StatusBadRequest,
			expectedType: apierrors.TypeUnsupportedFile,
		},
		{
			name:         "unreadable",
			filename:     "bad.csv",
			content:      "a\n1,2\n",
			expectedCode: http.StatusUnprocessableEntity,
			expectedType: apierrors.TypeDatasetUnreadable,
			detail:       "Failed to read file: error tokenizing data: expected 1 fields in line 2, saw 2",
		},
		{
			name:         "empty",
			filename:     "empty.csv",
			content:      "a,b\n",
			expectedCode: http.StatusUnprocessableEntity,
			expectedType: apierrors.TypeDatasetEmpty,
			detail:       "Your file loaded but appears to be empty.",
		},
		{
			name:         "too large",
			filename:     "big.csv",
			content:      "a,b,c\n" + strings.Repeat("1,2,3\n", 100),
			maxBytes:     64,
			expectedCode: http.StatusRequestEntityTooLarge,
			expectedType: apierrors.TypePayloadTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t, func(c *config.Config) {
				if tt.maxBytes > 0 {
					c.Upload.MaxBytes = tt.maxBytes
				}
			})

			body, ct := multipartUpload(t, tt.filename, "", []byte(tt.content))
			rec := api.do(t, http.MethodPost, "/api/datasets", body, ct)

			assert.Equal(t, tt.expectedCode, rec.Code, rec.Body.String())
			problem := decodeProblem(t, rec)
			assert.Equal(t, tt.expectedType, problem["type"])
			if tt.detail != "" {
				assert.Equal(t, tt.detail, problem["detail"])
			}
		})
	}
}

func TestDatasetHandler_UploadExcelSheet(t *testing.T) {
	api := newTestAPI(t)
	book := testutil.BuildWorkbook(t,
		testutil.Sheet{Name: "Intro", Rows: [][]interface{}{{"note"}}},
		testutil.Sheet{Name: "Data", Rows: [][]interface{}{{"x", "y"}, {1, 2}, {3, 4}}},
	)

	body, ct := multipartUpload(t, "book.xlsx", "Data", book)
	rec := api.do(t, http.MethodPost, "/api/datasets", body, ct)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var info domain.DatasetInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "Data", info.Sheet)
	assert.Equal(t, 2, info.Rows)
	assert.Equal(t, "/api/datasets/"+info.ID, rec.Header().Get("Location"))
}

func TestDatasetHandler_UnknownDataset(t *testing.T) {
	api := newTestAPI(t)

	for _, target := range []string{
		"/api/datasets/not-a-uuid/preview",
		"/api/datasets/7d1c8f0e-4c55-4a0e-9a59-0d9f1f2b8c11/preview",
	} {
		rec := api.do(t, http.MethodGet, target, nil, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, target)
		assert.Equal(t, apierrors.TypeDatasetNotFound, decodeProblem(t, rec)["type"])
	}
}

func TestDatasetHandler_SettingsValidation(t *testing.T) {
	api := newTestAPI(t)
	info := api.upload(t)

	tests := []struct {
		name   string
		query  string
		fields []interface{}
	}{
		{"not a bool", "drop_duplicates=maybe", []interface{}{"drop_duplicates"}},
		{"not an int", "sample_rows=lots", []interface{}{"sample_rows"}},
		{"off step", "sample_rows=1500", []interface{}{"sample_rows"}},
		{"two bad params", "impute_numeric=x&sample_rows=y", []interface{}{"impute_numeric", "sample_rows"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.do(t, http.MethodGet, "/api/datasets/"+info.ID+"/schema?"+tt.query, nil, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			problem := decodeProblem(t, rec)
			assert.Equal(t, apierrors.TypeValidation, problem["type"])
			errs, ok := problem["errors"].([]interface{})
			require.True(t, ok)
			var fields []interface{}
			for _, e := range errs {
				fields = append(fields, e.(map[string]interface{})["field"])
			}
			assert.Equal(t, tt.fields, fields)
		})
	}
}

func TestDatasetHandler_Views(t *testing.T) {
	api := newTestAPI(t)
	info := api.upload(t)
	base := "/api/datasets/" + info.ID

	t.Run("preview", func(t *testing.T) {
		rec := api.do(t, http.MethodGet, base+"/preview", nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
		var p domain.Preview
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
		assert.Equal(t, 5, p.Shown)
		assert.Equal(t, "Showing up to 500 rows (sampled = False). Full rows: 5", p.Caption)
	})

	t.Run("missing without cleaning", func(t *testing.T) {
		rec := api.do(t, http.MethodGet, base+"/missing?drop_duplicates=false&impute_numeric=false&impute_categorical=false", nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
		var m domain.MissingReport
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
		assert.Len(t, m.Columns, 4)
	})

	t.Run("describe", func(t *testing.T) {
		rec := api.do(t, http.MethodGet, base+"/describe", nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"columns"`)
	})

	t.Run("correlation json", func(t *testing.T) {
		rec := api.do(t, http.MethodGet, base+"/correlation", nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
		var m domain.CorrelationMatrix
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
		assert.Equal(t, []string{"temp", "visits"}, m.Columns)
	})

	t.Run("correlation png", func(t *testing.T) {
		rec := api.do(t, http.MethodGet, base+"/correlation?format=png", nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
		assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))
	})

	t.Run("chart svg", func(t *testing.T) {
		rec := api.do(t, http.MethodGet, base+"/chart?x=city&format=svg", nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	})

	t.Run("chart notice falls back to json", func(t *testing.T) {
		rec := api.do(t, http.MethodGet, base+"/chart?x=city&kind=scatter&format=png", nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
		var c domain.Chart
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))
		assert.NotEmpty(t, c.Notice)
	})

	t.Run("chart bad kind", func(t *testing.T) {
		rec := api.do(t, http.MethodGet, base+"/chart?x=city&kind=pie", nil, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("pca", func(t *testing.T) {
		rec := api.do(t, http.MethodGet, base+"/pca", nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
		var res domain.PCAResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.Equal(t, 2, res.Components)
		assert.True(t, res.Standardized)
	})

	t.Run("pca too many components", func(t *testing.T) {
		rec := api.do(t, http.MethodGet, base+"/pca?components=3", nil, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("view with pca", func(t *testing.T) {
		rec := api.do(t, http.MethodGet, base+"/view?pca=true", nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
		var v domain.View
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
		assert.Equal(t, 5, v.Summary.DisplayRows)
		require.NotNil(t, v.PCA)
	})

	t.Run("view without pca ignores components", func(t *testing.T) {
		rec := api.do(t, http.MethodGet, base+"/view?components=1", nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
		var v domain.View
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
		assert.Nil(t, v.PCA)
	})
}

func TestDatasetHandler_Exports(t *testing.T) {
	api := newTestAPI(t)
	info := api.upload(t)
	base := "/api/datasets/" + info.ID

	rec := api.do(t, http.MethodGet, base+"/export/cleaned.csv", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename=cleaned_sample.csv`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "5", rec.Header().Get("X-Row-Count"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "city,temp,visits,active,joined\n"))

	rec = api.do(t, http.MethodGet, base+"/export/pca.csv", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename=data_with_pca.csv`, rec.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "city,temp,visits,active,joined,PC1,PC2\n"))
}

func TestDatasetHandler_ExportPCAUnavailable(t *testing.T) {
	api := newTestAPI(t)
	body, ct := multipartUpload(t, "one.csv", "", []byte("name,score\na,1\nb,2\n"))
	rec := api.do(t, http.MethodPost, "/api/datasets", body, ct)
	require.Equal(t, http.StatusCreated, rec.Code)
	var info domain.DatasetInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))

	rec = api.do(t, http.MethodGet, "/api/datasets/"+info.ID+"/export/pca.csv", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, analytics.NoticePCAPrecondition, decodeProblem(t, rec)["detail"])
}

// failingService overrides single operations with testify mocks
type failingService struct {
	ExplorerServiceInterface
	mock.Mock
}

func (m *failingService) Preview(ctx context.Context, id string, settings domain.ViewSettings) (*domain.Preview, error) {
	args := m.Called(id, settings)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Preview), args.Error(1)
}

func TestDatasetHandler_ServiceErrors(t *testing.T) {
	const id = "7d1c8f0e-4c55-4a0e-9a59-0d9f1f2b8c11"

	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedType   string
	}{
		{"unexpected", errors.New("disk on fire"), http.StatusInternalServerError, apierrors.TypeInternal},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, apierrors.TypeTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			errorHandler := apierrors.NewErrorHandler(logger, false)
			svc := &failingService{}
			svc.On("Preview", id, domain.DefaultViewSettings()).Return(nil, tt.err)

			h := NewDatasetHandler(svc, middleware.NewValidationMiddleware(logger, errorHandler), 1<<20, logger, errorHandler)
			r := chi.NewRouter()
			r.Mount("/api/datasets", h.Routes())

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/datasets/"+id+"/preview", nil))

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Equal(t, tt.expectedType, decodeProblem(t, rec)["type"])
			svc.AssertExpectations(t)
		})
	}
}
