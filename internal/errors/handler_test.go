package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dataexplorer/internal/shared/testutil"
)

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestErrorHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
		wantDetail string
	}{
		{
			name:       "context deadline exceeded",
			err:        fmt.Errorf("describe: %w", context.DeadlineExceeded),
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
		},
		{
			name:       "api validation error",
			err:        ErrValidation("kind", "must be one of bar line scatter box"),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
			wantDetail: "Request validation failed",
		},
		{
			name:       "dataset not found",
			err:        NewNotFoundError("dataset", nil).WithContext("dataset_id", "abc"),
			wantStatus: http.StatusNotFound,
			wantType:   TypeDatasetNotFound,
		},
		{
			name:       "parsing app error keeps user message",
			err:        fmt.Errorf("upload: %w", NewParsingError(fmt.Errorf("bare \" in non-quoted field"))),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeDatasetUnreadable,
			wantDetail: "Failed to read file: bare \" in non-quoted field",
		},
		{
			name:       "empty dataset",
			err:        NewEmptyDatasetError(nil),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeDatasetEmpty,
			wantDetail: "Your file loaded but appears to be empty.",
		},
		{
			name:       "too large",
			err:        NewTooLargeError(10, nil),
			wantStatus: http.StatusRequestEntityTooLarge,
			wantType:   TypePayloadTooLarge,
		},
		{
			name:       "unsupported file",
			err:        NewUnsupportedFileError("unsupported file type: .pdf", nil),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeUnsupportedFile,
			wantDetail: "unsupported file type: .pdf",
		},
		{
			name:       "storage error hides internals",
			err:        NewStorageError("registry corrupted", fmt.Errorf("secret detail")),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
		},
		{
			name:       "unknown error",
			err:        fmt.Errorf("boom"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			handler := NewErrorHandler(logger, false)

			req := httptest.NewRequest(http.MethodGet, "/api/datasets/x", nil)
			rec := httptest.NewRecorder()
			handler.HandleError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, ProblemContentType, rec.Header().Get("Content-Type"))

			body := decodeProblem(t, rec)
			assert.Equal(t, tt.wantType, body["type"])
			assert.Equal(t, float64(tt.wantStatus), body["status"])
			assert.Equal(t, "/api/datasets/x", body["instance"])
			if tt.wantDetail != "" {
				assert.Equal(t, tt.wantDetail, body["detail"])
			}
			assert.NotContains(t, rec.Body.String(), "secret detail")
		})
	}
}

func TestErrorHandler_NilError(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)

	rec := httptest.NewRecorder()
	h.HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil)

	assert.Empty(t, handler.GetRecords())
	assert.Empty(t, rec.Body.String())
}

func TestErrorHandler_ValidationErrorsExtension(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)

	err := NewValidationErrors([]ValidationError{
		{Field: "sample_rows", Message: "must be a multiple of 1000"},
		{Field: "agg", Message: "must be one of count sum mean median"},
	})

	rec := httptest.NewRecorder()
	h.HandleError(rec, httptest.NewRequest(http.MethodGet, "/chart", nil), err)

	body := decodeProblem(t, rec)
	errs, ok := body["errors"].([]interface{})
	require.True(t, ok)
	require.Len(t, errs, 2)
	first := errs[0].(map[string]interface{})
	assert.Equal(t, "sample_rows", first["field"])
}

func TestErrorHandler_LogsWarnForClientErrors(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)

	h.HandleError(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil), NewNotFoundError("dataset", nil))
	h.HandleError(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil), fmt.Errorf("boom"))

	assert.Len(t, handler.GetRecordsByLevel(slog.LevelWarn), 1)
	testutil.AssertLogContains(t, handler, slog.LevelError, "request failed")
}

func TestRecoveryMiddleware(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, true)

	panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("kaboom")
	})

	rec := httptest.NewRecorder()
	RecoveryMiddleware(h)(panicking).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeProblem(t, rec)
	assert.Equal(t, "kaboom", body["panic"])
	assert.True(t, handler.ContainsMessage("panic recovered"))
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)

	rec := httptest.NewRecorder()
	h.NotFound(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.MethodNotAllowed(rec, httptest.NewRequest(http.MethodPatch, "/api/datasets", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, decodeProblem(t, rec)["detail"], "PATCH")
}

func TestAppError(t *testing.T) {
	cause := fmt.Errorf("row 3: wrong number of fields")
	err := NewParsingError(cause).WithContext("file", "a.csv")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "a.csv", err.Context["file"])
	assert.Contains(t, err.Error(), "[PARSING]")
	assert.Equal(t, http.StatusUnprocessableEntity, err.HTTPStatus())
	assert.Equal(t, http.StatusNotFound, NewNotFoundError("dataset", nil).HTTPStatus())
	assert.Equal(t, http.StatusInternalServerError, NewConfigError("bad", nil).HTTPStatus())
}

func TestProblemDetailsMarshal(t *testing.T) {
	p := NewProblemDetails(http.StatusBadRequest, TypeValidation, "Bad Request", "", "").
		WithExtension("error_code", "X").
		WithExtension("status", 999)

	data, err := json.Marshal(p)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, float64(http.StatusBadRequest), body["status"], "standard members win over extensions")
	assert.Equal(t, "X", body["error_code"])
	assert.NotContains(t, body, "detail")
}
