package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"valido/internal/validation"
	dErrors "valido/pkg/domain-errors"
)

type stubService struct {
	gotFileType string
	gotLines    []string
	report      *validation.Report
	err         error
	schemas     []validation.SchemaInfo
}

func (s *stubService) ValidateFile(_ context.Context, fileType string, lines []string) (*validation.Report, error) {
	s.gotFileType = fileType
	s.gotLines = lines
	if s.err != nil {
		return nil, s.err
	}
	return s.report, nil
}

func (s *stubService) Schemas() []validation.SchemaInfo {
	return s.schemas
}

func newTestRouter(svc Service) *chi.Mux {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	New(svc, logger).Register(r)
	return r
}

func sampleReport() *validation.Report {
	return &validation.Report{
		RunID:      "8e296a06-7fc5-4b11-8a79-6e4a9b9c1d00",
		StartedAt:  time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC),
		DurationMS: 3,
		Result: &validation.FileResult{
			FileType:       "sua",
			TotalRecords:   4,
			RecordCounts:   map[string]int{"01": 1, "02": 2, "09": 1},
			ValidRecords:   3,
			InvalidRecords: 1,
			Valid:          false,
			Violations: []validation.Violation{
				{
					LineNumber: 2,
					RuleCode:   "E-SUA-NSS",
					Field:      "nss",
					Severity:   "error",
					Kind:       validation.KindRule,
					Message:    "nss failed its check digit",
				},
			},
			RuleHits:      map[string]int{"SUA-NSS-CHECK": 1},
			ViolatedCodes: []string{"E-SUA-NSS"},
		},
	}
}

func TestHandleValidate(t *testing.T) {
	t.Run("returns the run report", func(t *testing.T) {
		svc := &stubService{report: sampleReport()}
		router := newTestRouter(svc)

		body := `{"file_type":"sua","lines":["01AAA","02BBB"]}`
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/files/validate", strings.NewReader(body)))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "sua", svc.gotFileType)
		assert.Equal(t, []string{"01AAA", "02BBB"}, svc.gotLines)

		var resp ValidateResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, "8e296a06-7fc5-4b11-8a79-6e4a9b9c1d00", resp.RunID)
		assert.False(t, resp.Summary.Valid)
		require.Len(t, resp.Violations, 1)
		assert.Equal(t, "E-SUA-NSS", resp.Violations[0].RuleCode)
		assert.Equal(t, "error", resp.Violations[0].Severity)
	})

	t.Run("splits raw content into lines", func(t *testing.T) {
		svc := &stubService{report: sampleReport()}
		router := newTestRouter(svc)

		body := `{"file_type":"sua","content":"01AAA\r\n02BBB\r\n"}`
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/files/validate", strings.NewReader(body)))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{"01AAA", "02BBB"}, svc.gotLines)
	})

	t.Run("missing file type is rejected", func(t *testing.T) {
		router := newTestRouter(&stubService{})

		body := `{"lines":["01AAA"]}`
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/files/validate", strings.NewReader(body)))

		require.Equal(t, http.StatusUnprocessableEntity, w.Code)

		var envelope map[string]string
		require.NoError(t, json.NewDecoder(w.Body).Decode(&envelope))
		assert.Equal(t, "invalid_input", envelope["error"])
		assert.Contains(t, envelope["error_description"], "file_type")
	})

	t.Run("both lines and content rejected", func(t *testing.T) {
		router := newTestRouter(&stubService{})

		body := `{"file_type":"sua","lines":["01AAA"],"content":"01AAA"}`
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/files/validate", strings.NewReader(body)))

		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("malformed JSON is a bad request", func(t *testing.T) {
		router := newTestRouter(&stubService{})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/files/validate", strings.NewReader(`{"file_type":`)))

		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown file type maps through the error envelope", func(t *testing.T) {
		svc := &stubService{err: dErrors.New(dErrors.CodeInvalidInput, "unknown file type nomina")}
		router := newTestRouter(svc)

		body := `{"file_type":"nomina","lines":["01AAA"]}`
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/files/validate", strings.NewReader(body)))

		require.Equal(t, http.StatusUnprocessableEntity, w.Code)

		var envelope map[string]string
		require.NoError(t, json.NewDecoder(w.Body).Decode(&envelope))
		assert.Equal(t, "invalid_input", envelope["error"])
	})

	t.Run("internal failures hide details", func(t *testing.T) {
		svc := &stubService{err: dErrors.New(dErrors.CodeInternal, "rules table unreachable")}
		router := newTestRouter(svc)

		body := `{"file_type":"sua","lines":["01AAA"]}`
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/files/validate", strings.NewReader(body)))

		require.Equal(t, http.StatusInternalServerError, w.Code)

		var envelope map[string]string
		require.NoError(t, json.NewDecoder(w.Body).Decode(&envelope))
		assert.Equal(t, "internal_error", envelope["error"])
		assert.NotContains(t, envelope, "error_description")
	})
}

func TestHandleSchemas(t *testing.T) {
	svc := &stubService{schemas: []validation.SchemaInfo{
		{FileType: "dispersion", LineLength: 98, RecordTypes: []string{"01", "02", "09"}},
		{FileType: "sua", LineLength: 120, RecordTypes: []string{"01", "02", "09"}},
	}}
	router := newTestRouter(svc)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/files/schemas", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var resp SchemasResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Len(t, resp.Schemas, 2)
	assert.Equal(t, "sua", resp.Schemas[1].FileType)
	assert.Equal(t, 120, resp.Schemas[1].LineLength)
}
