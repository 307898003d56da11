package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accretioncli/internal/accretion"
	"accretioncli/internal/services"
	"accretioncli/pkg/contracts/domain"
)

// stubService is a hand-rolled AnalyticsService for handler tests.
type stubService struct {
	status  services.DatasetStatus
	labels  accretion.FilterSelection
	records []domain.Observation
	result  services.RecomputeResult
	err     error

	gotSource  string
	gotReplace bool
	gotReq     services.RecomputeRequest
}

func (s *stubService) LoadFromReader(ctx context.Context, r io.Reader, source string, replace bool) (services.DatasetStatus, error) {
	s.gotSource = source
	s.gotReplace = replace
	if s.err != nil {
		return services.DatasetStatus{}, s.err
	}
	io.Copy(io.Discard, r)
	return s.status, nil
}

func (s *stubService) Status(ctx context.Context) services.DatasetStatus {
	return s.status
}

func (s *stubService) ObservedLabels(ctx context.Context) (accretion.FilterSelection, error) {
	return s.labels, s.err
}

func (s *stubService) Records(ctx context.Context) ([]domain.Observation, error) {
	return s.records, s.err
}

func (s *stubService) Recompute(ctx context.Context, req services.RecomputeRequest) (services.RecomputeResult, error) {
	s.gotReq = req
	if s.err != nil {
		return services.RecomputeResult{}, s.err
	}
	return s.result, nil
}

func testRouter(svc AnalyticsService) chi.Router {
	r := chi.NewRouter()
	logger := slog.Default()
	r.Route("/api", func(r chi.Router) {
		NewDatasetHandler(svc, 1<<20, logger).RegisterRoutes(r)
		NewAnalyticsHandler(svc, logger).RegisterRoutes(r)
		NewHealthHandler(svc, logger).RegisterRoutes(r)
	})
	return r
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUpload(t *testing.T) {
	svc := &stubService{status: services.DatasetStatus{Loaded: true, Source: "u.xlsx", Observations: 3}}
	router := testRouter(svc)

	body, contentType := multipartBody(t, "file", "u.xlsx", []byte("workbook-bytes"))
	r := httptest.NewRequest(http.MethodPost, "/api/dataset?replace=true", body)
	r.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "u.xlsx", svc.gotSource)
	assert.True(t, svc.gotReplace)

	var status services.DatasetStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.True(t, status.Loaded)
}

func TestUploadMissingFile(t *testing.T) {
	router := testRouter(&stubService{})

	r := httptest.NewRequest(http.MethodPost, "/api/dataset", strings.NewReader("not multipart"))
	r.Header.Set("Content-Type", "multipart/form-data; boundary=xxxx")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadConflict(t *testing.T) {
	svc := &stubService{err: services.ErrAlreadyLoaded}
	router := testRouter(svc)

	body, contentType := multipartBody(t, "file", "u.xlsx", []byte("x"))
	r := httptest.NewRequest(http.MethodPost, "/api/dataset", body)
	r.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLabels(t *testing.T) {
	svc := &stubService{labels: accretion.FilterSelection{
		MassClasses: []string{domain.ClassLowMass, domain.ClassHighMass},
	}}
	router := testRouter(svc)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/analytics/labels", nil))

	assert.Equal(t, http.StatusOK, w.Code)

	var labels accretion.FilterSelection
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &labels))
	assert.Equal(t, []string{domain.ClassLowMass, domain.ClassHighMass}, labels.MassClasses)
}

func TestLabelsNotLoaded(t *testing.T) {
	router := testRouter(&stubService{err: services.ErrNotLoaded})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/analytics/labels", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "DATASET_NOT_LOADED")
}

func TestSummary(t *testing.T) {
	svc := &stubService{result: services.RecomputeResult{
		Summary: accretion.Summary{Count: 2, JetPowerIndex: 40},
	}}
	router := testRouter(svc)

	body := `{"mass_classes":["High Mass"],"spin_classes":["High Spin"],"eddington_classes":["Super-Eddington"]}`
	r := httptest.NewRequest(http.MethodPost, "/api/analytics/summary?include_records=true", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, svc.gotReq.IncludeRecords)
	assert.Equal(t, []string{"High Mass"}, svc.gotReq.Selection.MassClasses)

	var result services.RecomputeResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, 2, result.Summary.Count)
}

func TestSummaryEmptyBodyMeansDefaults(t *testing.T) {
	svc := &stubService{}
	router := testRouter(svc)

	r := httptest.NewRequest(http.MethodPost, "/api/analytics/summary", nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, svc.gotReq.Selection.MassClasses, "empty body must leave dimensions nil for defaulting")
}

func TestSummaryMalformedBody(t *testing.T) {
	router := testRouter(&stubService{})

	r := httptest.NewRequest(http.MethodPost, "/api/analytics/summary", strings.NewReader("{broken"))
	r.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSummaryValidation(t *testing.T) {
	router := testRouter(&stubService{})

	// 17 labels on one dimension exceeds the max of 16.
	labels := make([]string, 17)
	for i := range labels {
		labels[i] = "x"
	}
	body, err := json.Marshal(accretion.FilterSelection{MassClasses: labels})
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodPost, "/api/analytics/summary", bytes.NewReader(body))
	r.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_FAILED")
}

func TestRecords(t *testing.T) {
	svc := &stubService{records: []domain.Observation{{ID: "BH-001"}, {ID: "BH-002"}}}
	router := testRouter(svc)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/analytics/records", nil))

	assert.Equal(t, http.StatusOK, w.Code)

	var records []domain.Observation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
	assert.Len(t, records, 2)
}

func TestHealthAndVersion(t *testing.T) {
	router := testRouter(&stubService{status: services.DatasetStatus{Loaded: true}})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"dataset_loaded":true`)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/version", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "accretion-analytics")
}
