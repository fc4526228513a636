package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wlfogle/mediafetch/internal/app"
	"github.com/wlfogle/mediafetch/internal/domain"
)

type fakeHistory struct {
	records []*domain.AcquisitionRecord
}

func (f *fakeHistory) Create(record *domain.AcquisitionRecord) error {
	f.records = append(f.records, record)
	return nil
}

func (f *fakeHistory) FindByID(id string) (*domain.AcquisitionRecord, error) {
	for _, r := range f.records {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, nil
}

func (f *fakeHistory) FindByOutcome(outcome domain.ItemOutcome) ([]*domain.AcquisitionRecord, error) {
	var out []*domain.AcquisitionRecord
	for _, r := range f.records {
		if r.Outcome == outcome {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeHistory) Recent(limit int) ([]*domain.AcquisitionRecord, error) {
	if limit > len(f.records) {
		limit = len(f.records)
	}
	return f.records[:limit], nil
}

func (f *fakeHistory) GetStats() (*domain.HistoryStats, error) {
	return &domain.HistoryStats{Total: int64(len(f.records))}, nil
}

func serve(t *testing.T, router http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRouter_Health(t *testing.T) {
	router := NewRouter(&domain.Stats{}, nil, nil, zap.NewNop())

	w := serve(t, router, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, Version, body["version"])
}

func TestRouter_Stats(t *testing.T) {
	stats := &domain.Stats{}
	stats.RecordAttempted()
	stats.RecordSuccessful()
	router := NewRouter(stats, nil, nil, zap.NewNop())

	w := serve(t, router, http.MethodGet, "/api/v1/stats")
	require.Equal(t, http.StatusOK, w.Code)

	var snap domain.StatsSnapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, int64(1), snap.Attempted)
	assert.Equal(t, int64(1), snap.Successful)
}

func TestRouter_StatsDisabled(t *testing.T) {
	// The standalone history server has no live stats to serve.
	router := NewRouter(nil, nil, nil, zap.NewNop())

	w := serve(t, router, http.MethodGet, "/api/v1/stats")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(t, router, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_HistoryDisabled(t *testing.T) {
	router := NewRouter(&domain.Stats{}, nil, nil, zap.NewNop())

	for _, path := range []string{"/api/v1/history", "/api/v1/history/stats", "/api/v1/history/some-id"} {
		w := serve(t, router, http.MethodGet, path)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}
}

func TestRouter_HistoryRecords(t *testing.T) {
	history := &fakeHistory{}
	record := domain.NewAcquisitionRecord(&domain.Item{Title: "Torn Apart"}, domain.OutcomeSucceeded)
	require.NoError(t, history.Create(record))
	require.NoError(t, history.Create(
		domain.NewAcquisitionRecord(&domain.Item{Title: "Cold Storage"}, domain.OutcomeExhausted)))

	router := NewRouter(&domain.Stats{}, history, nil, zap.NewNop())

	w := serve(t, router, http.MethodGet, "/api/v1/history?outcome=succeeded")
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Count)

	w = serve(t, router, http.MethodGet, "/api/v1/history/"+record.ID)
	require.Equal(t, http.StatusOK, w.Code)
	var got domain.AcquisitionRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Torn Apart", got.ItemTitle)

	w = serve(t, router, http.MethodGet, "/api/v1/history/unknown-id")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(t, router, http.MethodGet, "/api/v1/history?limit=bogus")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(t, router, http.MethodGet, "/api/v1/history/stats")
	require.Equal(t, http.StatusOK, w.Code)
	var stats domain.HistoryStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, int64(2), stats.Total)
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	metrics := app.NewMetrics()
	metrics.IncItem("succeeded")

	router := NewRouter(&domain.Stats{}, nil, metrics, zap.NewNop())

	w := serve(t, router, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "mediafetch_items_total")
}

func TestRouter_MetricsDisabled(t *testing.T) {
	router := NewRouter(&domain.Stats{}, nil, nil, zap.NewNop())

	w := serve(t, router, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
