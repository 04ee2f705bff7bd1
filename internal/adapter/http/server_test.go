package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/couchcryptid/quake-trends-etl/internal/adapter/http"
	"github.com/couchcryptid/quake-trends-etl/internal/catalog"
	"github.com/couchcryptid/quake-trends-etl/internal/presenter"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type mockDashboard struct {
	views []presenter.View
	err   error
}

func (m *mockDashboard) Render(_ context.Context) ([]presenter.View, error) {
	return m.views, m.err
}

func (m *mockDashboard) RenderOne(_ context.Context, id int) (presenter.View, error) {
	if m.err != nil {
		return presenter.View{}, m.err
	}
	for _, v := range m.views {
		if v.ID == id {
			return v, nil
		}
	}
	return presenter.View{}, fmt.Errorf("%w: %d", presenter.ErrUnknownQuery, id)
}

func sampleViews() []presenter.View {
	return []presenter.View{
		{
			ID: 1, Section: catalog.SectionMagnitude, Title: "Top 15 strongest earthquakes",
			Display: catalog.DisplayTable,
			SQL:     "SELECT place, mag, depth_km\nFROM earthquakes_raw\nORDER BY mag DESC\nLIMIT 15;",
			Table: catalog.Table{
				Columns: []string{"place", "mag", "depth_km"},
				Rows:    [][]any{{"Off the coast <Chile>", 7.8, 10.0}},
			},
		},
		{
			ID: 18, Section: catalog.SectionTsunami, Title: "Earthquakes by alert level",
			Display: catalog.DisplayChart,
			SQL:     "SELECT ...",
			Table: catalog.Table{
				Columns: []string{"alert_level", "count"},
				Rows:    [][]any{{"none", int64(3)}, {"red", int64(1)}},
			},
			Chart: &presenter.Chart{XLabel: "alert_level", YLabel: "count", Labels: []string{"none", "red"}, Values: []float64{3, 1}},
		},
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(dash *mockDashboard, readyErr error) *httpadapter.Server {
	return httpadapter.NewServer(":0", dash, &mockReadiness{err: readyErr}, discardLogger())
}

func get(srv http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	rec := get(newTestServer(&mockDashboard{}, nil), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := get(newTestServer(&mockDashboard{}, nil), "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	rec := get(newTestServer(&mockDashboard{}, fmt.Errorf("no dataset loaded yet")), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := get(newTestServer(&mockDashboard{}, nil), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestDashboardPage(t *testing.T) {
	rec := get(newTestServer(&mockDashboard{views: sampleViews()}, nil), "/")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	body := rec.Body.String()
	assert.Contains(t, body, "<h2>Magnitude &amp; Depth</h2>")
	assert.Contains(t, body, "<h2>Tsunami &amp; Alerts</h2>")
	assert.Contains(t, body, `<details id="q1">`)
	assert.Contains(t, body, "1. Top 15 strongest earthquakes")
	assert.Contains(t, body, "ORDER BY mag DESC")
	assert.Contains(t, body, "Off the coast &lt;Chile&gt;", "cells are escaped")
	assert.Contains(t, body, `class="fill"`)
	assert.Contains(t, body, "width: 100.0%")
	assert.Contains(t, body, "width: 33.3%")
}

func TestDashboardPageWithoutData(t *testing.T) {
	rec := get(newTestServer(&mockDashboard{err: fmt.Errorf("%w: file version: missing", presenter.ErrNoData)}, nil), "/")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "Run the ingest command")
}

func TestAPIQueries(t *testing.T) {
	rec := get(newTestServer(&mockDashboard{views: sampleViews()}, nil), "/api/queries")

	require.Equal(t, http.StatusOK, rec.Code)
	var body []struct {
		ID      int            `json:"id"`
		Display string         `json:"display"`
		Table   catalog.Table  `json:"table"`
		Chart   map[string]any `json:"chart"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 2)
	assert.Equal(t, "table", body[0].Display)
	assert.Nil(t, body[0].Chart)
	assert.Equal(t, "chart", body[1].Display)
	assert.Equal(t, []any{"none", "red"}, body[1].Chart["labels"])
}

func TestAPIQuery(t *testing.T) {
	srv := newTestServer(&mockDashboard{views: sampleViews()}, nil)

	rec := get(srv, "/api/queries/18")
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Earthquakes by alert level", body["title"])

	tests := []struct {
		path string
		want int
	}{
		{"/api/queries/31", http.StatusNotFound},
		{"/api/queries/abc", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, get(srv, tt.path).Code)
		})
	}
}

func TestAPIQueriesWithoutData(t *testing.T) {
	srv := newTestServer(&mockDashboard{err: presenter.ErrNoData}, nil)

	assert.Equal(t, http.StatusServiceUnavailable, get(srv, "/api/queries").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(srv, "/api/queries/1").Code)
}

func TestAPIQueryInternalError(t *testing.T) {
	rec := get(newTestServer(&mockDashboard{err: fmt.Errorf("query 1: connection reset")}, nil), "/api/queries/1")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection reset")
}
