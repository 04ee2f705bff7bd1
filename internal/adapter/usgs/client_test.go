package usgs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/quake-trends-etl/internal/domain"
	"github.com/couchcryptid/quake-trends-etl/internal/observability"
)

const (
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

const twoFeatures = `{
  "type": "FeatureCollection",
  "metadata": {"count": 2},
  "features": [
    {
      "type": "Feature",
      "id": "us7000abcd",
      "properties": {"mag": 6.1, "place": "10 km S of Somewhere", "time": 1704067200000,
        "updated": 1704070800000, "tsunami": 1, "sig": 572, "alert": "green", "net": "us",
        "magType": "mww", "status": "reviewed", "type": "earthquake", "types": ",origin,phase-data,"},
      "geometry": {"type": "Point", "coordinates": [142.5, 38.1, 35.2]}
    },
    {
      "type": "Feature",
      "id": "ak0241xyz",
      "properties": {"mag": 4.2, "place": null, "time": 1704153600000},
      "geometry": {"type": "Point", "coordinates": [-150.1, 61.3]}
    }
  ]
}`

func testClient(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		metrics:    observability.NewMetricsForTesting(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func testWindow() domain.Window {
	return domain.Window{
		Start: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestClient_FetchWindow_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "geojson", q.Get("format"))
		assert.Equal(t, "2024-01-01", q.Get("starttime"))
		assert.Equal(t, "2024-02-01", q.Get("endtime"))
		assert.Equal(t, "4", q.Get("minmagnitude"))

		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(twoFeatures))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	events, err := c.FetchWindow(context.Background(), testWindow(), 4)
	require.NoError(t, err)
	require.Len(t, events, 2)

	first := events[0]
	assert.Equal(t, "us7000abcd", first.ID)
	require.NotNil(t, first.Latitude)
	assert.InDelta(t, 38.1, *first.Latitude, 1e-9)
	assert.InDelta(t, 142.5, *first.Longitude, 1e-9)
	assert.InDelta(t, 35.2, *first.DepthKm, 1e-9)
	assert.Equal(t, "green", *first.Alert)
	assert.Equal(t, "earthquake", *first.EventType)
	assert.Equal(t, int64(1), *first.Tsunami)

	second := events[1]
	assert.Equal(t, "ak0241xyz", second.ID)
	assert.Nil(t, second.Place)
	assert.Nil(t, second.DepthKm, "missing third coordinate stays nil")
	assert.Nil(t, second.Alert)

	assert.Equal(t, 1, testutil.CollectAndCount(c.metrics.FetchDuration))
}

func TestClient_FetchWindow_EmptyCollection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{"type":"FeatureCollection","features":[]}`))
	}))
	defer srv.Close()

	events, err := testClient(srv.URL).FetchWindow(context.Background(), testWindow(), 4)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestClient_FetchWindow_MissingFeatures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"type":"FeatureCollection"}`))
	}))
	defer srv.Close()

	events, err := testClient(srv.URL).FetchWindow(context.Background(), testWindow(), 4)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestClient_FetchWindow_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("maintenance"))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).FetchWindow(context.Background(), testWindow(), 4)
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.Equal(t, "maintenance", statusErr.Body)
}

func TestClient_FetchWindow_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{"features": [`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).FetchWindow(context.Background(), testWindow(), 4)

	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
}

func TestClient_FetchWindow_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{"features":[]}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	c.httpClient.Timeout = 20 * time.Millisecond

	_, err := c.FetchWindow(context.Background(), testWindow(), 4)
	require.Error(t, err)

	var statusErr *StatusError
	var decodeErr *DecodeError
	assert.False(t, errors.As(err, &statusErr))
	assert.False(t, errors.As(err, &decodeErr))
}

func TestClient_FetchWindow_Canceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"features":[]}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testClient(srv.URL).FetchWindow(ctx, testWindow(), 4)
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewClient_DefaultBaseURL(t *testing.T) {
	c := NewClient("", time.Second, observability.NewMetricsForTesting(), slog.Default())
	assert.Equal(t, DefaultBaseURL, c.baseURL)
	assert.Equal(t, time.Second, c.httpClient.Timeout)
}
