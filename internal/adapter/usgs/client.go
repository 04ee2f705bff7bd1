// Package usgs fetches earthquake events from the USGS FDSN event web service.
package usgs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/quake-trends-etl/internal/domain"
	"github.com/couchcryptid/quake-trends-etl/internal/observability"
)

// DefaultBaseURL is the public FDSN event query endpoint.
const DefaultBaseURL = "https://earthquake.usgs.gov/fdsnws/event/1/query"

// maxErrorBody bounds how much of a failed response is kept for diagnostics.
const maxErrorBody = 512

// StatusError is returned when the service answers with a non-200 status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("usgs API error: status %d: %s", e.StatusCode, e.Body)
}

// DecodeError is returned when a 200 response body is not a GeoJSON document.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return "decode response: " + e.Err.Error() }

func (e *DecodeError) Unwrap() error { return e.Err }

// Client queries the event service one window at a time.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a USGS client. Each request is bounded by timeout.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		metrics: metrics,
		logger:  logger,
	}
}

// FetchWindow requests every event in the window with magnitude at or above
// minMag and flattens the returned features in response order.
func (c *Client) FetchWindow(ctx context.Context, w domain.Window, minMag float64) ([]domain.Event, error) {
	params := url.Values{
		"format":       {"geojson"},
		"starttime":    {w.Start.Format(domain.DateLayout)},
		"endtime":      {w.End.Format(domain.DateLayout)},
		"minmagnitude": {strconv.FormatFloat(minMag, 'f', -1, 64)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := domain.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.FetchDuration.Observe(domain.Now().Sub(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("window %s request: %w", w.Label(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var fc domain.FeatureCollection
	if err := json.NewDecoder(resp.Body).Decode(&fc); err != nil {
		return nil, &DecodeError{Err: err}
	}

	events := make([]domain.Event, 0, len(fc.Features))
	for _, f := range fc.Features {
		events = append(events, domain.FlattenFeature(f))
	}
	c.logger.Debug("window fetched", "window", w.Label(), "events", len(events))
	return events, nil
}
