package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/quake-trends-etl/internal/adapter/usgs"
	"github.com/couchcryptid/quake-trends-etl/internal/domain"
	"github.com/couchcryptid/quake-trends-etl/internal/observability"
)

// WindowFetcher requests the events of one window from the upstream API.
type WindowFetcher interface {
	FetchWindow(ctx context.Context, w domain.Window, minMag float64) ([]domain.Event, error)
}

// Range is an inclusive span of calendar years.
type Range struct {
	StartYear int
	EndYear   int
}

// IngestOptions controls window planning and post-processing.
type IngestOptions struct {
	WindowPolicy string
	Concurrency  int  // windows in flight; 1 fetches strictly in order
	Dedup        bool // keep the first record per event ID
}

// Ingestor fetches every window of a range and concatenates the results.
type Ingestor struct {
	fetcher WindowFetcher
	opts    IngestOptions
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewIngestor creates an Ingestor with the given fetcher and observability.
func NewIngestor(f WindowFetcher, opts IngestOptions, logger *slog.Logger, metrics *observability.Metrics) *Ingestor {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Ingestor{fetcher: f, opts: opts, logger: logger, metrics: metrics}
}

// Fetch requests every window of r and returns the events in window order,
// preserving the API's order within each window. A window that fails is
// logged and skipped; only cancellation of ctx is returned as an error.
func (i *Ingestor) Fetch(ctx context.Context, r Range, minMag float64) ([]domain.Event, error) {
	windows, err := PlanWindows(r.StartYear, r.EndYear, i.opts.WindowPolicy)
	if err != nil {
		return nil, err
	}

	start := domain.Now()
	i.logger.Info("ingest started",
		"windows", len(windows),
		"policy", i.opts.WindowPolicy,
		"concurrency", i.opts.Concurrency,
		"min_magnitude", minMag,
	)

	results := make([][]domain.Event, len(windows))
	if i.opts.Concurrency == 1 {
		for n, w := range windows {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			results[n] = i.fetchOne(ctx, w, minMag)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(i.opts.Concurrency)
		for n, w := range windows {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				results[n] = i.fetchOne(gctx, w, minMag)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	var events []domain.Event
	failed := 0
	for n := range results {
		if results[n] == nil {
			failed++
		}
		events = append(events, results[n]...)
	}

	fetched := len(events)
	if i.opts.Dedup {
		events = domain.Dedup(events)
	}

	i.logger.Info("ingest complete",
		"windows", len(windows),
		"failed_windows", failed,
		"fetched", fetched,
		"events", len(events),
		"elapsed", domain.Now().Sub(start),
	)
	return events, nil
}

// fetchOne returns the window's events, or nil when the window failed.
func (i *Ingestor) fetchOne(ctx context.Context, w domain.Window, minMag float64) []domain.Event {
	events, err := i.fetcher.FetchWindow(ctx, w, minMag)
	if err != nil {
		outcome := windowOutcome(err)
		i.metrics.Windows.WithLabelValues(outcome).Inc()
		if ctx.Err() == nil {
			i.logger.Warn("window failed, skipping", "window", w.Label(), "outcome", outcome, "error", err)
		}
		return nil
	}
	i.metrics.Windows.WithLabelValues("success").Inc()
	i.metrics.EventsFetched.Add(float64(len(events)))
	if events == nil {
		events = []domain.Event{}
	}
	return events
}

func windowOutcome(err error) string {
	var statusErr *usgs.StatusError
	var decodeErr *usgs.DecodeError
	switch {
	case errors.As(err, &statusErr):
		return "http_error"
	case errors.As(err, &decodeErr):
		return "decode_error"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "transport_error"
	}
}
