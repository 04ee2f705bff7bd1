package presenter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/quake-trends-etl/internal/domain"
	"github.com/couchcryptid/quake-trends-etl/internal/observability"
)

// ErrNoData is returned when no backend could provide the dataset.
var ErrNoData = errors.New("no data source available")

// Snapshot is a loaded dataset and where it came from.
type Snapshot struct {
	Frame    domain.Frame
	Source   string
	Version  string
	LoadedAt time.Time
}

// Loader tries its backends in order and returns the first dataset that
// loads. The dataset is cached until the winning backend reports a new version.
type Loader struct {
	backends []Backend
	logger   *slog.Logger
	metrics  *observability.Metrics

	mu     sync.Mutex
	cached *Snapshot
}

// NewLoader creates a Loader over backends in priority order.
func NewLoader(backends []Backend, logger *slog.Logger, metrics *observability.Metrics) *Loader {
	return &Loader{backends: backends, logger: logger, metrics: metrics}
}

// Load returns the current dataset. Backend errors fall through to the next
// backend; if every backend fails the joined errors are wrapped in ErrNoData.
func (l *Loader) Load(ctx context.Context) (*Snapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var errs []error
	for _, b := range l.backends {
		version, err := b.Version(ctx)
		if err != nil {
			errs = append(errs, l.fail(b, "version", err))
			continue
		}

		if l.cached != nil && l.cached.Source == b.Name() && l.cached.Version == version {
			l.metrics.LoaderCache.WithLabelValues("hit").Inc()
			return l.cached, nil
		}
		l.metrics.LoaderCache.WithLabelValues("miss").Inc()

		events, err := b.Load(ctx)
		if err != nil {
			errs = append(errs, l.fail(b, "load", err))
			continue
		}

		l.cached = &Snapshot{
			Frame:    domain.NewFrame(events),
			Source:   b.Name(),
			Version:  version,
			LoadedAt: domain.Now(),
		}
		l.metrics.LoaderSource.WithLabelValues(b.Name(), "success").Inc()
		l.metrics.DatasetRows.Set(float64(len(events)))
		l.logger.Info("dataset loaded", "source", b.Name(), "version", version, "rows", len(events))
		return l.cached, nil
	}
	if len(errs) == 0 {
		return nil, ErrNoData
	}
	return nil, fmt.Errorf("%w: %w", ErrNoData, errors.Join(errs...))
}

func (l *Loader) fail(b Backend, step string, err error) error {
	l.metrics.LoaderSource.WithLabelValues(b.Name(), "error").Inc()
	l.logger.Warn("data source unavailable, trying next", "source", b.Name(), "step", step, "error", err)
	return fmt.Errorf("%s %s: %w", b.Name(), step, err)
}
