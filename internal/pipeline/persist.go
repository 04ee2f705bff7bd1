package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/quake-trends-etl/internal/domain"
	"github.com/couchcryptid/quake-trends-etl/internal/observability"
)

// Sink is a persistence target for event records.
type Sink interface {
	Name() string
	Write(ctx context.Context, events []domain.Event) error
}

// Persister writes the same events to each sink in order.
type Persister struct {
	sinks   []Sink
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewPersister creates a Persister over the given sinks.
func NewPersister(sinks []Sink, logger *slog.Logger, metrics *observability.Metrics) *Persister {
	return &Persister{sinks: sinks, logger: logger, metrics: metrics}
}

// Persist writes events to every sink and stops at the first failure;
// sinks after the failing one are not written.
func (p *Persister) Persist(ctx context.Context, events []domain.Event) error {
	for _, s := range p.sinks {
		if err := s.Write(ctx, events); err != nil {
			p.metrics.PersistErrors.WithLabelValues(s.Name()).Inc()
			return fmt.Errorf("persist to %s: %w", s.Name(), err)
		}
		p.metrics.Persisted.WithLabelValues(s.Name()).Add(float64(len(events)))
		p.logger.Info("events persisted", "target", s.Name(), "count", len(events))
	}
	return nil
}
