// Package presenter evaluates the query catalog against the current dataset
// and shapes the results for display.
package presenter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/couchcryptid/quake-trends-etl/internal/catalog"
	"github.com/couchcryptid/quake-trends-etl/internal/domain"
	"github.com/couchcryptid/quake-trends-etl/internal/observability"
)

// ErrUnknownQuery is returned for a query ID that is not in the catalog.
var ErrUnknownQuery = errors.New("unknown query")

// QueryRunner executes a catalog query as SQL.
type QueryRunner interface {
	Query(ctx context.Context, q catalog.Query) (catalog.Table, error)
}

// Chart is a bar chart: one bar per result row.
type Chart struct {
	XLabel string    `json:"x_label"`
	YLabel string    `json:"y_label"`
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// View is one evaluated catalog entry.
type View struct {
	Query   catalog.Query   `json:"-"`
	ID      int             `json:"id"`
	Section string          `json:"section"`
	Title   string          `json:"title"`
	Display catalog.Display `json:"display"`
	SQL     string          `json:"sql"`
	Table   catalog.Table   `json:"table"`
	Chart   *Chart          `json:"chart,omitempty"`
}

// Options configures a Presenter.
type Options struct {
	// Dialect selects the SQL text shown next to each result.
	Dialect catalog.Dialect
	// Runner, when set, evaluates queries as SQL whenever the dataset was
	// loaded from the store. Otherwise the in-memory engine is used.
	Runner    QueryRunner
	CacheSize int
}

// Presenter renders the catalog against the dataset provided by a Loader.
type Presenter struct {
	loader  *Loader
	opts    Options
	cache   *lru.Cache[string, catalog.Table]
	logger  *slog.Logger
	metrics *observability.Metrics
	ready   atomic.Bool
}

// New creates a Presenter.
func New(loader *Loader, opts Options, logger *slog.Logger, metrics *observability.Metrics) (*Presenter, error) {
	size := opts.CacheSize
	if size < 1 {
		size = 128
	}
	cache, err := lru.New[string, catalog.Table](size)
	if err != nil {
		return nil, fmt.Errorf("result cache: %w", err)
	}
	return &Presenter{loader: loader, opts: opts, cache: cache, logger: logger, metrics: metrics}, nil
}

// CheckReadiness returns nil once a dataset has been loaded successfully.
func (p *Presenter) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no dataset loaded yet")
	}
	return nil
}

// Render evaluates every catalog entry in display order.
func (p *Presenter) Render(ctx context.Context) ([]View, error) {
	snap, err := p.load(ctx)
	if err != nil {
		return nil, err
	}

	queries := catalog.List()
	views := make([]View, 0, len(queries))
	for _, q := range queries {
		v, err := p.view(ctx, snap, q)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

// RenderOne evaluates a single catalog entry.
func (p *Presenter) RenderOne(ctx context.Context, id int) (View, error) {
	q, ok := catalog.Lookup(id)
	if !ok {
		return View{}, fmt.Errorf("%w: %d", ErrUnknownQuery, id)
	}
	snap, err := p.load(ctx)
	if err != nil {
		return View{}, err
	}
	return p.view(ctx, snap, q)
}

// Snapshot returns the current dataset, reloading it if its source changed.
func (p *Presenter) Snapshot(ctx context.Context) (*Snapshot, error) {
	return p.load(ctx)
}

func (p *Presenter) load(ctx context.Context) (*Snapshot, error) {
	snap, err := p.loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	p.ready.Store(true)
	return snap, nil
}

func (p *Presenter) view(ctx context.Context, snap *Snapshot, q catalog.Query) (View, error) {
	table, err := p.evaluate(ctx, snap, q)
	if err != nil {
		return View{}, err
	}
	v := View{
		Query:   q,
		ID:      q.ID,
		Section: q.Section,
		Title:   q.Title,
		Display: q.Display,
		SQL:     catalog.SQL(q, p.opts.Dialect),
		Table:   table,
	}
	if q.Display == catalog.DisplayChart {
		v.Chart = NewChart(table)
	}
	return v, nil
}

// evaluate runs a query, memoized per dataset version.
func (p *Presenter) evaluate(ctx context.Context, snap *Snapshot, q catalog.Query) (catalog.Table, error) {
	key := snap.Source + "|" + snap.Version + "|" + strconv.Itoa(q.ID)
	if t, ok := p.cache.Get(key); ok {
		p.metrics.ResultCache.WithLabelValues("hit").Inc()
		return t, nil
	}
	p.metrics.ResultCache.WithLabelValues("miss").Inc()

	engine := "memory"
	start := domain.Now()
	var (
		t   catalog.Table
		err error
	)
	if p.opts.Runner != nil && snap.Source == "store" {
		engine = "sql"
		t, err = p.opts.Runner.Query(ctx, q)
		if err != nil {
			return catalog.Table{}, fmt.Errorf("query %d: %w", q.ID, err)
		}
	} else {
		t = catalog.Run(q, snap.Frame)
	}
	p.metrics.QueryDuration.WithLabelValues(engine).Observe(domain.Now().Sub(start).Seconds())

	p.cache.Add(key, t)
	return t, nil
}

// NewChart builds bar-chart data from a two-column result: labels from the
// first column and bar heights from the second. Rows with a missing height
// are left out. It returns nil when the table has another shape or the
// second column is not numeric.
func NewChart(t catalog.Table) *Chart {
	if len(t.Columns) != 2 {
		return nil
	}
	c := &Chart{
		XLabel: t.Columns[0],
		YLabel: t.Columns[1],
		Labels: make([]string, 0, t.Len()),
		Values: make([]float64, 0, t.Len()),
	}
	for _, row := range t.Rows {
		if row[1] == nil {
			continue
		}
		v, ok := number(row[1])
		if !ok {
			return nil
		}
		label := catalog.FormatValue(row[0])
		if row[0] == nil {
			label = "(none)"
		}
		c.Labels = append(c.Labels, label)
		c.Values = append(c.Values, v)
	}
	return c
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
