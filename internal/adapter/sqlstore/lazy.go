package sqlstore

import (
	"context"
	"log/slog"
	"sync"

	"github.com/couchcryptid/quake-trends-etl/internal/catalog"
	"github.com/couchcryptid/quake-trends-etl/internal/domain"
)

// Lazy opens the store on first use and retries on every call until a
// connection succeeds, so a database that is down at startup is picked up
// once it comes back.
type Lazy struct {
	driver string
	dsn    string
	opts   Options
	logger *slog.Logger

	mu    sync.Mutex
	store *Store
}

// NewLazy returns a store that connects on demand.
func NewLazy(driver, dsn string, opts Options, logger *slog.Logger) *Lazy {
	return &Lazy{driver: driver, dsn: dsn, opts: opts, logger: logger}
}

func (l *Lazy) get(ctx context.Context) (*Store, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.store != nil {
		return l.store, nil
	}
	s, err := Open(ctx, l.driver, l.dsn, l.opts, l.logger)
	if err != nil {
		return nil, err
	}
	l.store = s
	return s, nil
}

// LoadAll reads every row of the table.
func (l *Lazy) LoadAll(ctx context.Context) ([]domain.Event, error) {
	s, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	return s.LoadAll(ctx)
}

// Version reports the table version, connecting first if needed.
func (l *Lazy) Version(ctx context.Context) (string, error) {
	s, err := l.get(ctx)
	if err != nil {
		return "", err
	}
	return s.Version(ctx)
}

// Query runs a catalog entry as SQL.
func (l *Lazy) Query(ctx context.Context, q catalog.Query) (catalog.Table, error) {
	s, err := l.get(ctx)
	if err != nil {
		return catalog.Table{}, err
	}
	return s.Query(ctx, q)
}

// Close releases the connection pool if one was opened.
func (l *Lazy) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.store == nil {
		return nil
	}
	err := l.store.Close()
	l.store = nil
	return err
}
