// Package sqlstore persists event records to a relational table and reads
// them back for the dashboard. MySQL, PostgreSQL (pgx) and SQLite are supported.
package sqlstore

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/couchcryptid/quake-trends-etl/internal/catalog"
	"github.com/couchcryptid/quake-trends-etl/internal/domain"
)

// DefaultBatchSize is the number of rows committed per transaction.
const DefaultBatchSize = 1000

// maxParams stays under the lowest bind-parameter limit of the supported
// drivers (SQLite's 32766).
const maxParams = 32766

func init() {
	// modernc registers as "sqlite", which sqlx does not know by default.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// Options tunes a Store. Zero values fall back to defaults.
type Options struct {
	Table     string
	BatchSize int
}

// Store is a relational table of event records.
type Store struct {
	db        *sqlx.DB
	driver    string
	dialect   catalog.Dialect
	table     string
	batchSize int
	logger    *slog.Logger
}

// Open connects to the database and pings it, so a bad DSN or unreachable
// server fails here rather than on first write.
func Open(ctx context.Context, driver, dsn string, opts Options, logger *slog.Logger) (*Store, error) {
	driver = strings.ToLower(strings.TrimSpace(driver))
	if driver == "sqlite3" {
		driver = "sqlite"
	}
	if driver == "postgres" {
		driver = "pgx"
	}
	dialect, err := catalog.DialectFor(driver)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if dialect == catalog.SQLite {
		// One connection serializes writers and keeps in-memory databases shared.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}

	s := &Store{
		db:        db,
		driver:    driver,
		dialect:   dialect,
		table:     opts.Table,
		batchSize: opts.BatchSize,
		logger:    logger,
	}
	if s.table == "" {
		s.table = catalog.TableName
	}
	if s.batchSize <= 0 {
		s.batchSize = DefaultBatchSize
	}
	logger.Info("sql store connected", "driver", driver, "table", s.table)
	return s, nil
}

// Close releases the connection pool.
func (s *Store) Close() error { return s.db.Close() }

// Name identifies the sink in logs and metrics.
func (s *Store) Name() string { return "sql" }

// Dialect returns the SQL flavor of the connected database.
func (s *Store) Dialect() catalog.Dialect { return s.dialect }

// Table returns the table name.
func (s *Store) Table() string { return s.table }

// CheckReadiness pings the database.
func (s *Store) CheckReadiness(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// EnsureSchema creates the table when it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createTableSQL(s.dialect, s.table)); err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	return nil
}

// Write ensures the table exists and appends the events.
func (s *Store) Write(ctx context.Context, events []domain.Event) error {
	if err := s.EnsureSchema(ctx); err != nil {
		return err
	}
	return s.InsertBatch(ctx, events)
}

// InsertBatch appends events in batches, one transaction per batch. A failed
// batch is rolled back and the remaining batches are not attempted; earlier
// batches stay committed.
func (s *Store) InsertBatch(ctx context.Context, events []domain.Event) error {
	stmt := insertSQL(s.dialect, s.table)
	perStatement := min(s.batchSize, maxParams/len(domain.Columns))

	for batch, start := 0, 0; start < len(events); batch, start = batch+1, start+s.batchSize {
		end := min(start+s.batchSize, len(events))
		if err := s.insertTx(ctx, stmt, events[start:end], perStatement); err != nil {
			return fmt.Errorf("insert batch %d (rows %d-%d): %w", batch, start, end-1, err)
		}
		s.logger.Debug("batch committed", "batch", batch, "rows", end-start)
	}
	return nil
}

func (s *Store) insertTx(ctx context.Context, stmt string, rows []domain.Event, perStatement int) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for start := 0; start < len(rows); start += perStatement {
		end := min(start+perStatement, len(rows))
		if _, err := tx.NamedExecContext(ctx, stmt, rows[start:end]); err != nil {
			return err
		}
	}
	return tx.Commit()
}
