// Command loaddb appends the rows of an existing CSV file to the relational
// store without contacting the USGS API.
//
// Usage:
//
//	go run ./cmd/loaddb [-csv raw_earthquake_data.csv]
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/quake-trends-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/quake-trends-etl/internal/adapter/sqlstore"
	"github.com/couchcryptid/quake-trends-etl/internal/config"
	"github.com/couchcryptid/quake-trends-etl/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	csvPath := flag.String("csv", cfg.CSVPath, "CSV file to load")
	flag.Parse()

	logger := observability.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *csvPath, logger); err != nil {
		logger.Error("load failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, csvPath string, logger *slog.Logger) error {
	events, err := csvfile.ReadFile(csvPath)
	if err != nil {
		return err
	}

	store, err := sqlstore.Open(ctx, cfg.DBDriver, cfg.DBDSN, sqlstore.Options{
		Table:     cfg.DBTable,
		BatchSize: cfg.DBBatchSize,
	}, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("store close error", "error", err)
		}
	}()

	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}
	if err := store.InsertBatch(ctx, events); err != nil {
		return err
	}
	logger.Info("csv loaded into store", "path", csvPath, "table", store.Table(), "rows", len(events))
	return nil
}
