// Command ingest downloads earthquake events from the USGS event API one
// monthly window at a time, writes them to the CSV file, and optionally
// appends them to the relational store and publishes them to Kafka.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/quake-trends-etl/internal/adapter/csvfile"
	kafkaadapter "github.com/couchcryptid/quake-trends-etl/internal/adapter/kafka"
	"github.com/couchcryptid/quake-trends-etl/internal/adapter/sqlstore"
	"github.com/couchcryptid/quake-trends-etl/internal/adapter/usgs"
	"github.com/couchcryptid/quake-trends-etl/internal/config"
	"github.com/couchcryptid/quake-trends-etl/internal/observability"
	"github.com/couchcryptid/quake-trends-etl/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, metrics); err != nil {
		logger.Error("ingest failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) error {
	client := usgs.NewClient(cfg.USGSBaseURL, cfg.USGSTimeout, metrics, logger)
	ingestor := pipeline.NewIngestor(client, pipeline.IngestOptions{
		WindowPolicy: cfg.FetchWindowEnd,
		Concurrency:  cfg.FetchConcurrency,
		Dedup:        cfg.DedupEnabled,
	}, logger, metrics)

	sinks := []pipeline.Sink{csvfile.NewWriter(cfg.CSVPath, logger)}

	if cfg.DBEnabled {
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
		sinks = append(sinks, store)
	}

	if cfg.KafkaEnabled() {
		writer := kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		sinks = append(sinks, writer)
	}

	events, err := ingestor.Fetch(ctx, pipeline.Range{StartYear: cfg.StartYear, EndYear: cfg.EndYear}, cfg.MinMagnitude)
	if err != nil {
		return err
	}

	return pipeline.NewPersister(sinks, logger, metrics).Persist(ctx, events)
}
