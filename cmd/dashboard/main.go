// Command dashboard serves the query catalog as an HTML page and a JSON API,
// reading the dataset from the relational store or the CSV file.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/quake-trends-etl/internal/adapter/http"
	"github.com/couchcryptid/quake-trends-etl/internal/adapter/sqlstore"
	"github.com/couchcryptid/quake-trends-etl/internal/catalog"
	"github.com/couchcryptid/quake-trends-etl/internal/config"
	"github.com/couchcryptid/quake-trends-etl/internal/observability"
	"github.com/couchcryptid/quake-trends-etl/internal/presenter"
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

	dialect, err := catalog.DialectFor(cfg.DBDriver)
	if err != nil {
		logger.Error("invalid sql dialect", "error", err)
		os.Exit(1)
	}
	opts := presenter.Options{Dialect: dialect, CacheSize: cfg.DashboardCacheSize}

	var backends []presenter.Backend
	for _, source := range cfg.DashboardSources {
		switch source {
		case "store":
			// Connects on first load and retries on later ones, so a database
			// that is down at startup is used once it recovers.
			store := sqlstore.NewLazy(cfg.DBDriver, cfg.DBDSN, sqlstore.Options{Table: cfg.DBTable}, logger)
			defer func() {
				if err := store.Close(); err != nil {
					logger.Error("store close error", "error", err)
				}
			}()
			backends = append(backends, presenter.NewStoreBackend(store))
			if cfg.DashboardEngine == config.EngineSQL {
				opts.Runner = store
			}
		case "file":
			backends = append(backends, presenter.NewFileBackend(cfg.CSVPath))
		}
	}

	loader := presenter.NewLoader(backends, logger, metrics)
	p, err := presenter.New(loader, opts, logger, metrics)
	if err != nil {
		logger.Error("failed to create presenter", "error", err)
		os.Exit(1)
	}

	if _, err := p.Snapshot(ctx); err != nil {
		logger.Warn("no dataset at startup", "error", err)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
