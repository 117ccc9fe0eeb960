// Package app initializes and holds long-lived application services, acting
// as a dependency injection container.
package app

import (
	"context"
	"fmt"
	"time"

	gcstorage "cloud.google.com/go/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/zksync-wtf/harvester/internal/config"
	"github.com/zksync-wtf/harvester/internal/logging"
	"github.com/zksync-wtf/harvester/internal/metrics"
	"github.com/zksync-wtf/harvester/internal/publisher"
	pubmemory "github.com/zksync-wtf/harvester/internal/publisher/memory"
	"github.com/zksync-wtf/harvester/internal/publisher/pubsub"
	"github.com/zksync-wtf/harvester/internal/sink"
	"github.com/zksync-wtf/harvester/internal/sink/gcs"
	"github.com/zksync-wtf/harvester/internal/sink/local"
	sinkmemory "github.com/zksync-wtf/harvester/internal/sink/memory"
	"github.com/zksync-wtf/harvester/internal/store"
	"github.com/zksync-wtf/harvester/internal/store/postgres"
)

// App holds all the shared, long-lived services for the application: the
// logger, the artifact sink, the run store, the outcome publisher, and the
// metrics registry. It is initialized once at startup and resolved by
// subcommands from the command context.
type App struct {
	cfg           config.Config
	logger        *zap.Logger
	sink          sink.Provider
	store         store.Provider
	publisher     publisher.Provider
	registry      *prometheus.Registry
	metricsServer *metrics.Server
}

// GetConfig returns the loaded configuration.
func (a *App) GetConfig() config.Config {
	return a.cfg
}

// GetLogger returns the shared zap logger instance.
func (a *App) GetLogger() *zap.Logger {
	return a.logger
}

// GetSink exposes the configured artifact sink.
func (a *App) GetSink() sink.Provider {
	return a.sink
}

// GetStore provides access to the run history store.
func (a *App) GetStore() store.Provider {
	return a.store
}

// GetPublisher returns the outcome notification publisher.
func (a *App) GetPublisher() publisher.Provider {
	return a.publisher
}

// GetRegistry returns the run's Prometheus registry.
func (a *App) GetRegistry() *prometheus.Registry {
	return a.registry
}

// NewApp creates and initializes a new App from the loaded configuration.
// It is the central point for service initialization and fails fast if any
// critical service cannot be initialized.
func NewApp(ctx context.Context, cfg config.Config) (*App, error) {
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	var artifactSink sink.Provider
	switch cfg.Sink.Provider {
	case "local":
		artifactSink, err = local.New(local.Config{BaseDir: cfg.Sink.BaseDir})
		if err != nil {
			return nil, fmt.Errorf("initialize local sink: %w", err)
		}
	case "gcs":
		logger.Info("using GCS sink", zap.String("bucket", cfg.Sink.Bucket))
		client, clientErr := gcstorage.NewClient(ctx)
		if clientErr != nil {
			return nil, fmt.Errorf("create storage client: %w", clientErr)
		}
		artifactSink, err = gcs.New(client, gcs.Config{Bucket: cfg.Sink.Bucket})
		if err != nil {
			return nil, fmt.Errorf("initialize gcs sink: %w", err)
		}
	case "memory":
		artifactSink = sinkmemory.New()
	default:
		return nil, fmt.Errorf("unknown sink provider: %s", cfg.Sink.Provider)
	}

	var runStore store.Provider
	switch cfg.Store.Provider {
	case "postgres":
		logger.Info("connecting to PostgreSQL")
		runStore, err = postgres.NewRunStore(ctx, postgres.Config{
			DSN:   cfg.Store.DSN,
			Table: cfg.Store.Table,
		})
		if err != nil {
			return nil, fmt.Errorf("initialize run store: %w", err)
		}
	case "noop":
		runStore = store.Noop{}
	default:
		return nil, fmt.Errorf("unknown store provider: %s", cfg.Store.Provider)
	}

	var outcomePublisher publisher.Provider
	switch cfg.Publisher.Provider {
	case "pubsub":
		logger.Info("connecting to Pub/Sub", zap.String("topic", cfg.Publisher.Topic))
		outcomePublisher, err = pubsub.New(ctx, cfg.Publisher.ProjectID, cfg.Publisher.Topic)
		if err != nil {
			return nil, fmt.Errorf("initialize publisher: %w", err)
		}
	case "memory":
		outcomePublisher = pubmemory.New()
	case "noop":
		outcomePublisher = publisher.Noop{}
	default:
		return nil, fmt.Errorf("unknown publisher provider: %s", cfg.Publisher.Provider)
	}

	a := &App{
		cfg:       cfg,
		logger:    logger,
		sink:      artifactSink,
		store:     runStore,
		publisher: outcomePublisher,
		registry:  registry,
	}

	if cfg.Metrics.Addr != "" {
		a.metricsServer = metrics.NewServer(cfg.Metrics.Addr, registry, logger)
		a.metricsServer.Start()
	}

	return a, nil
}

// Close gracefully shuts down all services in the App container. It is
// called by a Cobra hook after the command finishes execution.
func (a *App) Close() {
	a.logger.Debug("shutting down application services")
	a.store.Close()
	if err := a.publisher.Close(); err != nil {
		a.logger.Warn("error closing publisher", zap.Error(err))
	}
	if a.metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			a.logger.Warn("error shutting down metrics listener", zap.Error(err))
		}
	}
	// Flushing the logger buffer is best-effort; stderr may not be
	// syncable on all platforms.
	_ = a.logger.Sync()
}
