package sync

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/omniwallet/walletsync/pkg/config"
	"github.com/omniwallet/walletsync/pkg/db/cache"
	"github.com/omniwallet/walletsync/pkg/db/source"
	"github.com/omniwallet/walletsync/pkg/logging"
	"github.com/omniwallet/walletsync/pkg/metrics"
	"github.com/omniwallet/walletsync/pkg/syncer"
	"github.com/omniwallet/walletsync/pkg/transform"
)

type App struct {
	Logger *zap.Logger
	Config *config.Config
	Syncer *syncer.Syncer

	sourceStore *source.Store
	cacheStore  *cache.Store
	cron        *cron.Cron
}

// Initialize initializes the application.
func Initialize(ctx context.Context) *App {
	logger, err := logging.New()
	if err != nil {
		// nothing else to do here, we'll just log to stderr
		panic(err)
	}

	cfg := config.New()

	sourceStore, err := source.New(ctx, logger, cfg.SourceURL)
	if err != nil {
		logger.Fatal("Unable to connect to source database", zap.Error(err))
	}

	cacheStore, err := cache.New(ctx, logger, cfg.CacheURL, cfg.BatchSize)
	if err != nil {
		logger.Fatal("Unable to connect to cache database", zap.Error(err))
	}

	provider := metrics.NewClient(logger, cfg.MetricsBaseURL, cfg.MetricsAPIKey)
	transformer := transform.New(logger, sourceStore)

	return &App{
		Logger: logger,
		Config: cfg,
		Syncer: syncer.New(logger, cfg, sourceStore, cacheStore, provider, transformer),

		sourceStore: sourceStore,
		cacheStore:  cacheStore,
	}
}

// RunOnce executes a single sync run and returns its outcome.
func (a *App) RunOnce(ctx context.Context) error {
	defer a.Stop()
	return a.Syncer.Run(ctx)
}

// Start runs the sync on the configured cron schedule and blocks until the
// context is canceled. The first run fires immediately.
func (a *App) Start(ctx context.Context) {
	if err := a.Syncer.Run(ctx); err != nil {
		a.Logger.Error("initial sync run finished with errors", zap.Error(err))
	}

	a.cron = cron.New()
	_, err := a.cron.AddFunc(a.Config.Schedule, func() {
		if err := a.Syncer.Run(ctx); err != nil {
			a.Logger.Error("scheduled sync run finished with errors", zap.Error(err))
		}
	})
	if err != nil {
		a.Logger.Fatal("Invalid sync schedule",
			zap.String("schedule", a.Config.Schedule),
			zap.Error(err))
	}
	a.cron.Start()
	a.Logger.Info("sync scheduler started", zap.String("schedule", a.Config.Schedule))

	<-ctx.Done()
	a.Stop()
}

// Stop stops the scheduler and closes the database pools.
func (a *App) Stop() {
	if a.cron != nil {
		<-a.cron.Stop().Done()
	}
	a.sourceStore.Close()
	a.cacheStore.Close()
	a.Logger.Info("sync stopped")
}
