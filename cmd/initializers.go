package main

import (
	"fmt"
	"net/http"

	"workpulse/app/handler"
	"workpulse/app/router"
	"workpulse/internal/service"
	"workpulse/pkg/config"
	"workpulse/pkg/logger"
	"workpulse/pkg/notification"
	"workpulse/pkg/productivity"
	queue "workpulse/pkg/queue/asynq"
	"workpulse/pkg/store/rdb"
	redisstore "workpulse/pkg/store/redis"

	"github.com/gin-gonic/gin"
)

// initConfig initializes configuration
func (app *Application) initConfig() error {
	if err := config.Init(); err != nil {
		return err
	}
	app.config = config.GlobalConfig
	return nil
}

// initLogger initializes logging
func (app *Application) initLogger() error {
	if err := logger.Init(); err != nil {
		return err
	}
	app.registerCleanup(func() {
		logger.InfoCtx(app.ctx, "Logging system has been closed")
		logger.Sync()
	})
	return nil
}

// initDatabase opens the relational store and migrates the engine-owned tables
func (app *Application) initDatabase() error {
	repo, err := rdb.NewRepository(app.config.Database)
	if err != nil {
		return err
	}
	app.rdbRepo = repo
	app.registerCleanup(func() {
		repo.Close()
		logger.InfoCtx(app.ctx, "Database connection has been closed")
	})

	if err := repo.MigrateOwnedTables(); err != nil {
		return fmt.Errorf("failed to migrate productivity tables: %w", err)
	}
	return nil
}

// initRedis initializes Redis. Without an address the scan lock runs in
// single-instance mode and the recompute queue is unavailable.
func (app *Application) initRedis() error {
	if app.config.Redis.Addr == "" {
		logger.WarnCtx(app.ctx, "Redis address not configured, running in single-instance mode")
		return nil
	}

	client, err := redisstore.NewRedisClient(app.config.Redis)
	if err != nil {
		return err
	}

	app.redisClient = client
	app.registerCleanup(func() {
		client.Close()
		logger.InfoCtx(app.ctx, "Redis connection has been closed")
	})

	return nil
}

// initProductivity wires the aggregator, scanner and service
func (app *Application) initProductivity() error {
	cfg := app.config.Productivity
	repos := productivity.NewRepositories(app.rdbRepo)

	notifier := notification.NewFeishuNotifier(app.config.Notification.FeishuWebhookURL)

	app.aggregator = productivity.NewAggregator(repos, productivity.OptionsFromConfig(cfg))
	app.scanner = productivity.NewScanner(repos, app.aggregator, notifier, productivity.ScannerOptionsFromConfig(cfg))
	app.productivityService = service.NewProductivityService(
		app.ctx,
		app.aggregator,
		app.scanner,
		nil,
		app.rdbRepo.Project,
		app.rdbRepo.Metric,
		app.rdbRepo.Quality,
	)

	logger.InfoCtx(app.ctx, "Productivity engine configured: schedule=%s, window=%d days, timezone=%s, versioning=%s, summary=%s",
		cfg.Schedule, cfg.WindowDays, cfg.Timezone, cfg.QualityVersioning, cfg.SummaryPolicy)
	return nil
}

// initQueue initializes the asynq recompute queue
func (app *Application) initQueue() error {
	if !app.config.Queue.Enabled {
		logger.InfoCtx(app.ctx, "Recompute queue disabled, async recalculation unavailable")
		return nil
	}
	if app.redisClient == nil {
		return fmt.Errorf("recompute queue requires redis")
	}

	mgr, err := queue.NewManager(app.config.Redis, app.config.Queue)
	if err != nil {
		return err
	}
	mgr.RegisterHandler(queue.TypeRecompute, queue.NewRecomputeHandler(app.productivityService.HandleRecomputeTask))

	app.queueMgr = mgr
	app.productivityService.SetQueue(mgr)
	app.registerCleanup(func() {
		mgr.Stop()
		if err := mgr.Close(); err != nil {
			logger.WarnCtx(app.ctx, "failed to close queue client: %v", err)
		}
		logger.InfoCtx(app.ctx, "Recompute queue has been closed")
	})
	return nil
}

// initHandlers initializes handler layer
func (app *Application) initHandlers() error {
	app.productivityHandler = handler.NewProductivityHandler(app.productivityService)
	return nil
}

// initHTTPServer initializes the HTTP server
func (app *Application) initHTTPServer() error {
	// Initialize router
	r := router.NewRouter(app.productivityHandler, app.config.Server.APIKey)

	// Set Gin mode
	gin.SetMode(app.config.Server.Mode)

	// Create Gin engine
	app.ginEngine = gin.New()

	// Setup routes
	r.Setup(app.ginEngine)

	// Create HTTP server
	app.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", app.config.Server.Port),
		Handler: app.ginEngine,
	}

	return nil
}
