package main

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"workpulse/internal/jobs"
	"workpulse/internal/service"
	"workpulse/pkg/constants"
	"workpulse/pkg/lock"
	"workpulse/pkg/logger"
	"workpulse/pkg/productivity"

	"github.com/go-redis/redis/v8"
)

const scanLockKey = "productivity:scan-lock"

func (app *Application) initJobs() error {
	cfg := app.config.Productivity
	manager := jobs.NewManager(app.ctx, cfg.Location())

	// Only one replica scans at a time. If Redis is unavailable, the lock
	// downgrades to single-instance mode.
	var redisClient *redis.Client
	if app.redisClient != nil {
		redisClient = app.redisClient.GetClient()
	}
	scanLock := lock.NewRedisLock(redisClient, scanLockKey, time.Duration(cfg.LockTTLSeconds)*time.Second, 0)

	if err := manager.Register(newProductivityScanJob(cfg.Schedule, cfg.ShouldRunOnStart(), app.productivityService, scanLock)); err != nil {
		return err
	}

	app.jobsManager = manager
	return nil
}

// productivityScanJob runs the scan driver on schedule and once at startup.
type productivityScanJob struct {
	schedule        string
	runOnStart      bool
	startupPending  atomic.Bool
	service         *service.ProductivityService
	distributedLock lock.DistributedLock
}

func newProductivityScanJob(schedule string, runOnStart bool, svc *service.ProductivityService, l lock.DistributedLock) *productivityScanJob {
	j := &productivityScanJob{
		schedule:        schedule,
		runOnStart:      runOnStart,
		service:         svc,
		distributedLock: l,
	}
	j.startupPending.Store(runOnStart)
	return j
}

func (j *productivityScanJob) Name() string { return "productivity-scan" }

func (j *productivityScanJob) Schedule() string { return j.schedule }

func (j *productivityScanJob) RunOnStart() bool { return j.runOnStart }

func (j *productivityScanJob) Run(ctx context.Context) error {
	trigger := constants.ScanTriggerSchedule
	if j.startupPending.CompareAndSwap(true, false) {
		trigger = constants.ScanTriggerStartup
	}

	// Try to acquire distributed lock
	if j.distributedLock != nil {
		acquired, err := j.distributedLock.TryLock(ctx)
		if err != nil || !acquired {
			logger.DebugCtx(ctx, "another instance is running the productivity scan, skipping this cycle")
			return nil
		}
		defer j.distributedLock.Unlock(context.WithoutCancel(ctx))
	}

	summary, err := j.service.RunScan(ctx, trigger)
	if errors.Is(err, productivity.ErrScanInProgress) {
		logger.InfoCtx(ctx, "productivity scan already running in this process, skipping this cycle")
		return nil
	}
	if err != nil {
		return err
	}

	logger.InfoCtx(ctx, "productivity scan %s (%s) finished: processed=%d, skipped=%d, errors=%d",
		summary.RunID, trigger, summary.Processed, summary.Skipped, summary.Errors)
	return nil
}
