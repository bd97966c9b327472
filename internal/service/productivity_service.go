package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"workpulse/pkg/constants"
	"workpulse/pkg/logger"
	"workpulse/pkg/productivity"
	queue "workpulse/pkg/queue/asynq"
	"workpulse/pkg/store/rdb/model"

	"github.com/hibiken/asynq"
)

// maxMetricsRangeDays bounds GET metrics queries
const maxMetricsRangeDays = 366

var (
	// ErrQueueDisabled async recompute requested without a queue
	ErrQueueDisabled = errors.New("recompute queue is not enabled")
	// ErrTaskNotFound unknown recompute task id
	ErrTaskNotFound = errors.New("recompute task not found")
)

type metricsComputer interface {
	ComputeDailyMetrics(ctx context.Context, projectID string, date time.Time) (*productivity.Result, error)
}

type scanRunner interface {
	RunScan(ctx context.Context, trigger constants.ScanTrigger) (*productivity.ScanSummary, error)
	Running() bool
	LatestRun(ctx context.Context) (*model.ScanRun, error)
}

type recomputeQueue interface {
	EnqueueRecompute(ctx context.Context, projectID, date string) (string, error)
	GetRecomputeTask(taskID string) (*queue.RecomputeTaskInfo, error)
}

type projectReader interface {
	Get(ctx context.Context, projectID string) (*model.Project, error)
}

type metricReader interface {
	ListProjectDaily(ctx context.Context, projectID string, from, to time.Time) ([]*model.ProjectDailyMetric, error)
}

type qualityReader interface {
	ListHistory(ctx context.Context, userID, projectID string) ([]*model.UserQuality, error)
}

// ScanStatus running flag and the latest persisted run
type ScanStatus struct {
	Running   bool           `json:"running"`
	LatestRun *model.ScanRun `json:"latestRun"`
}

// ProductivityService exposes the productivity engine to HTTP, queue and jobs
type ProductivityService struct {
	baseCtx    context.Context
	aggregator metricsComputer
	scanner    scanRunner
	queue      recomputeQueue
	projects   projectReader
	metrics    metricReader
	quality    qualityReader
}

// NewProductivityService creates a new productivity service. Background scans
// started through TriggerScan run under baseCtx. recompute may be nil.
func NewProductivityService(baseCtx context.Context, aggregator metricsComputer, scanner scanRunner,
	recompute recomputeQueue, projects projectReader, metrics metricReader, quality qualityReader) *ProductivityService {
	return &ProductivityService{
		baseCtx:    baseCtx,
		aggregator: aggregator,
		scanner:    scanner,
		queue:      recompute,
		projects:   projects,
		metrics:    metrics,
		quality:    quality,
	}
}

// SetQueue attaches the recompute queue once it is initialized
func (s *ProductivityService) SetQueue(q recomputeQueue) {
	s.queue = q
}

// Recalculate recomputes one (project, date) synchronously
func (s *ProductivityService) Recalculate(ctx context.Context, projectID, date string) (*productivity.Result, error) {
	d, err := productivity.ParseDate(date)
	if err != nil {
		return nil, err
	}
	return s.aggregator.ComputeDailyMetrics(ctx, projectID, d)
}

// EnqueueRecalculate queues one (project, date) for asynchronous recomputation
func (s *ProductivityService) EnqueueRecalculate(ctx context.Context, projectID, date string) (string, error) {
	if s.queue == nil {
		return "", ErrQueueDisabled
	}
	if _, err := productivity.ParseDate(date); err != nil {
		return "", err
	}
	if err := s.ensureProject(ctx, projectID); err != nil {
		return "", err
	}
	return s.queue.EnqueueRecompute(ctx, projectID, date)
}

// GetRecomputeTask reports the state of a queued recompute
func (s *ProductivityService) GetRecomputeTask(ctx context.Context, taskID string) (*queue.RecomputeTaskInfo, error) {
	if s.queue == nil {
		return nil, ErrQueueDisabled
	}
	info, err := s.queue.GetRecomputeTask(taskID)
	if errors.Is(err, queue.ErrTaskNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	if err != nil {
		logger.WarnCtx(ctx, "failed to inspect recompute task %s: %v", taskID, err)
		return nil, err
	}
	return info, nil
}

// HandleRecomputeTask runs a queued recompute. Bad input is not retried.
func (s *ProductivityService) HandleRecomputeTask(ctx context.Context, projectID, date string) error {
	result, err := s.Recalculate(ctx, projectID, date)
	if err != nil {
		if errors.Is(err, productivity.ErrProjectNotFound) || errors.Is(err, productivity.ErrInvalidDate) {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}
	logger.InfoCtx(ctx, "queued recompute for project %s on %s finished with status %s", projectID, date, result.Status)
	return nil
}

// RunScan runs one scan synchronously
func (s *ProductivityService) RunScan(ctx context.Context, trigger constants.ScanTrigger) (*productivity.ScanSummary, error) {
	return s.scanner.RunScan(ctx, trigger)
}

// TriggerScan starts a manual scan in the background
func (s *ProductivityService) TriggerScan(ctx context.Context) error {
	if s.scanner.Running() {
		return productivity.ErrScanInProgress
	}

	go func() {
		summary, err := s.scanner.RunScan(s.baseCtx, constants.ScanTriggerManual)
		if errors.Is(err, productivity.ErrScanInProgress) {
			logger.InfoCtx(s.baseCtx, "manual scan skipped: another scan started first")
			return
		}
		if err != nil {
			logger.ErrorCtx(s.baseCtx, "manual scan failed: %v", err)
			return
		}
		logger.InfoCtx(s.baseCtx, "manual scan %s finished: processed=%d, skipped=%d, errors=%d",
			summary.RunID, summary.Processed, summary.Skipped, summary.Errors)
	}()

	logger.InfoCtx(ctx, "manual scan triggered")
	return nil
}

// GetScanStatus returns the running flag and the latest run
func (s *ProductivityService) GetScanStatus(ctx context.Context) (*ScanStatus, error) {
	run, err := s.scanner.LatestRun(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest scan run: %w", err)
	}
	return &ScanStatus{Running: s.scanner.Running(), LatestRun: run}, nil
}

// ListProjectMetrics returns project rollups for [from, to], oldest first
func (s *ProductivityService) ListProjectMetrics(ctx context.Context, projectID, from, to string) ([]*model.ProjectDailyMetric, error) {
	fromDate, err := productivity.ParseDate(from)
	if err != nil {
		return nil, err
	}
	toDate, err := productivity.ParseDate(to)
	if err != nil {
		return nil, err
	}
	if toDate.Before(fromDate) {
		return nil, fmt.Errorf("%w: from %s is after to %s", productivity.ErrInvalidDate, from, to)
	}
	if toDate.Sub(fromDate) > maxMetricsRangeDays*24*time.Hour {
		return nil, fmt.Errorf("%w: range exceeds %d days", productivity.ErrInvalidDate, maxMetricsRangeDays)
	}
	if err := s.ensureProject(ctx, projectID); err != nil {
		return nil, err
	}
	return s.metrics.ListProjectDaily(ctx, projectID, fromDate, toDate)
}

// GetQualityHistory returns every quality version of a user on a project, newest first
func (s *ProductivityService) GetQualityHistory(ctx context.Context, projectID, userID string) ([]*model.UserQuality, error) {
	if err := s.ensureProject(ctx, projectID); err != nil {
		return nil, err
	}
	return s.quality.ListHistory(ctx, userID, projectID)
}

func (s *ProductivityService) ensureProject(ctx context.Context, projectID string) error {
	project, err := s.projects.Get(ctx, projectID)
	if err != nil {
		return fmt.Errorf("failed to load project %s: %w", projectID, err)
	}
	if project == nil {
		return fmt.Errorf("%w: %s", productivity.ErrProjectNotFound, projectID)
	}
	return nil
}
