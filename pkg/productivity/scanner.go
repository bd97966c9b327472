package productivity

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"workpulse/pkg/config"
	"workpulse/pkg/constants"
	"workpulse/pkg/logger"
	"workpulse/pkg/status"
	"workpulse/pkg/store/rdb/model"
)

// Notifier receives critical scan failures
type Notifier interface {
	NotifyScanFailure(ctx context.Context, run *model.ScanRun) error
}

// ScannerOptions scan window and reporting settings
type ScannerOptions struct {
	WindowDays      int
	ErrorSampleSize int
	Location        *time.Location
	Now             func() time.Time
}

// ScannerOptionsFromConfig maps the productivity config section onto ScannerOptions
func ScannerOptionsFromConfig(cfg config.ProductivityConfig) ScannerOptions {
	return ScannerOptions{
		WindowDays:      cfg.WindowDays,
		ErrorSampleSize: cfg.ErrorSampleSize,
		Location:        cfg.Location(),
	}
}

// Scanner walks active projects over a trailing window and recomputes stale days
type Scanner struct {
	repos      Repositories
	aggregator *Aggregator
	notifier   Notifier
	sanitizer  *status.Sanitizer
	opts       ScannerOptions
	running    atomic.Bool
}

// NewScanner creates a scan driver. notifier may be nil.
func NewScanner(repos Repositories, aggregator *Aggregator, notifier Notifier, opts ScannerOptions) *Scanner {
	if opts.WindowDays <= 0 {
		opts.WindowDays = 30
	}
	if opts.ErrorSampleSize <= 0 {
		opts.ErrorSampleSize = 5
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Scanner{
		repos:      repos,
		aggregator: aggregator,
		notifier:   notifier,
		sanitizer:  status.NewSanitizer(),
		opts:       opts,
	}
}

// Running reports whether a scan is in progress in this process
func (s *Scanner) Running() bool {
	return s.running.Load()
}

// LatestRun returns the most recent persisted scan run, nil when none
func (s *Scanner) LatestRun(ctx context.Context) (*model.ScanRun, error) {
	return s.repos.ScanRuns.LatestRun(ctx)
}

// RunScan runs one full pass. Per-pair failures are counted and logged, only
// failures outside a pair abort the scan and are returned.
func (s *Scanner) RunScan(ctx context.Context, trigger constants.ScanTrigger) (summary *ScanSummary, err error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrScanInProgress
	}
	scanInProgress.Set(1)
	defer func() {
		s.running.Store(false)
		scanInProgress.Set(0)
	}()

	run := &model.ScanRun{
		Trigger:    trigger.String(),
		Status:     constants.ScanRunStatusRunning.String(),
		WindowDays: s.opts.WindowDays,
		StartedAt:  s.opts.Now(),
	}
	if err := s.repos.ScanRuns.CreateRun(ctx, run); err != nil {
		// bookkeeping only, the scan itself still runs
		logger.WarnCtx(ctx, "failed to record scan run start: %v", err)
	}
	ctx = logger.WithTraceID(ctx, run.ID)

	logger.InfoCtx(ctx, "productivity scan started (trigger=%s, window=%d days)", trigger, s.opts.WindowDays)

	defer func() {
		s.finishRun(ctx, run, summary, err)
	}()

	summary, err = s.scan(ctx, run.ID, trigger)
	return summary, err
}

func (s *Scanner) scan(ctx context.Context, runID string, trigger constants.ScanTrigger) (*ScanSummary, error) {
	summary := &ScanSummary{
		RunID:             runID,
		Trigger:           trigger.String(),
		ProcessedProjects: []string{},
		IdleProjects:      []string{},
	}
	errs := NewErrorSample(s.opts.ErrorSampleSize)
	defer func() {
		summary.ErrorSample = errs.Lines()
	}()

	projects, err := s.repos.Projects.ListActive(ctx)
	if err != nil {
		return summary, fmt.Errorf("list active projects: %w", err)
	}
	if len(projects) == 0 {
		logger.InfoCtx(ctx, "no active projects, nothing to scan")
		return summary, nil
	}

	today := DateOf(s.opts.Now().In(s.opts.Location))
	dates := Window(today, s.opts.WindowDays)
	oldest := dates[len(dates)-1]

	for _, project := range projects {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		count, err := s.repos.WorkLogs.CountInRange(ctx, project.ID, oldest, today)
		if err != nil {
			return summary, fmt.Errorf("count work logs for project %s: %w", project.Name, err)
		}
		if count == 0 {
			logger.DebugCtx(ctx, "project %s has no work logs in window, skipping", project.Name)
			summary.IdleProjects = append(summary.IdleProjects, project.Name)
			continue
		}

		processed := 0
		for _, date := range dates {
			if err := ctx.Err(); err != nil {
				return summary, err
			}
			switch s.visit(ctx, project, date, today, errs) {
			case pairProcessed:
				processed++
				summary.Processed++
			case pairSkipped:
				summary.Skipped++
			case pairError:
				summary.Errors++
			}
		}

		if processed > 0 {
			summary.ProcessedProjects = append(summary.ProcessedProjects, project.Name)
		} else {
			summary.IdleProjects = append(summary.IdleProjects, project.Name)
		}
	}

	logger.InfoCtx(ctx, "productivity scan finished: processed=%d, skipped=%d, errors=%d",
		summary.Processed, summary.Skipped, summary.Errors)
	logger.InfoCtx(ctx, "projects with processed dates: %v", summary.ProcessedProjects)
	logger.InfoCtx(ctx, "projects without processed dates: %v", summary.IdleProjects)
	if errs.Total() > 0 {
		logger.WarnCtx(ctx, "scan errors: %s", errs.String())
	}

	return summary, nil
}

type pairOutcome int

const (
	pairProcessed pairOutcome = iota
	pairSkipped
	pairError
)

// visit decides whether (project, date) needs work and runs the aggregator
func (s *Scanner) visit(ctx context.Context, project *model.Project, date, today time.Time, errs *ErrorSample) pairOutcome {
	dateStr := date.Format(time.DateOnly)

	outcome := func() pairOutcome {
		ready, err := s.repos.WorkLogs.HasApprovedClockedOut(ctx, project.ID, date)
		if err != nil {
			s.recordPairError(errs, project, dateStr, err)
			return pairError
		}
		if !ready {
			return pairSkipped
		}

		fresh, err := s.repos.Metrics.HasFreshUserMetrics(ctx, project.ID, date, today)
		if err != nil {
			s.recordPairError(errs, project, dateStr, err)
			return pairError
		}
		if fresh {
			return pairSkipped
		}

		result, err := s.aggregator.ComputeDailyMetrics(withScanBackfill(ctx), project.ID, date)
		if err != nil {
			logger.ErrorCtx(ctx, "failed to compute metrics for project %s on %s: %v", project.Name, dateStr, err)
			s.recordPairError(errs, project, dateStr, err)
			return pairError
		}
		if result.Skipped() {
			return pairSkipped
		}
		return pairProcessed
	}()

	switch outcome {
	case pairProcessed:
		scanPairs.WithLabelValues("processed").Inc()
	case pairSkipped:
		scanPairs.WithLabelValues("skipped").Inc()
	default:
		scanPairs.WithLabelValues("error").Inc()
	}
	return outcome
}

// recordPairError keeps a redacted copy of a per-pair failure for the run summary
func (s *Scanner) recordPairError(errs *ErrorSample, project *model.Project, date string, err error) {
	errs.Add(s.sanitizer.Sanitize(fmt.Sprintf("%s %s: %v", project.Name, date, err)))
}

// finishRun persists the run outcome and alerts on critical failure
func (s *Scanner) finishRun(ctx context.Context, run *model.ScanRun, summary *ScanSummary, scanErr error) {
	finished := s.opts.Now()
	run.FinishedAt = &finished
	if summary != nil {
		run.Processed = summary.Processed
		run.Skipped = summary.Skipped
		run.Errors = summary.Errors
		run.ErrorSample = summary.ErrorSample
		run.ProcessedProjects = summary.ProcessedProjects
		run.IdleProjects = summary.IdleProjects
	}

	if scanErr != nil {
		run.Status = constants.ScanRunStatusFailed.String()
		run.FailureReason = s.sanitizer.Sanitize(scanErr.Error())
		logger.ErrorCtx(ctx, "productivity scan aborted: %v", scanErr)
	} else {
		run.Status = constants.ScanRunStatusCompleted.String()
	}
	scanRuns.WithLabelValues(run.Status).Inc()

	// the scan context may already be cancelled, bookkeeping still needs to land
	bookCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if run.ID != "" {
		if err := s.repos.ScanRuns.UpdateRun(bookCtx, run); err != nil {
			logger.WarnCtx(ctx, "failed to record scan run result: %v", err)
		}
	}

	if scanErr != nil && s.notifier != nil && !errors.Is(scanErr, context.Canceled) {
		if err := s.notifier.NotifyScanFailure(bookCtx, run); err != nil {
			logger.WarnCtx(ctx, "failed to send scan failure notification: %v", err)
		}
	}
}
