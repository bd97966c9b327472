package productivity

import (
	"context"
	"fmt"
	"sync"
	"time"

	"workpulse/pkg/config"
	"workpulse/pkg/constants"
	"workpulse/pkg/logger"
	"workpulse/pkg/store/rdb/model"
)

// Options tunes aggregation semantics
type Options struct {
	QualityVersioning string
	SummaryPolicy     string
	Location          *time.Location
	Now               func() time.Time
}

// OptionsFromConfig maps the productivity config section onto Options
func OptionsFromConfig(cfg config.ProductivityConfig) Options {
	return Options{
		QualityVersioning: cfg.QualityVersioning,
		SummaryPolicy:     cfg.SummaryPolicy,
		Location:          cfg.Location(),
	}
}

func (o Options) withDefaults() Options {
	if o.QualityVersioning == "" {
		o.QualityVersioning = config.QualityVersioningStrict
	}
	if o.SummaryPolicy == "" {
		o.SummaryPolicy = config.SummaryPolicyMax
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Aggregator computes daily productivity metrics for one (project, date)
type Aggregator struct {
	repos Repositories
	opts  Options

	// projectLocks project id -> *sync.Mutex, serializes pairs of one project in this process
	projectLocks sync.Map
}

type scanBackfillKey struct{}

// withScanBackfill marks ctx as a scan driver window pass
func withScanBackfill(ctx context.Context) context.Context {
	return context.WithValue(ctx, scanBackfillKey{}, true)
}

func isScanBackfill(ctx context.Context) bool {
	v, _ := ctx.Value(scanBackfillKey{}).(bool)
	return v
}

func (a *Aggregator) lockProject(projectID string) func() {
	mu, _ := a.projectLocks.LoadOrStore(projectID, &sync.Mutex{})
	m := mu.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}

// NewAggregator creates a new aggregator
func NewAggregator(repos Repositories, opts Options) *Aggregator {
	return &Aggregator{repos: repos, opts: opts.withDefaults()}
}

// today is the current calendar day in the configured location
func (a *Aggregator) today() time.Time {
	return DateOf(a.opts.Now().In(a.opts.Location))
}

// ComputeDailyMetrics recomputes every derived row for (projectID, date) in one transaction.
// A day without approved work returns a Skipped result and writes nothing.
func (a *Aggregator) ComputeDailyMetrics(ctx context.Context, projectID string, date time.Time) (*Result, error) {
	start := time.Now()
	date = DateOf(date)
	dateStr := date.Format(time.DateOnly)

	project, err := a.repos.Projects.Get(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load project %s: %w", projectID, err)
	}
	if project == nil {
		return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, projectID)
	}

	// Pairs of the same project share quality versions and summaries. The
	// in-process mutex covers HTTP, queue workers and the scan; the project
	// row lock covers other replicas.
	unlock := a.lockProject(projectID)
	defer unlock()

	var result *Result
	err = a.repos.Tx.ExecTx(ctx, func(ctx context.Context) error {
		if err := a.repos.Projects.LockForUpdate(ctx, projectID); err != nil {
			return fmt.Errorf("lock project: %w", err)
		}

		rows, err := a.repos.WorkLogs.SumApprovedByUser(ctx, projectID, date)
		if err != nil {
			return fmt.Errorf("fetch approved logs: %w", err)
		}
		if len(rows) == 0 {
			result = &Result{
				Status:    constants.ComputeStatusSkipped,
				ProjectID: projectID,
				Date:      dateStr,
				Message:   fmt.Sprintf("no approved work logs for project %s on %s", project.Name, dateStr),
			}
			return nil
		}

		totals := make([]UserTotal, 0, len(rows))
		for _, r := range rows {
			totals = append(totals, UserTotal{UserID: r.UserID, UserName: r.UserName, Minutes: r.Minutes, Tasks: r.Tasks})
		}

		result, err = a.apply(ctx, projectID, date, totals)
		return err
	})
	if err != nil {
		aggregatorRuns.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("compute metrics for project %s on %s: %w", projectID, dateStr, err)
	}

	aggregatorDuration.Observe(time.Since(start).Seconds())
	if result.Skipped() {
		aggregatorRuns.WithLabelValues("skipped").Inc()
		logger.InfoCtx(ctx, "skipped project %s on %s: no approved logs", projectID, dateStr)
		return result, nil
	}

	aggregatorRuns.WithLabelValues("success").Inc()
	logger.InfoCtx(ctx, "computed metrics for project %s on %s: users=%d, avgTasks=%.2f, badThreshold=%.2f",
		projectID, dateStr, result.ProcessedUsers, result.ProjectAvgTasks, result.BadThreshold)
	return result, nil
}

// apply writes user rows, quality history, summaries and the project rollup
func (a *Aggregator) apply(ctx context.Context, projectID string, date time.Time, totals []UserTotal) (*Result, error) {
	bench := ComputeBenchmarks(totals)
	now := a.opts.Now()
	computedOn := a.today()

	details := make([]UserDetail, 0, len(totals))
	scoreSum := 0.0

	for _, t := range totals {
		rating := Grade(t.Tasks, bench)
		score := rating.Score()
		hours := minutesToHours(t.Minutes)

		role, err := a.repos.Members.ResolveWorkRole(ctx, projectID, t.UserID)
		if err != nil {
			return nil, fmt.Errorf("resolve work role for user %s: %w", t.UserID, err)
		}
		if role == "" {
			role = constants.UnknownWorkRole
		}

		if err := a.repos.Metrics.UpsertUserDaily(ctx, &model.UserDailyMetric{
			UserID:            t.UserID,
			ProjectID:         projectID,
			MetricDate:        date,
			WorkRole:          role,
			HoursWorked:       hours,
			TasksCompleted:    t.Tasks,
			ProductivityScore: score,
			ComputedOn:        computedOn,
		}); err != nil {
			return nil, fmt.Errorf("upsert user metric for %s: %w", t.UserID, err)
		}

		if err := a.repos.Quality.UpsertDaily(ctx, &model.UserQualityDaily{
			UserID:       t.UserID,
			ProjectID:    projectID,
			RatingDate:   date,
			WorkRole:     role,
			Rating:       rating.String(),
			QualityScore: score,
		}); err != nil {
			return nil, fmt.Errorf("upsert daily quality for %s: %w", t.UserID, err)
		}

		if err := a.versionQuality(ctx, t.UserID, projectID, role, date, rating, score, now); err != nil {
			return nil, fmt.Errorf("version quality for %s: %w", t.UserID, err)
		}

		if err := a.updateSummary(ctx, t.UserID, projectID, role, date); err != nil {
			return nil, fmt.Errorf("update history summary for %s: %w", t.UserID, err)
		}

		scoreSum += score
		details = append(details, UserDetail{
			UserID:   t.UserID,
			UserName: t.UserName,
			WorkRole: role,
			Tasks:    t.Tasks,
			Hours:    hours,
			Score:    score,
			Rating:   rating,
		})
	}

	n := float64(bench.ActiveUsers)
	if err := a.repos.Metrics.UpsertProjectDaily(ctx, &model.ProjectDailyMetric{
		ProjectID:            projectID,
		MetricDate:           date,
		TasksCompleted:       bench.TotalTasks,
		ActiveUsersCount:     bench.ActiveUsers,
		TotalHoursWorked:     minutesToHours(bench.TotalMinutes),
		AvgProductivityScore: round2(scoreSum / n),
		AvgHoursPerUser:      round2(bench.AvgHours),
	}); err != nil {
		return nil, fmt.Errorf("upsert project metric: %w", err)
	}

	return &Result{
		Status:          constants.ComputeStatusSuccess,
		ProjectID:       projectID,
		Date:            date.Format(time.DateOnly),
		ProjectAvgTasks: round2(bench.AvgTasks),
		BadThreshold:    round2(bench.BadThreshold),
		ProjectAvgHours: round2(bench.AvgHours),
		ProcessedUsers:  bench.ActiveUsers,
		Details:         details,
	}, nil
}

// versionQuality maintains the SCD Type 2 quality history for (user, project).
// Same calendar day as the current version overwrites in place; any other day
// closes the current version and appends a new one. Under forward_only, scan
// window passes over dates before the current version are left to the daily
// snapshot; on-demand and queued recomputes always version.
func (a *Aggregator) versionQuality(ctx context.Context, userID, projectID, role string, date time.Time,
	rating constants.QualityRating, score float64, now time.Time) error {
	current, err := a.repos.Quality.GetCurrent(ctx, userID, projectID)
	if err != nil {
		return err
	}

	if current != nil {
		validFrom := DateOf(current.ValidFrom.In(a.opts.Location))
		switch {
		case validFrom.Equal(date):
			current.Rating = rating.String()
			current.QualityScore = score
			current.WorkRole = role
			current.AssessedAt = now
			return a.repos.Quality.OverwriteCurrent(ctx, current)
		case date.Before(validFrom) && a.opts.QualityVersioning == config.QualityVersioningForwardOnly && isScanBackfill(ctx):
			return nil
		}
		if err := a.repos.Quality.CloseVersion(ctx, current.ID, now); err != nil {
			return err
		}
	}

	return a.repos.Quality.CreateVersion(ctx, &model.UserQuality{
		UserID:       userID,
		ProjectID:    projectID,
		WorkRole:     role,
		Rating:       rating.String(),
		QualityScore: score,
		Source:       constants.QualitySourceAutoCalc.String(),
		AssessedAt:   now,
		IsCurrent:    true,
		ValidFrom:    now,
	})
}

// updateSummary keeps first_worked_date at the minimum seen and advances
// last_worked_date per the configured policy. Totals are re-derived from
// user_daily_metrics so recomputation never double counts.
func (a *Aggregator) updateSummary(ctx context.Context, userID, projectID, role string, date time.Time) error {
	hours, tasks, err := a.repos.Metrics.SumUserTotals(ctx, userID, projectID)
	if err != nil {
		return err
	}

	summary, err := a.repos.History.GetSummary(ctx, userID, projectID)
	if err != nil {
		return err
	}
	if summary == nil {
		summary = &model.UserProjectHistory{
			UserID:          userID,
			ProjectID:       projectID,
			FirstWorkedDate: date,
			LastWorkedDate:  date,
		}
	} else {
		if date.Before(DateOf(summary.FirstWorkedDate)) {
			summary.FirstWorkedDate = date
		}
		if a.opts.SummaryPolicy == config.SummaryPolicyOverwrite || date.After(DateOf(summary.LastWorkedDate)) {
			summary.LastWorkedDate = date
		}
	}
	summary.WorkRole = role
	summary.TotalHoursWorked = round2(hours)
	summary.TotalTasksCompleted = tasks

	return a.repos.History.SaveSummary(ctx, summary)
}
