package productivity

import (
	"context"
	"time"

	"workpulse/pkg/store/rdb"
	"workpulse/pkg/store/rdb/model"
)

type txRunner interface {
	ExecTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type projectRepository interface {
	Get(ctx context.Context, projectID string) (*model.Project, error)
	ListActive(ctx context.Context) ([]*model.Project, error)
	LockForUpdate(ctx context.Context, projectID string) error
}

type workLogRepository interface {
	SumApprovedByUser(ctx context.Context, projectID string, date time.Time) ([]*rdb.UserDayTotal, error)
	CountInRange(ctx context.Context, projectID string, from, to time.Time) (int64, error)
	HasApprovedClockedOut(ctx context.Context, projectID string, date time.Time) (bool, error)
}

type memberRepository interface {
	ResolveWorkRole(ctx context.Context, projectID, userID string) (string, error)
}

type metricRepository interface {
	UpsertUserDaily(ctx context.Context, m *model.UserDailyMetric) error
	UpsertProjectDaily(ctx context.Context, m *model.ProjectDailyMetric) error
	HasFreshUserMetrics(ctx context.Context, projectID string, date, today time.Time) (bool, error)
	SumUserTotals(ctx context.Context, userID, projectID string) (float64, int, error)
	ListProjectDaily(ctx context.Context, projectID string, from, to time.Time) ([]*model.ProjectDailyMetric, error)
}

type qualityRepository interface {
	GetCurrent(ctx context.Context, userID, projectID string) (*model.UserQuality, error)
	CreateVersion(ctx context.Context, q *model.UserQuality) error
	CloseVersion(ctx context.Context, id string, at time.Time) error
	OverwriteCurrent(ctx context.Context, q *model.UserQuality) error
	UpsertDaily(ctx context.Context, d *model.UserQualityDaily) error
	ListHistory(ctx context.Context, userID, projectID string) ([]*model.UserQuality, error)
}

type historyRepository interface {
	GetSummary(ctx context.Context, userID, projectID string) (*model.UserProjectHistory, error)
	SaveSummary(ctx context.Context, h *model.UserProjectHistory) error
}

type scanRunRepository interface {
	CreateRun(ctx context.Context, run *model.ScanRun) error
	UpdateRun(ctx context.Context, run *model.ScanRun) error
	LatestRun(ctx context.Context) (*model.ScanRun, error)
}

// Repositories storage dependencies of the aggregator and scanner
type Repositories struct {
	Tx       txRunner
	Projects projectRepository
	WorkLogs workLogRepository
	Members  memberRepository
	Metrics  metricRepository
	Quality  qualityRepository
	History  historyRepository
	ScanRuns scanRunRepository
}

// NewRepositories binds the relational store to the engine
func NewRepositories(repo *rdb.Repository) Repositories {
	return Repositories{
		Tx:       repo.GetDatastore(),
		Projects: repo.Project,
		WorkLogs: repo.WorkLog,
		Members:  repo.Member,
		Metrics:  repo.Metric,
		Quality:  repo.Quality,
		History:  repo.History,
		ScanRuns: repo.ScanRun,
	}
}

// compile-time assertions

var (
	_ txRunner          = (*rdb.Datastore)(nil)
	_ projectRepository = (*rdb.ProjectRepository)(nil)
	_ workLogRepository = (*rdb.WorkLogRepository)(nil)
	_ memberRepository  = (*rdb.MemberRepository)(nil)
	_ metricRepository  = (*rdb.MetricRepository)(nil)
	_ qualityRepository = (*rdb.QualityRepository)(nil)
	_ historyRepository = (*rdb.HistoryRepository)(nil)
	_ scanRunRepository = (*rdb.ScanRunRepository)(nil)
)
