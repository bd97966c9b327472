package rdb

import (
	"context"
	"fmt"
	"time"

	"workpulse/pkg/store/rdb/model"

	"gorm.io/gorm/clause"
)

// MetricRepository persists project and user daily metrics
type MetricRepository struct {
	ds *Datastore
}

// NewMetricRepository creates a new metric repository
func NewMetricRepository(ds *Datastore) *MetricRepository {
	return &MetricRepository{ds: ds}
}

// UpsertUserDaily inserts or overwrites the (user, project, date) row
func (r *MetricRepository) UpsertUserDaily(ctx context.Context, m *model.UserDailyMetric) error {
	return r.ds.DB(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "project_id"}, {Name: "metric_date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"work_role", "hours_worked", "tasks_completed", "productivity_score", "computed_on", "updated_at",
		}),
	}).Create(m).Error
}

// UpsertProjectDaily inserts or overwrites the (project, date) row
func (r *MetricRepository) UpsertProjectDaily(ctx context.Context, m *model.ProjectDailyMetric) error {
	return r.ds.DB(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "project_id"}, {Name: "metric_date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"tasks_completed", "active_users_count", "total_hours_worked",
			"avg_productivity_score", "avg_hours_per_user", "updated_at",
		}),
	}).Create(m).Error
}

// HasFreshUserMetrics reports whether (project, date) already has user metrics computed on today
func (r *MetricRepository) HasFreshUserMetrics(ctx context.Context, projectID string, date, today time.Time) (bool, error) {
	var count int64
	err := r.ds.DB(ctx).Model(&model.UserDailyMetric{}).
		Where("project_id = ? AND metric_date = ? AND computed_on = ?", projectID, day(date), day(today)).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check metric freshness: %w", err)
	}
	return count > 0, nil
}

// SumUserTotals returns lifetime hours and tasks of a user on a project
func (r *MetricRepository) SumUserTotals(ctx context.Context, userID, projectID string) (float64, int, error) {
	var agg struct {
		Hours float64
		Tasks int
	}
	err := r.ds.DB(ctx).Model(&model.UserDailyMetric{}).
		Select("COALESCE(SUM(hours_worked), 0) AS hours, COALESCE(SUM(tasks_completed), 0) AS tasks").
		Where("user_id = ? AND project_id = ?", userID, projectID).
		Scan(&agg).Error
	if err != nil {
		return 0, 0, fmt.Errorf("failed to sum user totals: %w", err)
	}
	return agg.Hours, agg.Tasks, nil
}

// ListProjectDaily retrieves project metrics between from and to inclusive, oldest first
func (r *MetricRepository) ListProjectDaily(ctx context.Context, projectID string, from, to time.Time) ([]*model.ProjectDailyMetric, error) {
	var metrics []*model.ProjectDailyMetric
	err := r.ds.DB(ctx).
		Where("project_id = ? AND metric_date BETWEEN ? AND ?", projectID, day(from), day(to)).
		Order("metric_date ASC").
		Find(&metrics).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list project metrics: %w", err)
	}
	return metrics, nil
}
