package rdb

import (
	"context"
	"fmt"
	"time"

	"workpulse/pkg/constants"
	"workpulse/pkg/store/rdb/model"
)

// UserDayTotal per-user sums of approved work for one (project, date)
type UserDayTotal struct {
	UserID   string
	UserName string
	Minutes  float64
	Tasks    int
}

// WorkLogRepository reads time-tracking entries (table history)
type WorkLogRepository struct {
	ds *Datastore
}

// NewWorkLogRepository creates a new work log repository
func NewWorkLogRepository(ds *Datastore) *WorkLogRepository {
	return &WorkLogRepository{ds: ds}
}

func day(t time.Time) string {
	return t.Format(time.DateOnly)
}

// SumApprovedByUser sums minutes and tasks of approved entries per user, ordered by user name
func (r *WorkLogRepository) SumApprovedByUser(ctx context.Context, projectID string, date time.Time) ([]*UserDayTotal, error) {
	var rows []*UserDayTotal
	err := r.ds.DB(ctx).
		Table("history AS h").
		Select("h.user_id AS user_id, u.name AS user_name, "+
			"COALESCE(SUM(h.minutes_worked), 0) AS minutes, "+
			"COALESCE(SUM(h.tasks_completed), 0) AS tasks").
		Joins("JOIN users u ON u.id = h.user_id").
		Where("h.project_id = ? AND h.sheet_date = ? AND h.status = ?",
			projectID, day(date), constants.WorkLogStatusApproved.String()).
		Group("h.user_id, u.name").
		Order("u.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to sum approved work logs: %w", err)
	}
	return rows, nil
}

// CountInRange counts entries of any status for a project between from and to inclusive
func (r *WorkLogRepository) CountInRange(ctx context.Context, projectID string, from, to time.Time) (int64, error) {
	var count int64
	err := r.ds.DB(ctx).Model(&model.WorkLogEntry{}).
		Where("project_id = ? AND sheet_date BETWEEN ? AND ?", projectID, day(from), day(to)).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count work logs: %w", err)
	}
	return count, nil
}

// HasApprovedClockedOut reports whether any approved, clocked-out entry exists for (project, date)
func (r *WorkLogRepository) HasApprovedClockedOut(ctx context.Context, projectID string, date time.Time) (bool, error) {
	var count int64
	err := r.ds.DB(ctx).Model(&model.WorkLogEntry{}).
		Where("project_id = ? AND sheet_date = ? AND status = ? AND clock_out_at IS NOT NULL",
			projectID, day(date), constants.WorkLogStatusApproved.String()).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check approved work logs: %w", err)
	}
	return count > 0, nil
}
