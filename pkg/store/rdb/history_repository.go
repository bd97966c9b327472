package rdb

import (
	"context"
	"errors"
	"fmt"

	"workpulse/pkg/store/rdb/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// HistoryRepository persists user/project work summaries
type HistoryRepository struct {
	ds *Datastore
}

// NewHistoryRepository creates a new history summary repository
func NewHistoryRepository(ds *Datastore) *HistoryRepository {
	return &HistoryRepository{ds: ds}
}

// GetSummary retrieves the (user, project) summary, nil when none
func (r *HistoryRepository) GetSummary(ctx context.Context, userID, projectID string) (*model.UserProjectHistory, error) {
	var h model.UserProjectHistory
	err := r.ds.DB(ctx).Where("user_id = ? AND project_id = ?", userID, projectID).First(&h).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user project history: %w", err)
	}
	return &h, nil
}

// SaveSummary inserts or overwrites the (user, project) summary
func (r *HistoryRepository) SaveSummary(ctx context.Context, h *model.UserProjectHistory) error {
	return r.ds.DB(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "project_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"work_role", "total_hours_worked", "total_tasks_completed",
			"first_worked_date", "last_worked_date", "updated_at",
		}),
	}).Create(h).Error
}
