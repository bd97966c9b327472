package rdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"workpulse/pkg/store/rdb/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QualityRepository persists versioned quality ratings and daily snapshots
type QualityRepository struct {
	ds *Datastore
}

// NewQualityRepository creates a new quality repository
func NewQualityRepository(ds *Datastore) *QualityRepository {
	return &QualityRepository{ds: ds}
}

// GetCurrent retrieves and row-locks the current version for (user, project), nil when none
func (r *QualityRepository) GetCurrent(ctx context.Context, userID, projectID string) (*model.UserQuality, error) {
	var q model.UserQuality
	err := r.ds.DB(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND project_id = ? AND is_current = ?", userID, projectID, true).
		Order("valid_from DESC").
		First(&q).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get current quality: %w", err)
	}
	return &q, nil
}

// CreateVersion appends a new version
func (r *QualityRepository) CreateVersion(ctx context.Context, q *model.UserQuality) error {
	return r.ds.DB(ctx).Create(q).Error
}

// CloseVersion marks a version as superseded at the given time
func (r *QualityRepository) CloseVersion(ctx context.Context, id string, at time.Time) error {
	return r.ds.DB(ctx).Model(&model.UserQuality{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_current": false,
			"valid_to":   at,
		}).Error
}

// OverwriteCurrent rewrites rating fields of an existing version in place
func (r *QualityRepository) OverwriteCurrent(ctx context.Context, q *model.UserQuality) error {
	return r.ds.DB(ctx).Model(&model.UserQuality{}).
		Where("id = ?", q.ID).
		Updates(map[string]interface{}{
			"rating":        q.Rating,
			"quality_score": q.QualityScore,
			"work_role":     q.WorkRole,
			"assessed_at":   q.AssessedAt,
		}).Error
}

// UpsertDaily inserts or overwrites the (user, project, date) snapshot
func (r *QualityRepository) UpsertDaily(ctx context.Context, d *model.UserQualityDaily) error {
	return r.ds.DB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "project_id"}, {Name: "rating_date"}},
		DoUpdates: clause.AssignmentColumns([]string{"work_role", "rating", "quality_score", "updated_at"}),
	}).Create(d).Error
}

// ListHistory retrieves all versions for (user, project), newest first
func (r *QualityRepository) ListHistory(ctx context.Context, userID, projectID string) ([]*model.UserQuality, error) {
	var versions []*model.UserQuality
	err := r.ds.DB(ctx).
		Where("user_id = ? AND project_id = ?", userID, projectID).
		Order("valid_from DESC").
		Find(&versions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list quality history: %w", err)
	}
	return versions, nil
}
