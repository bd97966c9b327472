package rdb

import (
	"context"
	"errors"
	"fmt"

	"workpulse/pkg/store/rdb/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProjectRepository reads projects
type ProjectRepository struct {
	ds *Datastore
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(ds *Datastore) *ProjectRepository {
	return &ProjectRepository{ds: ds}
}

// Get retrieves a project by id, nil when absent
func (r *ProjectRepository) Get(ctx context.Context, projectID string) (*model.Project, error) {
	var project model.Project
	err := r.ds.DB(ctx).Where("id = ?", projectID).First(&project).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return &project, nil
}

// ListActive retrieves active projects ordered by name
func (r *ProjectRepository) ListActive(ctx context.Context) ([]*model.Project, error) {
	var projects []*model.Project
	err := r.ds.DB(ctx).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&projects).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active projects: %w", err)
	}
	return projects, nil
}

// LockForUpdate takes a row lock on the project for the surrounding transaction
func (r *ProjectRepository) LockForUpdate(ctx context.Context, projectID string) error {
	var project model.Project
	err := r.ds.DB(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}). // SELECT FOR UPDATE
		Select("id").
		Where("id = ?", projectID).
		Take(&project).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("project %s not found", projectID)
		}
		return fmt.Errorf("failed to lock project: %w", err)
	}
	return nil
}
