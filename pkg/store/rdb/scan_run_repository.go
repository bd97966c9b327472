package rdb

import (
	"context"
	"errors"
	"fmt"

	"workpulse/pkg/store/rdb/model"

	"gorm.io/gorm"
)

// ScanRunRepository persists scan driver runs
type ScanRunRepository struct {
	ds *Datastore
}

// NewScanRunRepository creates a new scan run repository
func NewScanRunRepository(ds *Datastore) *ScanRunRepository {
	return &ScanRunRepository{ds: ds}
}

// CreateRun records a run start
func (r *ScanRunRepository) CreateRun(ctx context.Context, run *model.ScanRun) error {
	return r.ds.DB(ctx).Create(run).Error
}

// UpdateRun records run progress or outcome
func (r *ScanRunRepository) UpdateRun(ctx context.Context, run *model.ScanRun) error {
	return r.ds.DB(ctx).Save(run).Error
}

// LatestRun retrieves the most recently started run, nil when none
func (r *ScanRunRepository) LatestRun(ctx context.Context) (*model.ScanRun, error) {
	var run model.ScanRun
	err := r.ds.DB(ctx).Order("started_at DESC").First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest scan run: %w", err)
	}
	return &run, nil
}
