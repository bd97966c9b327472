package rdb

import (
	"workpulse/pkg/config"
	"workpulse/pkg/store/rdb/model"
)

// Repository aggregates all relational repositories
type Repository struct {
	ds *Datastore

	Project *ProjectRepository
	WorkLog *WorkLogRepository
	Member  *MemberRepository
	Metric  *MetricRepository
	Quality *QualityRepository
	History *HistoryRepository
	ScanRun *ScanRunRepository
}

// NewRepository opens the datastore and wires every sub-repository
func NewRepository(cfg config.DatabaseConfig) (*Repository, error) {
	ds, err := NewDatastore(cfg)
	if err != nil {
		return nil, err
	}
	return NewRepositoryFromDatastore(ds), nil
}

func NewRepositoryFromDatastore(ds *Datastore) *Repository {
	return &Repository{
		ds:      ds,
		Project: NewProjectRepository(ds),
		WorkLog: NewWorkLogRepository(ds),
		Member:  NewMemberRepository(ds),
		Metric:  NewMetricRepository(ds),
		Quality: NewQualityRepository(ds),
		History: NewHistoryRepository(ds),
		ScanRun: NewScanRunRepository(ds),
	}
}

// GetDatastore returns the underlying datastore for transaction support
func (r *Repository) GetDatastore() *Datastore {
	return r.ds
}

// MigrateOwnedTables creates the tables the engine writes. Source tables
// (users, projects, project_members, history) belong to the wider HR system.
func (r *Repository) MigrateOwnedTables() error {
	return r.ds.AutoMigrate(
		&model.ProjectDailyMetric{},
		&model.UserDailyMetric{},
		&model.UserQuality{},
		&model.UserQualityDaily{},
		&model.UserProjectHistory{},
		&model.ScanRun{},
	)
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.ds.Close()
}
