package model

import (
	"time"

	"gorm.io/gorm"
)

// ScanRun records one scan driver execution
type ScanRun struct {
	ID                string          `gorm:"primaryKey;size:36"`
	Trigger           string          `gorm:"size:20;not null"`
	Status            string          `gorm:"size:20;not null;index:idx_scan_run_status"`
	WindowDays        int             `gorm:"not null"`
	Processed         int             `gorm:"not null;default:0"`
	Skipped           int             `gorm:"not null;default:0"`
	Errors            int             `gorm:"not null;default:0"`
	ErrorSample       JSONStringArray `gorm:"type:json"`
	ProcessedProjects JSONStringArray `gorm:"type:json"`
	IdleProjects      JSONStringArray `gorm:"type:json"`
	FailureReason     string          `gorm:"type:text"`
	StartedAt         time.Time       `gorm:"not null;index:idx_scan_run_started"`
	FinishedAt        *time.Time
	CreatedAt         time.Time `gorm:"autoCreateTime"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime"`
}

func (ScanRun) TableName() string { return "productivity_scan_runs" }

func (m *ScanRun) BeforeCreate(*gorm.DB) error {
	newID(&m.ID)
	return nil
}
