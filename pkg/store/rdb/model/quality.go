package model

import (
	"time"

	"gorm.io/gorm"
)

// UserQuality is a versioned (SCD Type 2) quality rating
type UserQuality struct {
	ID           string    `gorm:"primaryKey;size:36"`
	UserID       string    `gorm:"size:36;not null;index:idx_uq_user_project_current,priority:1"`
	ProjectID    string    `gorm:"size:36;not null;index:idx_uq_user_project_current,priority:2"`
	WorkRole     string    `gorm:"size:64;not null"`
	Rating       string    `gorm:"size:16;not null"`
	QualityScore float64   `gorm:"type:decimal(5,2)"`
	Source       string    `gorm:"size:32;not null;default:MANUAL"`
	AssessedAt   time.Time `gorm:"not null"`
	IsCurrent    bool      `gorm:"not null;default:true;index:idx_uq_user_project_current,priority:3"`
	ValidFrom    time.Time `gorm:"not null"`
	ValidTo      *time.Time
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (UserQuality) TableName() string { return "user_quality" }

func (m *UserQuality) BeforeCreate(*gorm.DB) error {
	newID(&m.ID)
	return nil
}

// UserQualityDaily per-date rating snapshot
type UserQualityDaily struct {
	ID           string    `gorm:"primaryKey;size:36"`
	UserID       string    `gorm:"size:36;not null;uniqueIndex:uk_user_quality_daily,priority:1"`
	ProjectID    string    `gorm:"size:36;not null;uniqueIndex:uk_user_quality_daily,priority:2"`
	RatingDate   time.Time `gorm:"type:date;not null;uniqueIndex:uk_user_quality_daily,priority:3"`
	WorkRole     string    `gorm:"size:64;not null"`
	Rating       string    `gorm:"size:16;not null"`
	QualityScore float64   `gorm:"type:decimal(5,2)"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (UserQualityDaily) TableName() string { return "user_quality_daily" }

func (m *UserQualityDaily) BeforeCreate(*gorm.DB) error {
	newID(&m.ID)
	return nil
}
