package model

import (
	"time"

	"gorm.io/gorm"
)

// ProjectDailyMetric project-level rollup for one date
type ProjectDailyMetric struct {
	ID                   string    `gorm:"primaryKey;size:36"`
	ProjectID            string    `gorm:"size:36;not null;uniqueIndex:uk_project_metric_date,priority:1"`
	MetricDate           time.Time `gorm:"type:date;not null;uniqueIndex:uk_project_metric_date,priority:2"`
	TasksCompleted       int       `gorm:"not null;default:0"`
	ActiveUsersCount     int       `gorm:"not null;default:0"`
	TotalHoursWorked     float64   `gorm:"type:decimal(10,2);default:0"`
	AvgProductivityScore float64   `gorm:"type:decimal(5,2);default:0"`
	AvgHoursPerUser      float64   `gorm:"type:decimal(10,2);default:0"`
	CreatedAt            time.Time `gorm:"autoCreateTime"`
	UpdatedAt            time.Time `gorm:"autoUpdateTime"`
}

func (ProjectDailyMetric) TableName() string { return "project_daily_metrics" }

func (m *ProjectDailyMetric) BeforeCreate(*gorm.DB) error {
	newID(&m.ID)
	return nil
}

// UserDailyMetric per-user rollup for one (project, date)
type UserDailyMetric struct {
	ID                string    `gorm:"primaryKey;size:36"`
	UserID            string    `gorm:"size:36;not null;uniqueIndex:uk_user_project_metric_date,priority:1"`
	ProjectID         string    `gorm:"size:36;not null;uniqueIndex:uk_user_project_metric_date,priority:2;index:idx_udm_project_date,priority:1"`
	MetricDate        time.Time `gorm:"type:date;not null;uniqueIndex:uk_user_project_metric_date,priority:3;index:idx_udm_project_date,priority:2"`
	WorkRole          string    `gorm:"size:64;not null"`
	HoursWorked       float64   `gorm:"type:decimal(10,2);default:0"`
	TasksCompleted    int       `gorm:"not null;default:0"`
	ProductivityScore float64   `gorm:"type:decimal(5,2)"`
	ComputedOn        time.Time `gorm:"type:date;not null"`
	CreatedAt         time.Time `gorm:"autoCreateTime"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime"`
}

func (UserDailyMetric) TableName() string { return "user_daily_metrics" }

func (m *UserDailyMetric) BeforeCreate(*gorm.DB) error {
	newID(&m.ID)
	return nil
}

// UserProjectHistory lifetime summary of a user's work on a project
type UserProjectHistory struct {
	ID                  string    `gorm:"primaryKey;size:36"`
	UserID              string    `gorm:"size:36;not null;uniqueIndex:uk_user_project_history,priority:1"`
	ProjectID           string    `gorm:"size:36;not null;uniqueIndex:uk_user_project_history,priority:2"`
	WorkRole            string    `gorm:"size:64;not null"`
	TotalHoursWorked    float64   `gorm:"type:decimal(10,2);default:0"`
	TotalTasksCompleted int       `gorm:"not null;default:0"`
	FirstWorkedDate     time.Time `gorm:"type:date;not null"`
	LastWorkedDate      time.Time `gorm:"type:date;not null"`
	CreatedAt           time.Time `gorm:"autoCreateTime"`
	UpdatedAt           time.Time `gorm:"autoUpdateTime"`
}

func (UserProjectHistory) TableName() string { return "user_project_history" }

func (m *UserProjectHistory) BeforeCreate(*gorm.DB) error {
	newID(&m.ID)
	return nil
}
