package model

import "time"

// User is read-only for the engine
type User struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Name      string    `gorm:"size:255;not null"`
	Email     string    `gorm:"size:255;not null;uniqueIndex:uk_users_email"`
	IsActive  bool      `gorm:"not null;default:true"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (User) TableName() string { return "users" }

// Project is read-only for the engine
type Project struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Code      string    `gorm:"size:64;not null;uniqueIndex:uk_projects_code"`
	Name      string    `gorm:"size:255;not null"`
	IsActive  bool      `gorm:"not null;default:true;index:idx_projects_active"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Project) TableName() string { return "projects" }

// ProjectMember assigns a user to a project under a work role
type ProjectMember struct {
	ID           string     `gorm:"primaryKey;size:36"`
	ProjectID    string     `gorm:"size:36;not null;index:idx_pm_project_user,priority:1"`
	UserID       string     `gorm:"size:36;not null;index:idx_pm_project_user,priority:2"`
	WorkRole     string     `gorm:"size:64;not null"`
	AssignedFrom time.Time  `gorm:"type:date;not null"`
	AssignedTo   *time.Time `gorm:"type:date"`
	IsActive     bool       `gorm:"not null;default:true"`
	CreatedAt    time.Time  `gorm:"autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime"`
}

func (ProjectMember) TableName() string { return "project_members" }

// WorkLogEntry is one clock-in/clock-out session
type WorkLogEntry struct {
	ID               string    `gorm:"primaryKey;size:36"`
	UserID           string    `gorm:"size:36;not null;index:idx_history_user"`
	ProjectID        string    `gorm:"size:36;not null;index:idx_history_project_date_status,priority:1"`
	WorkRole         string    `gorm:"size:64;not null"`
	Status           string    `gorm:"size:20;not null;default:PENDING;index:idx_history_project_date_status,priority:3"`
	SheetDate        time.Time `gorm:"type:date;not null;index:idx_history_project_date_status,priority:2"`
	ClockInAt        time.Time `gorm:"not null"`
	ClockOutAt       *time.Time
	TasksCompleted   int      `gorm:"not null;default:0"`
	MinutesWorked    *float64 `gorm:"type:decimal(10,2)"`
	ApprovedByUserID *string  `gorm:"size:36"`
	ApprovedAt       *time.Time
	CreatedAt        time.Time `gorm:"autoCreateTime"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime"`
}

func (WorkLogEntry) TableName() string { return "history" }
