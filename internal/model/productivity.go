package model

import (
	"time"

	queue "workpulse/pkg/queue/asynq"
	rdbModel "workpulse/pkg/store/rdb/model"
)

// RecalculateRequest recalculate request body, date may also come from the query string
type RecalculateRequest struct {
	Date string `json:"date" form:"date"`
}

// RecalculateAccepted async recalculate response
type RecalculateAccepted struct {
	TaskID    string `json:"task_id"`
	ProjectID string `json:"project_id"`
	Date      string `json:"date"`
	Status    string `json:"status"`
}

// RecomputeTask queued recompute status view
type RecomputeTask struct {
	TaskID      string     `json:"task_id"`
	State       string     `json:"state"`
	ProjectID   string     `json:"project_id"`
	Date        string     `json:"date"`
	Retried     int        `json:"retried"`
	MaxRetry    int        `json:"max_retry"`
	LastError   string     `json:"last_error,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// FromRecomputeTask converts queue inspector output to the API view
func FromRecomputeTask(info *queue.RecomputeTaskInfo) *RecomputeTask {
	if info == nil {
		return nil
	}
	return &RecomputeTask{
		TaskID:      info.TaskID,
		State:       info.State,
		ProjectID:   info.ProjectID,
		Date:        info.Date,
		Retried:     info.Retried,
		MaxRetry:    info.MaxRetry,
		LastError:   info.LastError,
		CompletedAt: info.CompletedAt,
	}
}

// ScanRun scan run view
type ScanRun struct {
	ID                string     `json:"id"`
	Trigger           string     `json:"trigger"`
	Status            string     `json:"status"`
	WindowDays        int        `json:"window_days"`
	Processed         int        `json:"processed"`
	Skipped           int        `json:"skipped"`
	Errors            int        `json:"errors"`
	ErrorSample       []string   `json:"error_sample,omitempty"`
	ProcessedProjects []string   `json:"processed_projects"`
	IdleProjects      []string   `json:"idle_projects"`
	FailureReason     string     `json:"failure_reason,omitempty"`
	StartedAt         time.Time  `json:"started_at"`
	FinishedAt        *time.Time `json:"finished_at,omitempty"`
}

// ScanStatusResponse scan status response
type ScanStatusResponse struct {
	Running   bool     `json:"running"`
	LatestRun *ScanRun `json:"latest_run"`
}

// ProjectMetric project daily rollup view
type ProjectMetric struct {
	ProjectID            string  `json:"project_id"`
	MetricDate           string  `json:"metric_date"`
	TasksCompleted       int     `json:"tasks_completed"`
	ActiveUsersCount     int     `json:"active_users_count"`
	TotalHoursWorked     float64 `json:"total_hours_worked"`
	AvgProductivityScore float64 `json:"avg_productivity_score"`
	AvgHoursPerUser      float64 `json:"avg_hours_per_user"`
}

// QualityVersion one quality record version
type QualityVersion struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	ProjectID    string     `json:"project_id"`
	WorkRole     string     `json:"work_role"`
	Rating       string     `json:"rating"`
	QualityScore float64    `json:"quality_score"`
	Source       string     `json:"source"`
	IsCurrent    bool       `json:"is_current"`
	AssessedAt   time.Time  `json:"assessed_at"`
	ValidFrom    time.Time  `json:"valid_from"`
	ValidTo      *time.Time `json:"valid_to,omitempty"`
}

// FromScanRun converts a stored scan run, nil stays nil
func FromScanRun(r *rdbModel.ScanRun) *ScanRun {
	if r == nil {
		return nil
	}
	return &ScanRun{
		ID:                r.ID,
		Trigger:           r.Trigger,
		Status:            r.Status,
		WindowDays:        r.WindowDays,
		Processed:         r.Processed,
		Skipped:           r.Skipped,
		Errors:            r.Errors,
		ErrorSample:       r.ErrorSample,
		ProcessedProjects: nonNil(r.ProcessedProjects),
		IdleProjects:      nonNil(r.IdleProjects),
		FailureReason:     r.FailureReason,
		StartedAt:         r.StartedAt,
		FinishedAt:        r.FinishedAt,
	}
}

// FromProjectMetrics converts stored project rollups
func FromProjectMetrics(rows []*rdbModel.ProjectDailyMetric) []ProjectMetric {
	out := make([]ProjectMetric, 0, len(rows))
	for _, r := range rows {
		out = append(out, ProjectMetric{
			ProjectID:            r.ProjectID,
			MetricDate:           r.MetricDate.Format(time.DateOnly),
			TasksCompleted:       r.TasksCompleted,
			ActiveUsersCount:     r.ActiveUsersCount,
			TotalHoursWorked:     r.TotalHoursWorked,
			AvgProductivityScore: r.AvgProductivityScore,
			AvgHoursPerUser:      r.AvgHoursPerUser,
		})
	}
	return out
}

// FromQualityHistory converts stored quality versions
func FromQualityHistory(rows []*rdbModel.UserQuality) []QualityVersion {
	out := make([]QualityVersion, 0, len(rows))
	for _, r := range rows {
		out = append(out, QualityVersion{
			ID:           r.ID,
			UserID:       r.UserID,
			ProjectID:    r.ProjectID,
			WorkRole:     r.WorkRole,
			Rating:       r.Rating,
			QualityScore: r.QualityScore,
			Source:       r.Source,
			IsCurrent:    r.IsCurrent,
			AssessedAt:   r.AssessedAt,
			ValidFrom:    r.ValidFrom,
			ValidTo:      r.ValidTo,
		})
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
