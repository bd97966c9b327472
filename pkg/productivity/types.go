package productivity

import (
	"encoding/json"
	"errors"

	"workpulse/pkg/constants"
)

var (
	// ErrProjectNotFound the requested project does not exist
	ErrProjectNotFound = errors.New("project not found")
	// ErrScanInProgress a scan is already running in this process
	ErrScanInProgress = errors.New("scan already in progress")
	// ErrInvalidDate calculation date is not YYYY-MM-DD
	ErrInvalidDate = errors.New("invalid date, expected YYYY-MM-DD")
)

// UserTotal per-user sums of approved work for one (project, date)
type UserTotal struct {
	UserID   string
	UserName string
	Minutes  float64
	Tasks    int
}

// UserDetail per-user entry of a Success result
type UserDetail struct {
	UserID   string                  `json:"userId"`
	UserName string                  `json:"userName"`
	WorkRole string                  `json:"workRole"`
	Tasks    int                     `json:"tasks"`
	Hours    float64                 `json:"hours"`
	Score    float64                 `json:"score"`
	Rating   constants.QualityRating `json:"rating"`
}

// Result outcome of one ComputeDailyMetrics call
type Result struct {
	Status          constants.ComputeStatus `json:"status"`
	ProjectID       string                  `json:"projectId"`
	Date            string                  `json:"date"`
	Message         string                  `json:"message,omitempty"`
	ProjectAvgTasks float64                 `json:"projectAvgTasks"`
	BadThreshold    float64                 `json:"badThreshold"`
	ProjectAvgHours float64                 `json:"projectAvgHours"`
	ProcessedUsers  int                     `json:"processedUsers"`
	Details         []UserDetail            `json:"details,omitempty"`
}

func (r *Result) Skipped() bool {
	return r.Status == constants.ComputeStatusSkipped
}

// skippedPayload is the wire shape of a Skipped result
type skippedPayload struct {
	Status    constants.ComputeStatus `json:"status"`
	ProjectID string                  `json:"projectId"`
	Date      string                  `json:"date"`
	Message   string                  `json:"message"`
	Processed int                     `json:"processed"`
}

// MarshalJSON writes Skipped results as {status, message, processed: 0}
func (r Result) MarshalJSON() ([]byte, error) {
	if r.Status == constants.ComputeStatusSkipped {
		return json.Marshal(skippedPayload{
			Status:    r.Status,
			ProjectID: r.ProjectID,
			Date:      r.Date,
			Message:   r.Message,
		})
	}
	type plain Result
	return json.Marshal(plain(r))
}

// ScanSummary statistics of one scan driver run
type ScanSummary struct {
	RunID             string   `json:"runId"`
	Trigger           string   `json:"trigger"`
	Processed         int      `json:"processed"`
	Skipped           int      `json:"skipped"`
	Errors            int      `json:"errors"`
	ProcessedProjects []string `json:"processedProjects"`
	IdleProjects      []string `json:"idleProjects"`
	ErrorSample       []string `json:"errorSample,omitempty"`
}
