package asynq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"workpulse/pkg/logger"

	"github.com/hibiken/asynq"
)

// RecomputePayload body of a productivity:recompute task
type RecomputePayload struct {
	ProjectID string `json:"project_id"`
	Date      string `json:"date"`
}

// RecomputeFunc runs one recompute. Wrap an error with asynq.SkipRetry to stop retries.
type RecomputeFunc func(ctx context.Context, projectID, date string) error

// RecomputeTaskID deterministic task id for a (project, date) pair
func RecomputeTaskID(projectID, date string) string {
	return fmt.Sprintf("recompute:%s:%s", projectID, date)
}

// NewRecomputeTask builds a recompute task
func NewRecomputeTask(projectID, date string) (*asynq.Task, error) {
	if projectID == "" || date == "" {
		return nil, errors.New("project id and date are required")
	}
	payload, err := json.Marshal(RecomputePayload{ProjectID: projectID, Date: date})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal task: %w", err)
	}
	return asynq.NewTask(TypeRecompute, payload), nil
}

// NewRecomputeHandler adapts fn into an asynq handler
func NewRecomputeHandler(fn RecomputeFunc) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p RecomputePayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			return fmt.Errorf("invalid recompute payload: %v: %w", err, asynq.SkipRetry)
		}
		if p.ProjectID == "" || p.Date == "" {
			return fmt.Errorf("recompute payload missing project_id or date: %w", asynq.SkipRetry)
		}

		taskID, _ := asynq.GetTaskID(ctx)
		logger.InfoCtx(ctx, "processing recompute task %s: project=%s, date=%s", taskID, p.ProjectID, p.Date)
		return fn(ctx, p.ProjectID, p.Date)
	}
}

// RecomputeTaskInfo state of a queued recompute
type RecomputeTaskInfo struct {
	TaskID      string
	State       string
	ProjectID   string
	Date        string
	Retried     int
	MaxRetry    int
	LastError   string
	CompletedAt *time.Time
}

// NewRecomputeTaskInfo converts inspector output for a recompute task
func NewRecomputeTaskInfo(info *asynq.TaskInfo) (*RecomputeTaskInfo, error) {
	if info.Type != TypeRecompute {
		return nil, fmt.Errorf("task %s is a %s task: %w", info.ID, info.Type, ErrTaskNotFound)
	}
	var p RecomputePayload
	if err := json.Unmarshal(info.Payload, &p); err != nil {
		return nil, fmt.Errorf("invalid recompute payload on task %s: %w", info.ID, err)
	}

	out := &RecomputeTaskInfo{
		TaskID:    info.ID,
		State:     info.State.String(),
		ProjectID: p.ProjectID,
		Date:      p.Date,
		Retried:   info.Retried,
		MaxRetry:  info.MaxRetry,
		LastError: info.LastErr,
	}
	if !info.CompletedAt.IsZero() {
		completed := info.CompletedAt
		out.CompletedAt = &completed
	}
	return out, nil
}
