package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"workpulse/internal/service"
	"workpulse/pkg/constants"
	"workpulse/pkg/productivity"
	queue "workpulse/pkg/queue/asynq"
	rdbModel "workpulse/pkg/store/rdb/model"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubEngine struct {
	computeErr error
	running    bool
	latest     *rdbModel.ScanRun
	metrics    []*rdbModel.ProjectDailyMetric
	quality    []*rdbModel.UserQuality
	enqueued   []string
}

func (s *stubEngine) ComputeDailyMetrics(_ context.Context, projectID string, date time.Time) (*productivity.Result, error) {
	if s.computeErr != nil {
		return nil, s.computeErr
	}
	if projectID == "EMPTY" {
		return &productivity.Result{Status: constants.ComputeStatusSkipped, ProjectID: projectID, Date: date.Format(time.DateOnly), Message: "no approved work logs"}, nil
	}
	return &productivity.Result{
		Status:          constants.ComputeStatusSuccess,
		ProjectID:       projectID,
		Date:            date.Format(time.DateOnly),
		ProjectAvgTasks: 11.67,
		ProcessedUsers:  3,
	}, nil
}

func (s *stubEngine) RunScan(_ context.Context, trigger constants.ScanTrigger) (*productivity.ScanSummary, error) {
	return &productivity.ScanSummary{Trigger: trigger.String()}, nil
}

func (s *stubEngine) Running() bool { return s.running }

func (s *stubEngine) LatestRun(context.Context) (*rdbModel.ScanRun, error) { return s.latest, nil }

func (s *stubEngine) EnqueueRecompute(_ context.Context, projectID, date string) (string, error) {
	s.enqueued = append(s.enqueued, projectID+"@"+date)
	return "recompute:" + projectID + ":" + date, nil
}

func (s *stubEngine) GetRecomputeTask(taskID string) (*queue.RecomputeTaskInfo, error) {
	if taskID != "recompute:P:2024-03-09" {
		return nil, fmt.Errorf("%w: %s", queue.ErrTaskNotFound, taskID)
	}
	completed := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	return &queue.RecomputeTaskInfo{
		TaskID:      taskID,
		State:       "completed",
		ProjectID:   "P",
		Date:        "2024-03-09",
		MaxRetry:    3,
		CompletedAt: &completed,
	}, nil
}

func (s *stubEngine) Get(_ context.Context, projectID string) (*rdbModel.Project, error) {
	if projectID == "MISSING" {
		return nil, nil
	}
	return &rdbModel.Project{ID: projectID, Name: projectID, IsActive: true}, nil
}

func (s *stubEngine) ListProjectDaily(context.Context, string, time.Time, time.Time) ([]*rdbModel.ProjectDailyMetric, error) {
	return s.metrics, nil
}

func (s *stubEngine) ListHistory(context.Context, string, string) ([]*rdbModel.UserQuality, error) {
	return s.quality, nil
}

func newTestEngine(stub *stubEngine, withQueue bool) *gin.Engine {
	svc := service.NewProductivityService(context.Background(), stub, stub, nil, stub, stub, stub)
	if withQueue {
		svc.SetQueue(stub)
	}
	h := NewProductivityHandler(svc)

	engine := gin.New()
	api := engine.Group("/api/v1/productivity")
	api.POST("/projects/:project_id/recalculate", h.Recalculate)
	api.GET("/tasks/:task_id", h.GetRecomputeTask)
	api.POST("/scan", h.TriggerScan)
	api.GET("/scan/status", h.GetScanStatus)
	api.GET("/projects/:project_id/metrics", h.ListProjectMetrics)
	api.GET("/projects/:project_id/users/:user_id/quality", h.GetQualityHistory)
	return engine
}

func do(engine *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestRecalculate_Success(t *testing.T) {
	engine := newTestEngine(&stubEngine{}, false)

	w := do(engine, http.MethodPost, "/api/v1/productivity/projects/P/recalculate", `{"date":"2024-03-09"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var result productivity.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, constants.ComputeStatusSuccess, result.Status)
	assert.Equal(t, "2024-03-09", result.Date)
	assert.Equal(t, 3, result.ProcessedUsers)
}

func TestRecalculate_DateFromQuery(t *testing.T) {
	engine := newTestEngine(&stubEngine{}, false)
	w := do(engine, http.MethodPost, "/api/v1/productivity/projects/EMPTY/recalculate?date=2024-03-09", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"Skipped"`)
	assert.Contains(t, w.Body.String(), `"processed":0`)
	assert.NotContains(t, w.Body.String(), `processedUsers`)
}

func TestRecalculate_InternalErrorIsRedacted(t *testing.T) {
	stub := &stubEngine{computeErr: errors.New("dial tcp 10.0.3.7:3306: hr:s3cret@tcp(db.internal:3306)/hrm refused")}
	w := do(newTestEngine(stub, false), http.MethodPost, "/api/v1/productivity/projects/P/recalculate?date=2024-03-09", "")
	require.Equal(t, http.StatusInternalServerError, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, `"internal error"`)
	assert.NotContains(t, body, "s3cret")
	assert.NotContains(t, body, "10.0.3.7")
}

func TestGetRecomputeTask(t *testing.T) {
	engine := newTestEngine(&stubEngine{}, true)

	w := do(engine, http.MethodGet, "/api/v1/productivity/tasks/recompute:P:2024-03-09", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		TaskID      string     `json:"task_id"`
		State       string     `json:"state"`
		ProjectID   string     `json:"project_id"`
		Date        string     `json:"date"`
		CompletedAt *time.Time `json:"completed_at"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "recompute:P:2024-03-09", body.TaskID)
	assert.Equal(t, "completed", body.State)
	assert.Equal(t, "P", body.ProjectID)
	require.NotNil(t, body.CompletedAt)

	w = do(engine, http.MethodGet, "/api/v1/productivity/tasks/recompute:P:1999-01-01", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(newTestEngine(&stubEngine{}, false), http.MethodGet, "/api/v1/productivity/tasks/recompute:P:2024-03-09", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRecalculate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		body    string
		stubErr error
		want    int
	}{
		{"missing date", "/api/v1/productivity/projects/P/recalculate", "", nil, http.StatusBadRequest},
		{"bad date", "/api/v1/productivity/projects/P/recalculate?date=09-03-2024", "", nil, http.StatusBadRequest},
		{"bad body", "/api/v1/productivity/projects/P/recalculate", "{", nil, http.StatusBadRequest},
		{"unknown project", "/api/v1/productivity/projects/X/recalculate?date=2024-03-09", "", productivity.ErrProjectNotFound, http.StatusNotFound},
		{"write failure", "/api/v1/productivity/projects/P/recalculate?date=2024-03-09", "", errors.New("deadlock"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newTestEngine(&stubEngine{computeErr: tt.stubErr}, false)
			w := do(engine, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestRecalculate_Async(t *testing.T) {
	stub := &stubEngine{}
	engine := newTestEngine(stub, true)

	w := do(engine, http.MethodPost, "/api/v1/productivity/projects/P/recalculate?async=true&date=2024-03-09", "")
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), `"task_id":"recompute:P:2024-03-09"`)
	assert.Equal(t, []string{"P@2024-03-09"}, stub.enqueued)

	w = do(engine, http.MethodPost, "/api/v1/productivity/projects/MISSING/recalculate?async=true&date=2024-03-09", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecalculate_AsyncWithoutQueue(t *testing.T) {
	engine := newTestEngine(&stubEngine{}, false)
	w := do(engine, http.MethodPost, "/api/v1/productivity/projects/P/recalculate?async=true&date=2024-03-09", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestTriggerScan(t *testing.T) {
	w := do(newTestEngine(&stubEngine{}, false), http.MethodPost, "/api/v1/productivity/scan", "")
	assert.Equal(t, http.StatusAccepted, w.Code)

	w = do(newTestEngine(&stubEngine{running: true}, false), http.MethodPost, "/api/v1/productivity/scan", "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestGetScanStatus(t *testing.T) {
	finished := time.Date(2024, 3, 10, 6, 5, 0, 0, time.UTC)
	stub := &stubEngine{latest: &rdbModel.ScanRun{
		ID:         "run-1",
		Trigger:    constants.ScanTriggerSchedule.String(),
		Status:     constants.ScanRunStatusCompleted.String(),
		Processed:  4,
		StartedAt:  finished.Add(-5 * time.Minute),
		FinishedAt: &finished,
	}}

	w := do(newTestEngine(stub, false), http.MethodGet, "/api/v1/productivity/scan/status", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Running   bool `json:"running"`
		LatestRun struct {
			ID                string   `json:"id"`
			Processed         int      `json:"processed"`
			ProcessedProjects []string `json:"processed_projects"`
		} `json:"latest_run"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Running)
	assert.Equal(t, "run-1", body.LatestRun.ID)
	assert.Equal(t, 4, body.LatestRun.Processed)
	assert.NotNil(t, body.LatestRun.ProcessedProjects)
}

func TestGetScanStatus_NoRunsYet(t *testing.T) {
	w := do(newTestEngine(&stubEngine{}, false), http.MethodGet, "/api/v1/productivity/scan/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"running":false,"latest_run":null}`, w.Body.String())
}

func TestListProjectMetrics(t *testing.T) {
	stub := &stubEngine{metrics: []*rdbModel.ProjectDailyMetric{{
		ProjectID:            "P",
		MetricDate:           time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC),
		TasksCompleted:       35,
		ActiveUsersCount:     3,
		AvgProductivityScore: 8.5,
	}}}
	engine := newTestEngine(stub, false)

	w := do(engine, http.MethodGet, "/api/v1/productivity/projects/P/metrics?from=2024-03-01&to=2024-03-09", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"metric_date":"2024-03-09"`)
	assert.Contains(t, w.Body.String(), `"avg_productivity_score":8.5`)

	w = do(engine, http.MethodGet, "/api/v1/productivity/projects/P/metrics?from=2024-03-01", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(engine, http.MethodGet, "/api/v1/productivity/projects/MISSING/metrics?from=2024-03-01&to=2024-03-09", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetQualityHistory(t *testing.T) {
	stub := &stubEngine{quality: []*rdbModel.UserQuality{
		{ID: "q2", UserID: "U1", ProjectID: "P", Rating: "GOOD", QualityScore: 10, IsCurrent: true},
		{ID: "q1", UserID: "U1", ProjectID: "P", Rating: "BAD", QualityScore: 3},
	}}

	w := do(newTestEngine(stub, false), http.MethodGet, "/api/v1/productivity/projects/P/users/U1/quality", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Versions []struct {
			ID        string `json:"id"`
			Rating    string `json:"rating"`
			IsCurrent bool   `json:"is_current"`
		} `json:"versions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Versions, 2)
	assert.Equal(t, "q2", body.Versions[0].ID)
	assert.True(t, body.Versions[0].IsCurrent)
}
