package handler

import (
	"errors"
	"net/http"
	"strconv"

	"workpulse/internal/model"
	"workpulse/internal/service"
	"workpulse/pkg/logger"
	"workpulse/pkg/productivity"
	"workpulse/pkg/status"

	"github.com/gin-gonic/gin"
)

// ProductivityHandler handles productivity HTTP requests
type ProductivityHandler struct {
	productivityService *service.ProductivityService
	sanitizer           *status.Sanitizer
}

// NewProductivityHandler creates a new productivity handler
func NewProductivityHandler(productivityService *service.ProductivityService) *ProductivityHandler {
	return &ProductivityHandler{
		productivityService: productivityService,
		sanitizer:           status.NewSanitizer(),
	}
}

// Recalculate recomputes the metrics of one project for one date
// @Summary Recalculate daily metrics
// @Description Recompute productivity and quality rows for (project, date). With async=true the pair is queued instead.
// @Tags productivity
// @Accept json
// @Produce json
// @Param project_id path string true "Project ID"
// @Param date query string false "Calculation date (YYYY-MM-DD), may also be sent in the body"
// @Param async query bool false "Queue the recompute instead of running it inline"
// @Success 200 {object} productivity.Result
// @Success 202 {object} model.RecalculateAccepted
// @Router /api/v1/productivity/projects/{project_id}/recalculate [post]
func (h *ProductivityHandler) Recalculate(c *gin.Context) {
	ctx := c.Request.Context()
	projectID := c.Param("project_id")

	var req model.RecalculateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
			return
		}
	}
	if req.Date == "" {
		req.Date = c.Query("date")
	}
	if req.Date == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date is required"})
		return
	}

	async, _ := strconv.ParseBool(c.DefaultQuery("async", "false"))
	if async {
		taskID, err := h.productivityService.EnqueueRecalculate(ctx, projectID, req.Date)
		if err != nil {
			h.writeError(c, err)
			return
		}
		c.JSON(http.StatusAccepted, model.RecalculateAccepted{
			TaskID:    taskID,
			ProjectID: projectID,
			Date:      req.Date,
			Status:    "QUEUED",
		})
		return
	}

	result, err := h.productivityService.Recalculate(ctx, projectID, req.Date)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetRecomputeTask returns the state of a queued recompute
// @Summary Get recompute task status
// @Tags productivity
// @Produce json
// @Param task_id path string true "Task ID returned by an async recalculate"
// @Success 200 {object} model.RecomputeTask
// @Failure 404 {object} map[string]interface{} "Unknown task"
// @Router /api/v1/productivity/tasks/{task_id} [get]
func (h *ProductivityHandler) GetRecomputeTask(c *gin.Context) {
	info, err := h.productivityService.GetRecomputeTask(c.Request.Context(), c.Param("task_id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.FromRecomputeTask(info))
}

// TriggerScan starts a scan in the background
// @Summary Trigger a productivity scan
// @Tags productivity
// @Produce json
// @Success 202 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{} "A scan is already running"
// @Router /api/v1/productivity/scan [post]
func (h *ProductivityHandler) TriggerScan(c *gin.Context) {
	if err := h.productivityService.TriggerScan(c.Request.Context()); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "scan started"})
}

// GetScanStatus returns the running flag and the latest scan run
// @Summary Get scan status
// @Tags productivity
// @Produce json
// @Success 200 {object} model.ScanStatusResponse
// @Router /api/v1/productivity/scan/status [get]
func (h *ProductivityHandler) GetScanStatus(c *gin.Context) {
	scanStatus, err := h.productivityService.GetScanStatus(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.ScanStatusResponse{
		Running:   scanStatus.Running,
		LatestRun: model.FromScanRun(scanStatus.LatestRun),
	})
}

// ListProjectMetrics lists project rollups between from and to
// @Summary List project daily metrics
// @Tags productivity
// @Produce json
// @Param project_id path string true "Project ID"
// @Param from query string true "First date (YYYY-MM-DD)"
// @Param to query string true "Last date (YYYY-MM-DD)"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/productivity/projects/{project_id}/metrics [get]
func (h *ProductivityHandler) ListProjectMetrics(c *gin.Context) {
	projectID := c.Param("project_id")
	from, to := c.Query("from"), c.Query("to")
	if from == "" || to == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from and to are required"})
		return
	}

	rows, err := h.productivityService.ListProjectMetrics(c.Request.Context(), projectID, from, to)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"project_id": projectID,
		"metrics":    model.FromProjectMetrics(rows),
	})
}

// GetQualityHistory lists the quality versions of a user on a project
// @Summary Get quality history
// @Tags productivity
// @Produce json
// @Param project_id path string true "Project ID"
// @Param user_id path string true "User ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/productivity/projects/{project_id}/users/{user_id}/quality [get]
func (h *ProductivityHandler) GetQualityHistory(c *gin.Context) {
	projectID, userID := c.Param("project_id"), c.Param("user_id")

	history, err := h.productivityService.GetQualityHistory(c.Request.Context(), projectID, userID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"project_id": projectID,
		"user_id":    userID,
		"versions":   model.FromQualityHistory(history),
	})
}

func (h *ProductivityHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, productivity.ErrInvalidDate):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, productivity.ErrProjectNotFound), errors.Is(err, service.ErrTaskNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, productivity.ErrScanInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrQueueDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		logger.ErrorCtx(c.Request.Context(), "productivity request %s failed: %v", c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "message": h.sanitizer.Sanitize(err.Error())})
	}
}
