package router

import (
	"net/http"

	"workpulse/app/handler"
	"workpulse/app/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router Router
type Router struct {
	productivityHandler *handler.ProductivityHandler
	apiKey              string
}

// NewRouter creates a new Router
func NewRouter(productivityHandler *handler.ProductivityHandler, apiKey string) *Router {
	return &Router{
		productivityHandler: productivityHandler,
		apiKey:              apiKey,
	}
}

// Setup sets up routes
func (r *Router) Setup(engine *gin.Engine) {
	engine.Use(middleware.Recovery())
	engine.Use(middleware.Logger())

	api := engine.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(r.apiKey))
	{
		productivity := api.Group("/productivity")
		{
			// On-demand recomputation of one (project, date)
			productivity.POST("/projects/:project_id/recalculate", r.productivityHandler.Recalculate)
			productivity.GET("/tasks/:task_id", r.productivityHandler.GetRecomputeTask)

			// Scan driver
			productivity.POST("/scan", r.productivityHandler.TriggerScan)
			productivity.GET("/scan/status", r.productivityHandler.GetScanStatus)

			// Read models
			productivity.GET("/projects/:project_id/metrics", r.productivityHandler.ListProjectMetrics)
			productivity.GET("/projects/:project_id/users/:user_id/quality", r.productivityHandler.GetQualityHistory)
		}
	}

	// Prometheus exposition
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check
	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
