package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Routes groups the handlers mounted on the engine.
type Routes struct {
	Announcements *AnnouncementHandler
	Reports       *ReportHandler
	Students      *StudentHandler
	Metrics       *MetricsHandler
	// Realtime serves the websocket upgrade.
	Realtime http.Handler
}

// Register mounts the REST API under apiPrefix and the realtime channel at realtimePath.
func (rt Routes) Register(r *gin.Engine, apiPrefix, realtimePath string) {
	if rt.Metrics != nil {
		r.GET("/health", rt.Metrics.Health)
		r.GET("/ready", rt.Metrics.Ready)
		r.GET("/metrics", rt.Metrics.Prometheus)
	}

	api := r.Group(apiPrefix)
	if rt.Announcements != nil {
		api.POST("/announcements", rt.Announcements.Create)
		api.GET("/announcements", rt.Announcements.List)
		api.GET("/announcements/:id", rt.Announcements.Get)
		api.POST("/announcements/:id/read", rt.Announcements.MarkRead)
		api.GET("/announcements/:id/readers", rt.Announcements.Readers)
	}
	if rt.Reports != nil {
		api.POST("/reports", rt.Reports.Create)
	}
	if rt.Students != nil {
		api.GET("/students/:id", rt.Students.Get)
	}

	if rt.Realtime != nil && realtimePath != "" {
		r.GET(realtimePath, gin.WrapH(rt.Realtime))
	}
}
