package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/fieldworks/worktrack-api/internal/middleware"
	"github.com/fieldworks/worktrack-api/internal/models"
	"github.com/fieldworks/worktrack-api/internal/repository"
	"github.com/fieldworks/worktrack-api/internal/service"
)

// Handlers bundles everything RegisterRoutes needs.
type Handlers struct {
	Auth      *AuthHandler
	Session   *SessionHandler
	Record    *RecordHandler
	Export    *ExportHandler
	Site      *SiteHandler
	Dashboard *DashboardHandler
	Metrics   *MetricsHandler

	AuthService *service.AuthService
	AuditRepo   *repository.UserRepository
}

// RegisterRoutes mounts all API routes under the given prefix.
func RegisterRoutes(router *gin.Engine, prefix string, h Handlers) {
	router.GET("/health", h.Metrics.Health)
	router.GET("/ready", h.Metrics.Ready)
	router.GET("/metrics", h.Metrics.Prometheus)

	api := router.Group(prefix)

	auth := api.Group("/auth")
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)

	authed := auth.Group("")
	authed.Use(middleware.JWT(h.AuthService))
	authed.POST("/logout", h.Auth.Logout)
	authed.POST("/change-password", h.Auth.ChangePassword)
	authed.GET("/me", h.Auth.Me)

	secured := api.Group("")
	secured.Use(middleware.JWT(h.AuthService))

	sessions := secured.Group("/sessions")
	sessions.POST("", h.Session.Open)
	sessions.GET("/:id", h.Session.Get)
	sessions.POST("/:id/actions", h.Session.Apply)
	sessions.POST("/:id/evidence", h.Session.CaptureEvidence)
	sessions.POST("/:id/submit", h.Session.Submit)
	sessions.DELETE("/:id", h.Session.Discard)

	sites := secured.Group("/sites")
	sites.GET("", h.Site.Search)
	sites.GET("/:gpCode", h.Site.Lookup)

	adminOnly := middleware.RequireRoles(models.RoleAdmin)

	records := secured.Group("/records")
	records.GET("", adminOnly, h.Record.List)
	records.GET("/export", adminOnly, h.Record.Export)
	records.GET("/:id", adminOnly, h.Record.Get)

	exports := secured.Group("/exports")
	exports.POST("", adminOnly, h.Export.Create)
	exports.GET("/download/:token", middleware.Audit(h.AuditRepo, models.AuditActionExportDownload, "exports"), h.Export.Download)
	exports.GET("/:id", adminOnly, h.Export.Status)

	secured.GET("/dashboard/summary", adminOnly, h.Dashboard.Summary)
	secured.GET("/metrics/system", adminOnly, h.Metrics.System)
}
