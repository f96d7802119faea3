package controller

import (
	"github.com/mhsanaei/blogpanel/database/model"
	"github.com/mhsanaei/blogpanel/logger"
	"github.com/mhsanaei/blogpanel/web/middleware"
	"github.com/mhsanaei/blogpanel/web/service"

	"github.com/gin-gonic/gin"
)

const (
	recentAuditEntries = 10
	recentLogLines     = 20
)

// AdminController guards /admin and serves the dashboard.
type AdminController struct {
	BaseController

	dashboardService *service.DashboardService
	auditService     *service.AuditLogService

	userAdminController *UserAdminController
	fileAdminController *FileAdminController
}

func NewAdminController(g *gin.RouterGroup, deps Deps) *AdminController {
	a := &AdminController{
		BaseController:   BaseController{basePath: deps.BasePath},
		dashboardService: deps.DashboardService,
		auditService:     deps.AuditService,
	}
	a.initRouter(g, deps)
	return a
}

func (a *AdminController) initRouter(g *gin.RouterGroup, deps Deps) {
	g = g.Group("/admin")
	g.Use(middleware.RequireRole(model.RoleAdmin, a.loginURL()))

	g.GET("/", a.action(a.url("posts/"), a.dashboard))

	a.userAdminController = NewUserAdminController(g, deps)
	a.fileAdminController = NewFileAdminController(g, deps)
}

func (a *AdminController) dashboard(c *gin.Context) error {
	stats, err := a.dashboardService.Stats(c.Request.Context())
	if err != nil {
		return err
	}
	audit, err := a.auditService.Recent(c.Request.Context(), middleware.GetUnitOfWork(c), recentAuditEntries)
	if err != nil {
		return err
	}
	html(c, "dashboard.html", "pages.dashboard.title", gin.H{
		"stats": stats,
		"audit": audit,
		"logs":  logger.GetLogs(recentLogLines, "info"),
	})
	return nil
}
