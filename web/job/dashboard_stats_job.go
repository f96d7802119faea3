package job

import (
	"context"
	"time"

	"github.com/mhsanaei/blogpanel/logger"
	"github.com/mhsanaei/blogpanel/util/common"
	"github.com/mhsanaei/blogpanel/web/service"
)

// DashboardStatsJob recomputes the cached dashboard statistics.
type DashboardStatsJob struct {
	dashboardService *service.DashboardService
}

func NewDashboardStatsJob(dashboardService *service.DashboardService) *DashboardStatsJob {
	return &DashboardStatsJob{dashboardService: dashboardService}
}

func (j *DashboardStatsJob) Run() {
	defer common.Recover("dashboard stats job panic")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := j.dashboardService.Refresh(ctx); err != nil {
		logger.Warning("refresh dashboard stats failed:", err)
	}
}
