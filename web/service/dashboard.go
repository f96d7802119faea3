package service

import (
	"context"
	"runtime"
	"time"

	"github.com/mhsanaei/blogpanel/caching"
	"github.com/mhsanaei/blogpanel/database"
	"github.com/mhsanaei/blogpanel/database/repository"
	"github.com/mhsanaei/blogpanel/logger"
	"github.com/mhsanaei/blogpanel/web/entity"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
	"go.uber.org/atomic"
	"gorm.io/gorm"
)

const dashboardKey = "dashboard:stats"

// DashboardService builds the admin dashboard statistics. Stats are
// refreshed by a cron job and served from the cache in between.
type DashboardService struct {
	db          *gorm.DB
	cache       *caching.Cache
	startedAt   time.Time
	requests    atomic.Int64
	lastRefresh atomic.Time
}

func NewDashboardService(db *gorm.DB, cache *caching.Cache) *DashboardService {
	return &DashboardService{db: db, cache: cache, startedAt: time.Now()}
}

// CountRequest is called once per served request.
func (s *DashboardService) CountRequest() {
	s.requests.Inc()
}

func (s *DashboardService) LastRefresh() time.Time {
	return s.lastRefresh.Load()
}

// Stats returns the cached snapshot, computing it on a cold cache.
// The request counter is always live.
func (s *DashboardService) Stats(ctx context.Context) (entity.DashboardStats, error) {
	stats, err := caching.GetOrLoad(s.cache, dashboardKey, func() (entity.DashboardStats, error) {
		return s.collect(ctx)
	})
	if err != nil {
		return stats, err
	}
	stats.Requests = s.requests.Load()
	stats.AppUptime = time.Since(s.startedAt).Truncate(time.Second)
	return stats, nil
}

// Refresh recomputes the snapshot and replaces the cached one.
func (s *DashboardService) Refresh(ctx context.Context) error {
	stats, err := s.collect(ctx)
	if err != nil {
		return err
	}
	s.cache.Set(dashboardKey, stats)
	return nil
}

func (s *DashboardService) collect(ctx context.Context) (entity.DashboardStats, error) {
	counts, err := s.counts(ctx)
	if err != nil {
		return entity.DashboardStats{}, err
	}
	now := time.Now()
	s.lastRefresh.Store(now)
	return entity.DashboardStats{
		Counts:      counts,
		Host:        hostStatus(ctx),
		RefreshedAt: now,
	}, nil
}

func (s *DashboardService) counts(ctx context.Context) (entity.Counts, error) {
	uow := database.NewUnitOfWork(s.db)
	var (
		c   entity.Counts
		err error
	)
	if c.Users, err = repository.NewUserRepository(uow).Count(ctx); err != nil {
		return c, err
	}
	if c.Posts, err = repository.NewPostRepository(uow).Count(ctx); err != nil {
		return c, err
	}
	if c.Comments, err = repository.NewCommentRepository(uow).Count(ctx); err != nil {
		return c, err
	}
	if c.Files, err = repository.NewFileRepository(uow).Count(ctx); err != nil {
		return c, err
	}
	if c.AuditLogs, err = repository.NewAuditRepository(uow).Count(ctx); err != nil {
		return c, err
	}
	return c, nil
}

// hostStatus never fails: each probe that errors is logged and left zero.
func hostStatus(ctx context.Context) entity.HostStatus {
	status := entity.HostStatus{CpuCores: runtime.NumCPU()}

	if info, err := host.InfoWithContext(ctx); err != nil {
		logger.Warning("get host info failed:", err)
	} else {
		status.Hostname = info.Hostname
		status.Platform = info.Platform + " " + info.PlatformVersion
		status.Uptime = info.Uptime
	}

	if percents, err := cpu.PercentWithContext(ctx, 0, false); err != nil {
		logger.Warning("get cpu percent failed:", err)
	} else if len(percents) > 0 {
		status.Cpu = percents[0]
	}

	if memInfo, err := mem.VirtualMemoryWithContext(ctx); err != nil {
		logger.Warning("get virtual memory failed:", err)
	} else {
		status.Mem = entity.Usage{Current: memInfo.Used, Total: memInfo.Total}
	}

	if diskInfo, err := disk.UsageWithContext(ctx, "/"); err != nil {
		logger.Warning("get disk usage failed:", err)
	} else {
		status.Disk = entity.Usage{Current: diskInfo.Used, Total: diskInfo.Total}
	}

	if avg, err := load.AvgWithContext(ctx); err != nil {
		logger.Warning("get load avg failed:", err)
	} else {
		status.Loads = []float64{avg.Load1, avg.Load5, avg.Load15}
	}
	return status
}
