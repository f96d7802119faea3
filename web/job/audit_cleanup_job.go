package job

import (
	"context"
	"time"

	"github.com/mhsanaei/blogpanel/logger"
	"github.com/mhsanaei/blogpanel/util/common"
	"github.com/mhsanaei/blogpanel/web/service"

	"gorm.io/gorm"
)

const defaultRetentionDays = 90

// AuditCleanupJob purges audit entries older than the retention window.
type AuditCleanupJob struct {
	db            *gorm.DB
	auditService  *service.AuditLogService
	retentionDays int
}

func NewAuditCleanupJob(db *gorm.DB, auditService *service.AuditLogService, retentionDays int) *AuditCleanupJob {
	if retentionDays <= 0 {
		retentionDays = defaultRetentionDays
	}
	return &AuditCleanupJob{
		db:            db,
		auditService:  auditService,
		retentionDays: retentionDays,
	}
}

func (j *AuditCleanupJob) Run() {
	defer common.Recover("audit cleanup job panic")
	logger.Debug("Audit cleanup job started")

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	purged, err := j.auditService.CleanOldLogs(ctx, j.db, j.retentionDays)
	if err != nil {
		logger.Warning("Failed to clean old audit logs:", err)
		return
	}
	logger.Debugf("Audit cleanup completed (retention: %d days, purged: %d)", j.retentionDays, purged)
}
