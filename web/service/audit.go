package service

import (
	"context"
	"fmt"
	"time"

	"github.com/mhsanaei/blogpanel/database"
	"github.com/mhsanaei/blogpanel/database/model"
	"github.com/mhsanaei/blogpanel/database/repository"
	"github.com/mhsanaei/blogpanel/logger"
	"github.com/mhsanaei/blogpanel/web/mq"

	"github.com/goccy/go-json"
	"gorm.io/gorm"
)

// Audit actions.
const (
	ActionCreate = "CREATE"
	ActionUpdate = "UPDATE"
	ActionDelete = "DELETE"
	ActionLogin  = "LOGIN"
	ActionLogout = "LOGOUT"
)

// AuditEntry is one mutation to record once the request succeeded.
type AuditEntry struct {
	UserId     int
	Username   string
	Action     string
	Resource   string
	ResourceId int
	IP         string
	UserAgent  string
	Details    map[string]any
}

type auditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	ResourceId int            `json:"resourceId"`
	UserId     int            `json:"userId"`
	Username   string         `json:"username"`
	Details    map[string]any `json:"details,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

// AuditLogService writes the audit trail and mirrors it to the event broker.
type AuditLogService struct {
	publisher mq.Backend
}

func NewAuditLogService(publisher mq.Backend) *AuditLogService {
	if publisher == nil {
		publisher = mq.Noop{}
	}
	return &AuditLogService{publisher: publisher}
}

// LogAction stores e and publishes it. Publishing failures are logged only.
func (s *AuditLogService) LogAction(ctx context.Context, db *gorm.DB, e AuditEntry) error {
	details := ""
	if len(e.Details) > 0 {
		data, err := json.Marshal(e.Details)
		if err != nil {
			logger.Warning("Failed to marshal audit log details:", err)
		} else {
			details = string(data)
		}
	}

	now := time.Now()
	entry := &model.AuditLog{
		UserId:     e.UserId,
		Username:   e.Username,
		Action:     e.Action,
		Resource:   e.Resource,
		ResourceId: e.ResourceId,
		IP:         e.IP,
		UserAgent:  e.UserAgent,
		Details:    details,
		Timestamp:  now,
	}
	if err := db.WithContext(ctx).Create(entry).Error; err != nil {
		logger.Warningf("Failed to create audit log: user=%d, action=%s, resource=%s, error=%v", e.UserId, e.Action, e.Resource, err)
		return err
	}

	payload, err := json.Marshal(auditEvent{
		Action:     e.Action,
		Resource:   e.Resource,
		ResourceId: e.ResourceId,
		UserId:     e.UserId,
		Username:   e.Username,
		Details:    e.Details,
		Timestamp:  now,
	})
	if err != nil {
		return err
	}
	attrs := map[string]string{"action": e.Action, "resource": e.Resource}
	if _, err := s.publisher.Publish(ctx, mq.EventsChannel, payload, attrs); err != nil {
		logger.Warning("Failed to publish audit event:", err)
	}
	return nil
}

func (s *AuditLogService) Recent(ctx context.Context, uow *database.UnitOfWork, limit int) ([]model.AuditLog, error) {
	return repository.NewAuditRepository(uow).Recent(ctx, limit)
}

// CleanOldLogs removes entries older than days.
func (s *AuditLogService) CleanOldLogs(ctx context.Context, db *gorm.DB, days int) (int64, error) {
	if days <= 0 {
		return 0, fmt.Errorf("days must be greater than 0")
	}
	cutoff := time.Now().AddDate(0, 0, -days)
	return repository.NewAuditRepository(database.NewUnitOfWork(db)).Purge(ctx, cutoff)
}
