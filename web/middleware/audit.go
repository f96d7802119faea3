package middleware

import (
	"github.com/mhsanaei/blogpanel/logger"
	"github.com/mhsanaei/blogpanel/web/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const auditKey = "audit"

// RecordAudit queues an entry for the current request. It is written once
// the handler has returned.
func RecordAudit(c *gin.Context, action, resource string, resourceId int, details map[string]any) {
	entry := service.AuditEntry{
		Action:     action,
		Resource:   resource,
		ResourceId: resourceId,
		IP:         c.ClientIP(),
		UserAgent:  c.GetHeader("User-Agent"),
		Details:    details,
	}
	if user := GetUser(c); user != nil {
		entry.UserId = user.Id
		entry.Username = user.Username
	}
	entries, _ := c.Get(auditKey)
	list, _ := entries.([]service.AuditEntry)
	c.Set(auditKey, append(list, entry))
}

// AuditMiddleware writes the entries handlers queued with RecordAudit.
func AuditMiddleware(db *gorm.DB, auditService *service.AuditLogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		entries, ok := c.Get(auditKey)
		if !ok {
			return
		}
		for _, e := range entries.([]service.AuditEntry) {
			if err := auditService.LogAction(c.Request.Context(), db, e); err != nil {
				logger.Warning("Failed to log audit action:", err)
			}
		}
	}
}
