package repository

import (
	"context"
	"time"

	"github.com/mhsanaei/blogpanel/database"
	"github.com/mhsanaei/blogpanel/database/model"
)

type AuditRepository struct {
	gormRepository[model.AuditLog]
}

func NewAuditRepository(uow *database.UnitOfWork) *AuditRepository {
	return &AuditRepository{newGormRepository[model.AuditLog](uow)}
}

// Recent returns the newest entries first.
func (r *AuditRepository) Recent(ctx context.Context, limit int) ([]model.AuditLog, error) {
	var logs []model.AuditLog
	err := r.uow.DB(ctx).Order("timestamp desc, id desc").Limit(limit).Find(&logs).Error
	return logs, err
}

// Purge deletes entries older than before immediately, outside any staged work.
func (r *AuditRepository) Purge(ctx context.Context, before time.Time) (int64, error) {
	res := r.uow.DB(ctx).Where("timestamp < ?", before).Delete(&model.AuditLog{})
	return res.RowsAffected, res.Error
}
