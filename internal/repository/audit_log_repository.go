package repository

import (
	"context"

	"lms_backend/internal/model"

	"gorm.io/gorm"
)

type AuditLogRepository struct {
	DB *gorm.DB
}

func NewAuditLogRepository(db *gorm.DB) *AuditLogRepository {
	return &AuditLogRepository{DB: db}
}

func (r *AuditLogRepository) CreateAuditLog(ctx context.Context, log *model.AuditLog) error {
	return r.DB.WithContext(ctx).Create(log).Error
}

func (r *AuditLogRepository) ListByEntity(ctx context.Context, entityType, entityID string) ([]model.AuditLog, error) {
	var logs []model.AuditLog
	err := r.DB.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at DESC").
		Find(&logs).Error
	return logs, err
}
