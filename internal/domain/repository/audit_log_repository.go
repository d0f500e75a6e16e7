package repository

import (
	"context"

	"facility-booking/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditLogFilter narrows List. Entity and EntityID match the metadata written
// by the audit service, so one booking's history is a single query.
type AuditLogFilter struct {
	// Action matches exactly, or as a prefix when it ends with ".".
	Action   string
	Entity   string
	EntityID string
	UserID   *uuid.UUID
	Limit    int
	Offset   int
}

type AuditLogRepository interface {
	Create(ctx context.Context, db *gorm.DB, log *entity.AuditLog) error
	List(ctx context.Context, db *gorm.DB, filter AuditLogFilter) ([]entity.AuditLog, int64, error)
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*entity.AuditLog, error)
}
