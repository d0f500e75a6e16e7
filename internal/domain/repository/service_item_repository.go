package repository

import (
	"context"

	"facility-booking/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ServiceItemRepository interface {
	Create(ctx context.Context, db *gorm.DB, item *entity.ServiceItem) error
	FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.ServiceItem, error)
	FindAll(ctx context.Context, db *gorm.DB, limit, offset int) ([]entity.ServiceItem, int64, error)
}
