package repository

import (
	"context"
	"errors"

	"facility-booking/internal/domain/entity"
	domainRepo "facility-booking/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type serviceItemRepository struct{}

func NewServiceItemRepository() domainRepo.ServiceItemRepository {
	return &serviceItemRepository{}
}

func (r *serviceItemRepository) Create(ctx context.Context, db *gorm.DB, item *entity.ServiceItem) error {
	return db.WithContext(ctx).Create(item).Error
}

func (r *serviceItemRepository) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.ServiceItem, error) {
	var item entity.ServiceItem
	err := db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *serviceItemRepository) FindAll(ctx context.Context, db *gorm.DB, limit, offset int) ([]entity.ServiceItem, int64, error) {
	var items []entity.ServiceItem
	var total int64

	if err := db.WithContext(ctx).Model(&entity.ServiceItem{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.WithContext(ctx).Limit(limit).Offset(offset).Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, 0, err
	}

	return items, total, nil
}
