package usecase

import (
	"context"
	"errors"

	"facility-booking/internal/converter"
	"facility-booking/internal/delivery/dto"
	"facility-booking/internal/domain/entity"
	"facility-booking/internal/domain/repository"
	"facility-booking/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrServiceItemNotFound = errors.New("service not found")
	ErrSharesUnbalanced    = errors.New("facility and vendor share percentages must add up to 100")
	ErrInvalidPrice        = errors.New("price must be greater than zero")
)

type ServiceItemUsecase interface {
	Create(ctx context.Context, req *dto.CreateServiceItemRequest) (*dto.ServiceItemResponse, error)
	GetAll(ctx context.Context, page, limit int) ([]dto.ServiceItemResponse, int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (*dto.ServiceItemResponse, error)
}

type serviceItemUsecase struct {
	db           *gorm.DB
	log          *logrus.Logger
	serviceRepo  repository.ServiceItemRepository
	auditService service.AuditService
}

func NewServiceItemUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	serviceRepo repository.ServiceItemRepository,
	auditService service.AuditService,
) ServiceItemUsecase {
	return &serviceItemUsecase{
		db:           db,
		log:          log,
		serviceRepo:  serviceRepo,
		auditService: auditService,
	}
}

func (u *serviceItemUsecase) Create(ctx context.Context, req *dto.CreateServiceItemRequest) (*dto.ServiceItemResponse, error) {
	item := &entity.ServiceItem{
		FacilityID:           req.FacilityID,
		VendorID:             req.VendorID,
		LotNumber:            req.LotNumber,
		Name:                 req.Name,
		Price:                req.Price.Round(2),
		FacilitySharePercent: req.FacilitySharePercent,
		VendorSharePercent:   req.VendorSharePercent,
		IsActive:             true,
	}
	if !item.Price.IsPositive() {
		return nil, ErrInvalidPrice
	}
	if !item.SharesBalanced() {
		return nil, ErrSharesUnbalanced
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	if err := u.serviceRepo.Create(ctx, tx, item); err != nil {
		u.log.Warnf("Failed to create service: %+v", err)
		return nil, err
	}

	if err := u.auditService.LogCreate(ctx, tx, actorFromContext(ctx), entity.AuditActionServiceCreate, "service_item", item.ID.String(), converter.ServiceItemToResponse(item)); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	return converter.ServiceItemToResponse(item), nil
}

func (u *serviceItemUsecase) GetAll(ctx context.Context, page, limit int) ([]dto.ServiceItemResponse, int64, error) {
	page, limit = normalizePage(page, limit)
	offset := (page - 1) * limit

	items, total, err := u.serviceRepo.FindAll(ctx, u.db, limit, offset)
	if err != nil {
		u.log.Warnf("Failed to find services: %+v", err)
		return nil, 0, err
	}

	return converter.ServiceItemsToResponses(items), total, nil
}

func (u *serviceItemUsecase) GetByID(ctx context.Context, id uuid.UUID) (*dto.ServiceItemResponse, error) {
	item, err := u.serviceRepo.FindByID(ctx, u.db, id)
	if err != nil {
		u.log.Warnf("Failed to find service %s: %+v", id, err)
		return nil, err
	}
	if item == nil {
		return nil, ErrServiceItemNotFound
	}

	return converter.ServiceItemToResponse(item), nil
}
