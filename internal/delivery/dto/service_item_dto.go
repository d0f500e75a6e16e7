package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateServiceItemRequest struct {
	FacilityID           uuid.UUID       `json:"facility_id" validate:"required"`
	VendorID             uuid.UUID       `json:"vendor_id" validate:"required"`
	LotNumber            string          `json:"lot_number" validate:"required"`
	Name                 string          `json:"name" validate:"required,min=2"`
	Price                decimal.Decimal `json:"price" validate:"required"`
	FacilitySharePercent decimal.Decimal `json:"facility_share_percent"`
	VendorSharePercent   decimal.Decimal `json:"vendor_share_percent"`
}

type ServiceItemResponse struct {
	ID                   uuid.UUID       `json:"id"`
	FacilityID           uuid.UUID       `json:"facility_id"`
	VendorID             uuid.UUID       `json:"vendor_id"`
	LotNumber            string          `json:"lot_number"`
	Name                 string          `json:"name"`
	Price                decimal.Decimal `json:"price"`
	FacilitySharePercent decimal.Decimal `json:"facility_share_percent"`
	VendorSharePercent   decimal.Decimal `json:"vendor_share_percent"`
	IsActive             bool            `json:"is_active"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}
