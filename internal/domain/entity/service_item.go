package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ServiceItem is a contracted service line item (vendor, facility, lot).
type ServiceItem struct {
	ID                   uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	FacilityID           uuid.UUID       `gorm:"type:uuid;not null;index" json:"facility_id"`
	VendorID             uuid.UUID       `gorm:"type:uuid;not null;index" json:"vendor_id"`
	LotNumber            string          `gorm:"type:varchar(50);not null" json:"lot_number"`
	Name                 string          `gorm:"type:varchar(255);not null" json:"name"`
	Price                decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	FacilitySharePercent decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"facility_share_percent"`
	VendorSharePercent   decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"vendor_share_percent"`
	IsActive             bool            `gorm:"not null;default:true" json:"is_active"`
	CreatedAt            time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ServiceItem) TableName() string {
	return "service_items"
}

// SharesBalanced reports whether the two share percentages add up to 100.
func (s *ServiceItem) SharesBalanced() bool {
	return s.FacilitySharePercent.Add(s.VendorSharePercent).Equal(hundred)
}

// Split returns amount, facility share and vendor share for one booking.
// The vendor share takes the rounding remainder so the parts always sum to the amount.
func (s *ServiceItem) Split() (amount, facility, vendor decimal.Decimal) {
	amount = s.Price.Round(2)
	facility = amount.Mul(s.FacilitySharePercent).Div(hundred).Round(2)
	vendor = amount.Sub(facility)
	return amount, facility, vendor
}
