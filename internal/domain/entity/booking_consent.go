package entity

import (
	"time"

	"github.com/google/uuid"
)

type ConsentChannel string

const (
	// ConsentChannelStandard is the patient OTP path
	ConsentChannelStandard ConsentChannel = "standard"
	// ConsentChannelOverride is the supervisor-validated emergency path
	ConsentChannelOverride ConsentChannel = "override"
)

// BookingConsent records that a booking's OTP was validated. One per booking.
type BookingConsent struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	BookingID     uuid.UUID      `gorm:"type:uuid;uniqueIndex;not null" json:"booking_id"`
	BookingNumber string         `gorm:"type:varchar(50);not null;index" json:"booking_number"`
	Channel       ConsentChannel `gorm:"type:varchar(20);not null" json:"channel"`
	VerifiedBy    *uuid.UUID     `gorm:"type:uuid" json:"verified_by,omitempty"`
	VerifiedAt    time.Time      `gorm:"not null" json:"verified_at"`
}

func (BookingConsent) TableName() string {
	return "booking_consents"
}
