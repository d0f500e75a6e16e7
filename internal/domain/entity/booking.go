package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BookingDateLayout is the wire format of booking_date. It carries no zone.
const BookingDateLayout = "2006-01-02 15:04:05"

// BookingStatus is driven by finance approval
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// ServiceStatus is driven by the fulfillment flow
type ServiceStatus string

const (
	ServiceStatusNotStarted ServiceStatus = "not_started"
	ServiceStatusCompleted  ServiceStatus = "completed"
)

// ApprovalStatus is driven by the vendor/admin approval gate
type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "pending"
	ApprovalStatusApproved ApprovalStatus = "approved"
	ApprovalStatusRejected ApprovalStatus = "rejected"
)

// ApprovalDecision is the verb sent to the approval gate
type ApprovalDecision string

const (
	ApprovalDecisionApprove ApprovalDecision = "approve"
	ApprovalDecisionReject  ApprovalDecision = "reject"
)

// Status returns the approval status a decision leads to.
func (d ApprovalDecision) Status() (ApprovalStatus, bool) {
	switch d {
	case ApprovalDecisionApprove:
		return ApprovalStatusApproved, true
	case ApprovalDecisionReject:
		return ApprovalStatusRejected, true
	}
	return "", false
}

type PaymentMode string

const (
	PaymentModeSHA             PaymentMode = "sha"
	PaymentModeCash            PaymentMode = "cash"
	PaymentModeOtherInsurances PaymentMode = "other_insurances"
)

func (m PaymentMode) Valid() bool {
	switch m {
	case PaymentModeSHA, PaymentModeCash, PaymentModeOtherInsurances:
		return true
	}
	return false
}

// Booking is a patient booking against a contracted service line item.
// Amount and the share split are computed at creation and never edited.
type Booking struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	BookingNumber  string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"booking_number"`
	PatientID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"patient_id"`
	ServiceID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"service_id"`
	PaymentMode    PaymentMode     `gorm:"type:varchar(30);not null" json:"payment_mode"`
	BookingDate    time.Time       `gorm:"not null;index" json:"booking_date"`
	Amount         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	FacilityShare  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"facility_share"`
	VendorShare    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"vendor_share"`
	BookingStatus  BookingStatus   `gorm:"type:varchar(20);not null;default:'pending';index" json:"booking_status"`
	ServiceStatus  ServiceStatus   `gorm:"type:varchar(20);not null;default:'not_started'" json:"service_status"`
	ApprovalStatus ApprovalStatus  `gorm:"type:varchar(20);not null;default:'pending';index" json:"approval_status"`
	Override       bool            `gorm:"not null;default:false" json:"override"`
	CreatedBy      *uuid.UUID      `gorm:"type:uuid" json:"created_by,omitempty"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Patient *Patient        `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
	Service *ServiceItem    `gorm:"foreignKey:ServiceID" json:"service,omitempty"`
	Consent *BookingConsent `gorm:"foreignKey:BookingID" json:"consent,omitempty"`
}

func (Booking) TableName() string {
	return "bookings"
}

// IsPending checks if booking is awaiting finance decision
func (b *Booking) IsPending() bool {
	return b.BookingStatus == BookingStatusPending
}

// IsConfirmed checks if booking is confirmed
func (b *Booking) IsConfirmed() bool {
	return b.BookingStatus == BookingStatusConfirmed
}

// IsCancelled checks if booking is cancelled
func (b *Booking) IsCancelled() bool {
	return b.BookingStatus == BookingStatusCancelled
}

// IsAwaitingApproval checks if the vendor/admin gate is still open
func (b *Booking) IsAwaitingApproval() bool {
	return b.ApprovalStatus == ApprovalStatusPending
}

// ConsentChannel tells which OTP path must record this booking's consent.
func (b *Booking) ConsentChannel() ConsentChannel {
	if b.Override {
		return ConsentChannelOverride
	}
	return ConsentChannelStandard
}

// CanTransitionBookingStatus reports whether finance may move the booking to next.
// Confirmed and cancelled are terminal.
func CanTransitionBookingStatus(from, next BookingStatus) bool {
	if from != BookingStatusPending {
		return false
	}
	return next == BookingStatusConfirmed || next == BookingStatusCancelled
}

// CanTransitionApprovalStatus reports whether the approval gate may move to next.
// Approved and rejected are terminal.
func CanTransitionApprovalStatus(from, next ApprovalStatus) bool {
	if from != ApprovalStatusPending {
		return false
	}
	return next == ApprovalStatusApproved || next == ApprovalStatusRejected
}
