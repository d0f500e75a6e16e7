package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FlexBool accepts both JSON booleans and their string forms ("true", "false", "").
// The console has sent the override flag both ways.
type FlexBool bool

func (b *FlexBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*b = false
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*b = false
			return nil
		}
		v, err := strconv.ParseBool(s)
		if err != nil {
			return fmt.Errorf("override: %w", err)
		}
		*b = FlexBool(v)
		return nil
	}
	var v bool
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*b = FlexBool(v)
	return nil
}

// Request DTOs

type CreateBookingRequest struct {
	ServiceID   uuid.UUID `json:"service_id" validate:"required"`
	PatientID   uuid.UUID `json:"patient_id" validate:"required"`
	PaymentMode string    `json:"payment_mode" validate:"required,oneof=sha cash other_insurances"`
	BookingDate string    `json:"booking_date" validate:"required,booking_date"` // Format: YYYY-MM-DD HH:mm:ss
	Override    FlexBool  `json:"override"`
}

type ListBookingsRequest struct {
	BookingStatus  string `validate:"omitempty,oneof=pending confirmed cancelled"`
	ApprovalStatus string `validate:"omitempty,oneof=pending approved rejected"`
	PaymentMode    string `validate:"omitempty,oneof=sha cash other_insurances"`
	Page           int    `validate:"gte=0"`
	Limit          int    `validate:"gte=0,lte=100"`
}

// Response DTOs

type BookingResponse struct {
	ID             uuid.UUID       `json:"id"`
	BookingNumber  string          `json:"booking_number"`
	PatientID      uuid.UUID       `json:"patient_id"`
	ServiceID      uuid.UUID       `json:"service_id"`
	PaymentMode    string          `json:"payment_mode"`
	BookingDate    string          `json:"booking_date"`
	Amount         decimal.Decimal `json:"amount"`
	FacilityShare  decimal.Decimal `json:"facility_share"`
	VendorShare    decimal.Decimal `json:"vendor_share"`
	BookingStatus  string          `json:"booking_status"`
	ServiceStatus  string          `json:"service_status"`
	ApprovalStatus string          `json:"approval_status"`
	Override       bool            `json:"override"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type CreateBookingResponse struct {
	Booking    *BookingResponse `json:"booking"`
	OTPCode    string           `json:"otp_code,omitempty"`
	OTPMessage string           `json:"otp_message"`
	ExpiresAt  *time.Time       `json:"expires_at,omitempty"`
	Message    string           `json:"message"`
}

type BookingEnvelope struct {
	Booking *BookingResponse `json:"booking"`
}

type BookingListResponse struct {
	Bookings []BookingResponse `json:"bookings"`
	Total    int64             `json:"total"`
	Page     int               `json:"-"`
	Limit    int               `json:"-"`
}
