package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

type VerifyConsentRequest struct {
	OTPCode       string `json:"otp_code" validate:"required,numeric,min=4,max=8"`
	BookingNumber string `json:"booking_number" validate:"required"`
}

type RequestConsentOTPRequest struct {
	BookingNumber string `json:"booking_number" validate:"required"`
}

type RequestOverrideRequest struct {
	BookingID uuid.UUID `json:"booking_id" validate:"required"`
}

type ValidateOverrideRequest struct {
	BookingNumber string `json:"booking_number" validate:"required"`
	OTPCode       string `json:"otp_code" validate:"required,numeric,min=4,max=8"`
}

// Response DTOs

type OTPResponse struct {
	OTPCode   string    `json:"otp_code"`
	ExpiresAt time.Time `json:"expires_at"`
	Message   string    `json:"message"`
}

type BookingConsentResponse struct {
	ID            uuid.UUID  `json:"id"`
	BookingID     uuid.UUID  `json:"booking_id"`
	BookingNumber string     `json:"booking_number"`
	Channel       string     `json:"channel"`
	VerifiedBy    *uuid.UUID `json:"verified_by,omitempty"`
	VerifiedAt    time.Time  `json:"verified_at"`
}

type ConsentResponse struct {
	Message        string                  `json:"message"`
	BookingConsent *BookingConsentResponse `json:"bookingConsent"`
}
