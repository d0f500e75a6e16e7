package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BookingDateLayout is the wire format of booking dates. It carries no zone;
// the server reads it in the facility's timezone.
const BookingDateLayout = "2006-01-02 15:04:05"

// BookingDate is a wall-clock booking time.
type BookingDate time.Time

func (d BookingDate) Time() time.Time {
	return time.Time(d)
}

func (d BookingDate) String() string {
	return time.Time(d).Format(BookingDateLayout)
}

func (d BookingDate) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts the wire layout and RFC 3339.
func (d *BookingDate) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*d = BookingDate{}
		return nil
	}
	t, err := time.Parse(BookingDateLayout, s)
	if err != nil {
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("booking_date %q: %w", s, err)
		}
	}
	*d = BookingDate(t)
	return nil
}

// Request types

type CreateBookingInput struct {
	ServiceID   uuid.UUID `json:"service_id" validate:"required"`
	PatientID   uuid.UUID `json:"patient_id" validate:"required"`
	PaymentMode string    `json:"payment_mode" validate:"required,oneof=sha cash other_insurances"`
	BookingDate time.Time `json:"-" validate:"required"`
	Override    bool      `json:"override"`
}

func (in CreateBookingInput) MarshalJSON() ([]byte, error) {
	type alias CreateBookingInput
	return json.Marshal(struct {
		alias
		BookingDate BookingDate `json:"booking_date"`
	}{alias: alias(in), BookingDate: BookingDate(in.BookingDate)})
}

type consentCodeInput struct {
	BookingNumber string `json:"booking_number" validate:"required"`
	OTPCode       string `json:"otp_code" validate:"required,numeric,min=4,max=8"`
}

type bookingNumberInput struct {
	BookingNumber string `json:"booking_number" validate:"required"`
}

type overrideInput struct {
	BookingID uuid.UUID `json:"booking_id" validate:"required"`
}

type FinanceDecisionInput struct {
	PaymentMode string `json:"payment_mode" validate:"required,oneof=sha cash other_insurances"`
	Status      string `json:"status" validate:"required,oneof=confirmed cancelled"`
}

type ApprovalInput struct {
	BookingNumber string `json:"booking_number" validate:"required"`
	Decision      string `json:"decision" validate:"required,oneof=approve reject"`
}

type loginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Response types

type Booking struct {
	ID             uuid.UUID       `json:"id"`
	BookingNumber  string          `json:"booking_number"`
	PatientID      uuid.UUID       `json:"patient_id"`
	ServiceID      uuid.UUID       `json:"service_id"`
	PaymentMode    string          `json:"payment_mode"`
	BookingDate    BookingDate     `json:"booking_date"`
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

// UnmarshalJSON maps the legacy "approval" key onto ApprovalStatus when the
// payload has no approval_status.
func (b *Booking) UnmarshalJSON(data []byte) error {
	type alias Booking
	var raw struct {
		alias
		Approval *string `json:"approval"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*b = Booking(raw.alias)
	if b.ApprovalStatus == "" && raw.Approval != nil {
		b.ApprovalStatus = legacyApproval(*raw.Approval)
	}
	return nil
}

func legacyApproval(v string) string {
	switch v {
	case "approve":
		return "approved"
	case "reject":
		return "rejected"
	default:
		return v
	}
}

type CreateBookingResult struct {
	Booking    *Booking   `json:"booking"`
	OTPCode    string     `json:"otp_code,omitempty"`
	OTPMessage string     `json:"otp_message"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	Message    string     `json:"message"`
}

type OTP struct {
	Code      string    `json:"otp_code"`
	ExpiresAt time.Time `json:"expires_at"`
	Message   string    `json:"message"`
}

type BookingConsent struct {
	ID            uuid.UUID  `json:"id"`
	BookingID     uuid.UUID  `json:"booking_id"`
	BookingNumber string     `json:"booking_number"`
	Channel       string     `json:"channel"`
	VerifiedBy    *uuid.UUID `json:"verified_by,omitempty"`
	VerifiedAt    time.Time  `json:"verified_at"`
}

type ConsentResult struct {
	Message string          `json:"message"`
	Consent *BookingConsent `json:"bookingConsent"`
}

type bookingEnvelope struct {
	Booking *Booking `json:"booking"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// envelope is the server's response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   json.RawMessage `json:"error"`
}

// errorDetail renders the envelope's error field: a string stays as is,
// anything else is compacted JSON.
func (e envelope) errorDetail() string {
	if len(e.Error) == 0 || bytes.Equal(e.Error, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(e.Error, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, e.Error); err != nil {
		return string(e.Error)
	}
	return buf.String()
}
