// Package wizard drives the console's multi-step booking flow as a
// serializable state machine. Transition is pure; Runner executes the
// commands it emits against the booking API and persists the result.
package wizard

import (
	"time"

	"facility-booking/pkg/client"

	"github.com/google/uuid"
)

type Step string

const (
	StepSelectPatient           Step = "select_patient"
	StepSelectService           Step = "select_service"
	StepDetails                 Step = "details"
	StepSubmitting              Step = "submitting"
	StepAwaitingOTP             Step = "awaiting_otp"
	StepAwaitingOverrideRequest Step = "awaiting_override_request"
	StepRequestingOTP           Step = "requesting_otp"
	StepAwaitingOverrideOTP     Step = "awaiting_override_otp"
	StepVerifying               Step = "verifying"
	StepConsented               Step = "consented"
)

// State is one wizard draft. It round-trips through JSON unchanged.
type State struct {
	ID   string `json:"id"`
	Step Step   `json:"step"`

	PatientID   uuid.UUID `json:"patient_id"`
	ServiceID   uuid.UUID `json:"service_id"`
	PaymentMode string    `json:"payment_mode"`
	BookingDate time.Time `json:"booking_date"`
	Override    bool      `json:"override"`

	BookingID     uuid.UUID  `json:"booking_id"`
	BookingNumber string     `json:"booking_number"`
	OTPExpiresAt  *time.Time `json:"otp_expires_at,omitempty"`
	Notice        string     `json:"notice,omitempty"`

	// Pending is set while a command is in flight. ReturnStep is where a
	// failed command lands.
	Pending      bool       `json:"pending"`
	PendingSince *time.Time `json:"pending_since,omitempty"`
	ReturnStep   Step       `json:"return_step,omitempty"`
	LastError    string     `json:"last_error,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// New starts a draft at patient selection.
func New(id string) State {
	return State{ID: id, Step: StepSelectPatient}
}

// HasBooking reports whether the server already holds a booking for this draft.
func (s State) HasBooking() bool {
	return s.BookingID != uuid.Nil
}

func (s State) bookingInput() client.CreateBookingInput {
	return client.CreateBookingInput{
		ServiceID:   s.ServiceID,
		PatientID:   s.PatientID,
		PaymentMode: s.PaymentMode,
		BookingDate: s.BookingDate,
		Override:    s.Override,
	}
}

type ActionType string

const (
	// user input
	ActionSelectPatient ActionType = "select_patient"
	ActionSelectService ActionType = "select_service"
	ActionSetDetails    ActionType = "set_details"
	ActionSetOverride   ActionType = "set_override"
	ActionSubmit        ActionType = "submit"
	ActionRequestOTP    ActionType = "request_otp"
	ActionSubmitCode    ActionType = "submit_code"
	ActionBack          ActionType = "back"
	ActionDismissError  ActionType = "dismiss_error"

	// command outcomes
	ActionBookingCreated ActionType = "booking_created"
	ActionOTPIssued      ActionType = "otp_issued"
	ActionConsented      ActionType = "consented"
	ActionFailed         ActionType = "failed"
)

type Action struct {
	Type ActionType `json:"type"`

	PatientID   uuid.UUID `json:"patient_id,omitempty"`
	ServiceID   uuid.UUID `json:"service_id,omitempty"`
	PaymentMode string    `json:"payment_mode,omitempty"`
	BookingDate time.Time `json:"booking_date,omitempty"`
	Override    bool      `json:"override,omitempty"`
	Code        string    `json:"code,omitempty"`

	BookingID     uuid.UUID  `json:"booking_id,omitempty"`
	BookingNumber string     `json:"booking_number,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	Message       string     `json:"message,omitempty"`
}

type CommandKind string

const (
	CommandNone              CommandKind = ""
	CommandCreateBooking     CommandKind = "create_booking"
	CommandRequestConsentOTP CommandKind = "request_consent_otp"
	CommandRequestOverride   CommandKind = "request_override_otp"
	CommandVerifyConsent     CommandKind = "verify_consent"
	CommandValidateOverride  CommandKind = "validate_override"
)

// Command is the side effect a transition asks for.
type Command struct {
	Kind          CommandKind
	Booking       client.CreateBookingInput
	BookingID     uuid.UUID
	BookingNumber string
	Code          string
}
