package wizard

import (
	"errors"
	"time"

	"facility-booking/pkg/client"

	"github.com/google/uuid"
)

var (
	ErrPending        = errors.New("a request is already in progress")
	ErrInvalidAction  = errors.New("action not allowed at this step")
	ErrOverrideLocked = errors.New("override cannot change once the booking exists")
	ErrIncomplete     = errors.New("booking details are incomplete")
	ErrOTPExpired     = errors.New("invalid or expired OTP")
)

// MessageInterrupted is the toast for a command whose outcome was never saved.
const MessageInterrupted = "The previous request was interrupted. Check the booking and try again."

var paymentModes = map[string]bool{
	"sha":              true,
	"cash":             true,
	"other_insurances": true,
}

// Transition applies action to s. It never performs I/O.
//
// A refused action returns s with LastError set and a non-nil error. Outcome
// actions (booking_created, otp_issued, consented, failed) are only accepted
// while a command is pending.
func Transition(s State, action Action, now time.Time) (State, Command, error) {
	if isOutcome(action.Type) {
		if !s.Pending {
			return refuse(s, ErrInvalidAction)
		}
		return complete(s, action, now)
	}

	if s.Pending {
		return refuse(s, ErrPending)
	}

	next := s
	next.UpdatedAt = now

	switch action.Type {
	case ActionDismissError:
		next.LastError = ""
		return next, Command{}, nil

	case ActionSelectPatient:
		if s.HasBooking() || !atEditableStep(s.Step) {
			return refuse(s, ErrInvalidAction)
		}
		next.PatientID = action.PatientID
		next.Step = StepSelectService
		next.LastError = ""
		return next, Command{}, nil

	case ActionSelectService:
		if s.HasBooking() || s.Step == StepSelectPatient || !atEditableStep(s.Step) {
			return refuse(s, ErrInvalidAction)
		}
		next.ServiceID = action.ServiceID
		next.Step = StepDetails
		next.LastError = ""
		return next, Command{}, nil

	case ActionSetDetails:
		if s.Step != StepDetails {
			return refuse(s, ErrInvalidAction)
		}
		next.PaymentMode = action.PaymentMode
		next.BookingDate = action.BookingDate
		next.LastError = ""
		return next, Command{}, nil

	case ActionSetOverride:
		if s.HasBooking() {
			return refuse(s, ErrOverrideLocked)
		}
		if s.Step != StepDetails {
			return refuse(s, ErrInvalidAction)
		}
		next.Override = action.Override
		return next, Command{}, nil

	case ActionBack:
		if s.HasBooking() {
			return refuse(s, ErrInvalidAction)
		}
		switch s.Step {
		case StepSelectService:
			next.Step = StepSelectPatient
		case StepDetails:
			next.Step = StepSelectService
		default:
			return refuse(s, ErrInvalidAction)
		}
		next.LastError = ""
		return next, Command{}, nil

	case ActionSubmit:
		if s.Step != StepDetails {
			return refuse(s, ErrInvalidAction)
		}
		if !detailsComplete(s) {
			return refuse(s, ErrIncomplete)
		}
		next = begin(next, StepSubmitting, now)
		return next, Command{Kind: CommandCreateBooking, Booking: s.bookingInput()}, nil

	case ActionRequestOTP:
		switch s.Step {
		case StepAwaitingOTP:
			next = begin(next, StepRequestingOTP, now)
			return next, Command{Kind: CommandRequestConsentOTP, BookingNumber: s.BookingNumber}, nil
		case StepAwaitingOverrideRequest, StepAwaitingOverrideOTP:
			next = begin(next, StepRequestingOTP, now)
			return next, Command{Kind: CommandRequestOverride, BookingID: s.BookingID}, nil
		default:
			return refuse(s, ErrInvalidAction)
		}

	case ActionSubmitCode:
		if s.Step != StepAwaitingOTP && s.Step != StepAwaitingOverrideOTP {
			return refuse(s, ErrInvalidAction)
		}
		if s.OTPExpiresAt != nil && !now.Before(*s.OTPExpiresAt) {
			return refuse(s, ErrOTPExpired)
		}
		kind := CommandVerifyConsent
		if s.Step == StepAwaitingOverrideOTP {
			kind = CommandValidateOverride
		}
		next = begin(next, StepVerifying, now)
		return next, Command{Kind: kind, BookingNumber: s.BookingNumber, Code: action.Code}, nil
	}

	return refuse(s, ErrInvalidAction)
}

// RecoverStale fails a command pending for at least timeout. A draft left
// pending by an interrupted run goes back to the step it came from.
func RecoverStale(s State, now time.Time, timeout time.Duration) (State, bool) {
	if !s.Pending {
		return s, false
	}
	if s.PendingSince != nil && now.Sub(*s.PendingSince) < timeout {
		return s, false
	}
	if s.ReturnStep == "" {
		s.ReturnStep = StepSelectPatient
		if s.HasBooking() {
			s.ReturnStep = StepAwaitingOTP
			if s.Override {
				s.ReturnStep = StepAwaitingOverrideRequest
			}
		}
	}
	next, _, _ := complete(s, Action{Type: ActionFailed, Message: MessageInterrupted}, now)
	return next, true
}

func complete(s State, action Action, now time.Time) (State, Command, error) {
	next := s
	next.Pending = false
	next.PendingSince = nil
	next.UpdatedAt = now

	if action.Type == ActionFailed {
		next.Step = s.ReturnStep
		next.ReturnStep = ""
		next.LastError = action.Message
		if next.LastError == "" {
			next.LastError = client.MessageUnexpected
		}
		return next, Command{}, nil
	}

	next.ReturnStep = ""
	next.LastError = ""
	next.Notice = action.Message

	switch {
	case action.Type == ActionBookingCreated && s.Step == StepSubmitting:
		next.BookingID = action.BookingID
		next.BookingNumber = action.BookingNumber
		if s.Override {
			next.Step = StepAwaitingOverrideRequest
			next.OTPExpiresAt = nil
		} else {
			next.Step = StepAwaitingOTP
			next.OTPExpiresAt = action.ExpiresAt
		}
	case action.Type == ActionOTPIssued && s.Step == StepRequestingOTP:
		next.OTPExpiresAt = action.ExpiresAt
		if s.Override {
			next.Step = StepAwaitingOverrideOTP
		} else {
			next.Step = StepAwaitingOTP
		}
	case action.Type == ActionConsented && s.Step == StepVerifying:
		next.Step = StepConsented
		next.OTPExpiresAt = nil
	default:
		return refuse(s, ErrInvalidAction)
	}

	return next, Command{}, nil
}

func begin(s State, step Step, now time.Time) State {
	s.ReturnStep = s.Step
	s.Step = step
	s.Pending = true
	s.PendingSince = &now
	s.LastError = ""
	return s
}

func refuse(s State, err error) (State, Command, error) {
	s.LastError = err.Error()
	return s, Command{}, err
}

func isOutcome(t ActionType) bool {
	switch t {
	case ActionBookingCreated, ActionOTPIssued, ActionConsented, ActionFailed:
		return true
	}
	return false
}

func atEditableStep(step Step) bool {
	switch step {
	case StepSelectPatient, StepSelectService, StepDetails:
		return true
	}
	return false
}

func detailsComplete(s State) bool {
	return s.PatientID != uuid.Nil &&
		s.ServiceID != uuid.Nil &&
		paymentModes[s.PaymentMode] &&
		!s.BookingDate.IsZero()
}
