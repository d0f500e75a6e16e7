package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"facility-booking/pkg/client"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// BookingAPI is the part of the booking client the wizard drives.
type BookingAPI interface {
	CreateBooking(ctx context.Context, in client.CreateBookingInput) (*client.CreateBookingResult, error)
	RequestConsentOTP(ctx context.Context, bookingNumber string) (*client.OTP, error)
	RequestOverride(ctx context.Context, bookingID uuid.UUID) (*client.OTP, error)
	VerifyConsent(ctx context.Context, bookingNumber, otpCode string) (*client.ConsentResult, error)
	ValidateOverride(ctx context.Context, bookingNumber, otpCode string) (*client.ConsentResult, error)
}

var _ BookingAPI = (*client.Client)(nil)

// DefaultPendingTimeout is how long a saved pending command is trusted to
// still be running somewhere before the draft is recovered.
const DefaultPendingTimeout = 2 * client.DefaultTimeout

type Runner struct {
	api            BookingAPI
	store          Store
	log            logrus.FieldLogger
	group          singleflight.Group
	pendingTimeout time.Duration
	now            func() time.Time

	mu    sync.Mutex
	locks map[string]*draftLock
}

type draftLock struct {
	sync.Mutex
	refs int
}

type RunnerOption func(*Runner)

// WithPendingTimeout sets how old a pending command must be before a dispatch
// treats it as failed. Keep it above the client timeout.
func WithPendingTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.pendingTimeout = d
		}
	}
}

func NewRunner(api BookingAPI, store Store, log logrus.FieldLogger, opts ...RunnerOption) *Runner {
	if log == nil {
		log = logrus.StandardLogger()
	}
	r := &Runner{
		api:            api,
		store:          store,
		log:            log,
		pendingTimeout: DefaultPendingTimeout,
		now:            time.Now,
		locks:          make(map[string]*draftLock),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Dispatch applies action to the stored draft, runs the resulting command and
// saves the outcome. Dispatches on one draft run one at a time; identical
// concurrent dispatches share a single execution.
//
// The returned error is the refusal or command failure; the returned state
// already carries the matching LastError.
func (r *Runner) Dispatch(ctx context.Context, id string, action Action) (State, error) {
	v, err, _ := r.group.Do(dispatchKey(id, action), func() (interface{}, error) {
		unlock := r.lock(id)
		defer unlock()
		return r.dispatch(ctx, id, action)
	})
	st, _ := v.(State)
	return st, err
}

func dispatchKey(id string, action Action) string {
	raw, _ := json.Marshal(action)
	return id + "|" + string(raw)
}

// lock serializes load, transition and save for one draft.
func (r *Runner) lock(id string) func() {
	r.mu.Lock()
	l, ok := r.locks[id]
	if !ok {
		l = &draftLock{}
		r.locks[id] = l
	}
	l.refs++
	r.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		r.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(r.locks, id)
		}
		r.mu.Unlock()
	}
}

func (r *Runner) dispatch(ctx context.Context, id string, action Action) (State, error) {
	st, err := r.store.Load(ctx, id)
	if errors.Is(err, ErrDraftNotFound) {
		st = New(id)
	} else if err != nil {
		return State{}, err
	}

	if recovered, ok := RecoverStale(st, r.now(), r.pendingTimeout); ok {
		r.log.WithFields(logrus.Fields{"wizard_id": id, "step": st.Step}).Warn("wizard draft recovered from an interrupted command")
		st = recovered
	}

	next, cmd, err := Transition(st, action, r.now())
	if saveErr := r.store.Save(ctx, next); saveErr != nil {
		return st, saveErr
	}
	if err != nil || cmd.Kind == CommandNone {
		return next, err
	}

	log := r.log.WithFields(logrus.Fields{"wizard_id": id, "command": cmd.Kind})
	outcome, cmdErr := r.execute(ctx, cmd)
	if cmdErr != nil {
		log.WithError(cmdErr).Info("wizard command failed")
	}

	final, _, err := Transition(next, outcome, r.now())
	if err != nil {
		return next, err
	}
	if saveErr := r.store.Save(ctx, final); saveErr != nil {
		return final, saveErr
	}
	return final, cmdErr
}

// execute runs cmd and converts its result into an outcome action.
func (r *Runner) execute(ctx context.Context, cmd Command) (Action, error) {
	switch cmd.Kind {
	case CommandCreateBooking:
		res, err := r.api.CreateBooking(ctx, cmd.Booking)
		if err != nil {
			return failed(err), err
		}
		if res.Booking == nil {
			err := errors.New("create booking: empty booking in response")
			return failed(err), err
		}
		return Action{
			Type:          ActionBookingCreated,
			BookingID:     res.Booking.ID,
			BookingNumber: res.Booking.BookingNumber,
			ExpiresAt:     res.ExpiresAt,
			Message:       res.OTPMessage,
		}, nil

	case CommandRequestConsentOTP, CommandRequestOverride:
		var (
			otp *client.OTP
			err error
		)
		if cmd.Kind == CommandRequestConsentOTP {
			otp, err = r.api.RequestConsentOTP(ctx, cmd.BookingNumber)
		} else {
			otp, err = r.api.RequestOverride(ctx, cmd.BookingID)
		}
		if err != nil {
			return failed(err), err
		}
		issued := Action{Type: ActionOTPIssued, Message: otp.Message}
		if !otp.ExpiresAt.IsZero() {
			expiresAt := otp.ExpiresAt
			issued.ExpiresAt = &expiresAt
		}
		return issued, nil

	case CommandVerifyConsent, CommandValidateOverride:
		var (
			res *client.ConsentResult
			err error
		)
		if cmd.Kind == CommandVerifyConsent {
			res, err = r.api.VerifyConsent(ctx, cmd.BookingNumber, cmd.Code)
		} else {
			res, err = r.api.ValidateOverride(ctx, cmd.BookingNumber, cmd.Code)
		}
		if err != nil {
			return failed(err), err
		}
		return Action{Type: ActionConsented, Message: res.Message}, nil
	}

	err := errors.New("unknown wizard command " + string(cmd.Kind))
	return failed(err), err
}

func failed(err error) Action {
	return Action{Type: ActionFailed, Message: client.UserMessage(err)}
}
