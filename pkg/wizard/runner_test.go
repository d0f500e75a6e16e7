package wizard

import (
	"context"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"facility-booking/pkg/client"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockBookingAPI struct {
	mock.Mock
}

func (m *mockBookingAPI) CreateBooking(ctx context.Context, in client.CreateBookingInput) (*client.CreateBookingResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*client.CreateBookingResult), args.Error(1)
}

func (m *mockBookingAPI) RequestConsentOTP(ctx context.Context, bookingNumber string) (*client.OTP, error) {
	args := m.Called(ctx, bookingNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*client.OTP), args.Error(1)
}

func (m *mockBookingAPI) RequestOverride(ctx context.Context, bookingID uuid.UUID) (*client.OTP, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*client.OTP), args.Error(1)
}

func (m *mockBookingAPI) VerifyConsent(ctx context.Context, bookingNumber, otpCode string) (*client.ConsentResult, error) {
	args := m.Called(ctx, bookingNumber, otpCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*client.ConsentResult), args.Error(1)
}

func (m *mockBookingAPI) ValidateOverride(ctx context.Context, bookingNumber, otpCode string) (*client.ConsentResult, error) {
	args := m.Called(ctx, bookingNumber, otpCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*client.ConsentResult), args.Error(1)
}

func newTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rc.Close() })

	return NewRedisStore(rc, time.Hour), mr
}

func newTestRunner(t *testing.T, api BookingAPI) (*Runner, *RedisStore) {
	t.Helper()

	store, _ := newTestStore(t)
	log := logrus.New()
	log.SetOutput(io.Discard)

	r := NewRunner(api, store, log)
	r.now = func() time.Time { return t0 }
	return r, store
}

func driveToDetails(t *testing.T, r *Runner, id string, override bool) {
	t.Helper()
	ctx := context.Background()

	for _, a := range []Action{
		{Type: ActionSelectPatient, PatientID: uuid.New()},
		{Type: ActionSelectService, ServiceID: uuid.New()},
		{Type: ActionSetDetails, PaymentMode: "sha", BookingDate: t0.Add(24 * time.Hour)},
		{Type: ActionSetOverride, Override: override},
	} {
		_, err := r.Dispatch(ctx, id, a)
		require.NoError(t, err)
	}
}

func TestRunner_StandardConsentScenario(t *testing.T) {
	api := new(mockBookingAPI)
	r, store := newTestRunner(t, api)
	ctx := context.Background()
	bookingID := uuid.New()
	expires := t0.Add(5 * time.Minute)

	driveToDetails(t, r, "w1", false)

	api.On("CreateBooking", mock.Anything, mock.MatchedBy(func(in client.CreateBookingInput) bool {
		return in.PaymentMode == "sha" && !in.Override
	})).Return(&client.CreateBookingResult{
		Booking:    &client.Booking{ID: bookingID, BookingNumber: "BK-9"},
		OTPCode:    "123456",
		OTPMessage: "OTP sent",
		ExpiresAt:  &expires,
	}, nil).Once()

	st, err := r.Dispatch(ctx, "w1", Action{Type: ActionSubmit})
	require.NoError(t, err)
	assert.Equal(t, StepAwaitingOTP, st.Step)
	assert.Equal(t, bookingID, st.BookingID)
	assert.Equal(t, "OTP sent", st.Notice)

	wrong := &client.APIError{StatusCode: http.StatusUnprocessableEntity, Message: "invalid or expired OTP"}
	api.On("VerifyConsent", mock.Anything, "BK-9", "000000").Return(nil, wrong).Once()

	st, err = r.Dispatch(ctx, "w1", Action{Type: ActionSubmitCode, Code: "000000"})
	assert.ErrorIs(t, err, error(wrong))
	assert.Equal(t, StepAwaitingOTP, st.Step)
	assert.Equal(t, "invalid or expired OTP", st.LastError)

	api.On("VerifyConsent", mock.Anything, "BK-9", "123456").
		Return(&client.ConsentResult{Message: "Consent recorded"}, nil).Once()

	st, err = r.Dispatch(ctx, "w1", Action{Type: ActionSubmitCode, Code: "123456"})
	require.NoError(t, err)
	assert.Equal(t, StepConsented, st.Step)
	assert.Empty(t, st.LastError)

	saved, err := store.Load(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, StepConsented, saved.Step)
	api.AssertExpectations(t)
}

func TestRunner_ExpiredCodeMakesNoRequest(t *testing.T) {
	api := new(mockBookingAPI)
	r, _ := newTestRunner(t, api)
	ctx := context.Background()
	expires := t0.Add(-time.Second)

	driveToDetails(t, r, "w2", false)
	api.On("CreateBooking", mock.Anything, mock.Anything).Return(&client.CreateBookingResult{
		Booking:   &client.Booking{ID: uuid.New(), BookingNumber: "BK-2"},
		ExpiresAt: &expires,
	}, nil).Once()
	_, err := r.Dispatch(ctx, "w2", Action{Type: ActionSubmit})
	require.NoError(t, err)

	st, err := r.Dispatch(ctx, "w2", Action{Type: ActionSubmitCode, Code: "123456"})
	assert.ErrorIs(t, err, ErrOTPExpired)
	assert.Equal(t, StepAwaitingOTP, st.Step)
	api.AssertNotCalled(t, "VerifyConsent", mock.Anything, mock.Anything, mock.Anything)
}

func TestRunner_OverrideFlow(t *testing.T) {
	api := new(mockBookingAPI)
	r, _ := newTestRunner(t, api)
	ctx := context.Background()
	bookingID := uuid.New()

	driveToDetails(t, r, "w3", true)
	api.On("CreateBooking", mock.Anything, mock.MatchedBy(func(in client.CreateBookingInput) bool { return in.Override })).
		Return(&client.CreateBookingResult{Booking: &client.Booking{ID: bookingID, BookingNumber: "BK-3"}}, nil).Once()
	api.On("RequestOverride", mock.Anything, bookingID).
		Return(&client.OTP{Code: "654321", ExpiresAt: t0.Add(5 * time.Minute)}, nil).Once()
	api.On("ValidateOverride", mock.Anything, "BK-3", "654321").
		Return(&client.ConsentResult{Message: "Override validated"}, nil).Once()

	st, err := r.Dispatch(ctx, "w3", Action{Type: ActionSubmit})
	require.NoError(t, err)
	assert.Equal(t, StepAwaitingOverrideRequest, st.Step)

	st, err = r.Dispatch(ctx, "w3", Action{Type: ActionRequestOTP})
	require.NoError(t, err)
	assert.Equal(t, StepAwaitingOverrideOTP, st.Step)
	require.NotNil(t, st.OTPExpiresAt)

	st, err = r.Dispatch(ctx, "w3", Action{Type: ActionSubmitCode, Code: "654321"})
	require.NoError(t, err)
	assert.Equal(t, StepConsented, st.Step)

	api.AssertExpectations(t)
	api.AssertNotCalled(t, "VerifyConsent", mock.Anything, mock.Anything, mock.Anything)
}

func TestRunner_CreateFailureReturnsToDetails(t *testing.T) {
	api := new(mockBookingAPI)
	r, _ := newTestRunner(t, api)
	ctx := context.Background()

	driveToDetails(t, r, "w4", false)
	api.On("CreateBooking", mock.Anything, mock.Anything).
		Return(nil, &client.NetworkError{Op: "POST /booking/create", Err: context.DeadlineExceeded}).Once()

	st, err := r.Dispatch(ctx, "w4", Action{Type: ActionSubmit})
	assert.Error(t, err)
	assert.Equal(t, StepDetails, st.Step)
	assert.False(t, st.Pending)
	assert.Equal(t, client.MessageNetwork, st.LastError)
	assert.False(t, st.HasBooking())
}

func TestRunner_ConcurrentSubmitCreatesOneBooking(t *testing.T) {
	api := new(mockBookingAPI)
	r, _ := newTestRunner(t, api)
	ctx := context.Background()

	driveToDetails(t, r, "w5", false)

	release := make(chan time.Time)
	api.On("CreateBooking", mock.Anything, mock.Anything).
		WaitUntil(release).
		Return(&client.CreateBookingResult{Booking: &client.Booking{ID: uuid.New(), BookingNumber: "BK-5"}}, nil).Once()

	var wg sync.WaitGroup
	results := make([]State, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = r.Dispatch(ctx, "w5", Action{Type: ActionSubmit})
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	api.AssertNumberOfCalls(t, "CreateBooking", 1)
}

func TestRunner_RecoversDraftLeftPending(t *testing.T) {
	api := new(mockBookingAPI)
	r, store := newTestRunner(t, api)
	ctx := context.Background()

	driveToDetails(t, r, "w6", false)
	st, err := store.Load(ctx, "w6")
	require.NoError(t, err)

	// The process died after saving the pending state.
	interrupted, cmd, err := Transition(st, Action{Type: ActionSubmit}, t0)
	require.NoError(t, err)
	require.Equal(t, CommandCreateBooking, cmd.Kind)
	require.NoError(t, store.Save(ctx, interrupted))

	r.now = func() time.Time { return t0.Add(time.Second) }
	st, err = r.Dispatch(ctx, "w6", Action{Type: ActionDismissError})
	assert.ErrorIs(t, err, ErrPending, "a command that may still be running is not cut short")
	assert.Equal(t, StepSubmitting, st.Step)

	r.now = func() time.Time { return t0.Add(DefaultPendingTimeout + time.Second) }
	st, err = r.Dispatch(ctx, "w6", Action{Type: ActionBack})
	require.NoError(t, err)
	assert.False(t, st.Pending)
	assert.Equal(t, StepSelectService, st.Step, "the draft is back at details and can step back")

	saved, err := store.Load(ctx, "w6")
	require.NoError(t, err)
	assert.False(t, saved.Pending)
	api.AssertNotCalled(t, "CreateBooking", mock.Anything, mock.Anything)
}

func TestRunner_SerializesDifferentActionsOnOneDraft(t *testing.T) {
	api := new(mockBookingAPI)
	r, _ := newTestRunner(t, api)
	ctx := context.Background()

	driveToDetails(t, r, "w7", false)
	api.On("CreateBooking", mock.Anything, mock.Anything).Return(&client.CreateBookingResult{
		Booking: &client.Booking{ID: uuid.New(), BookingNumber: "BK-7"},
	}, nil).Once()
	_, err := r.Dispatch(ctx, "w7", Action{Type: ActionSubmit})
	require.NoError(t, err)

	started := make(chan struct{})
	release := make(chan struct{})
	wrong := &client.APIError{StatusCode: http.StatusUnprocessableEntity, Message: "invalid or expired OTP"}
	api.On("VerifyConsent", mock.Anything, "BK-7", "111111").
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(nil, wrong).Once()
	api.On("VerifyConsent", mock.Anything, "BK-7", "222222").
		Return(&client.ConsentResult{Message: "Consent recorded"}, nil).Once()

	firstDone := make(chan error, 1)
	go func() {
		_, err := r.Dispatch(ctx, "w7", Action{Type: ActionSubmitCode, Code: "111111"})
		firstDone <- err
	}()
	<-started

	secondDone := make(chan State, 1)
	go func() {
		st, _ := r.Dispatch(ctx, "w7", Action{Type: ActionSubmitCode, Code: "222222"})
		secondDone <- st
	}()

	select {
	case <-secondDone:
		t.Fatal("second code was dispatched while the first was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	assert.ErrorIs(t, <-firstDone, error(wrong))

	st := <-secondDone
	assert.Equal(t, StepConsented, st.Step)
	api.AssertExpectations(t)
}
