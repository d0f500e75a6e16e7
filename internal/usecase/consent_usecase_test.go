package usecase

import (
	"context"
	"errors"
	"testing"

	"facility-booking/internal/delivery/dto"
	"facility-booking/internal/domain/entity"
	"facility-booking/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type consentFixture struct {
	*bookingFixture
	consentRepo *mockConsentRepo
	consent     ConsentUsecase
	override    OverrideUsecase
	created     *entity.Booking
}

// newConsentFixture wires booking creation, consent and override usecases
// around one OTP store and one in-memory booking.
func newConsentFixture(t *testing.T) *consentFixture {
	t.Helper()

	db, sqlMock := newMockDB(t)
	sqlMock.MatchExpectationsInOrder(false)
	for i := 0; i < 4; i++ {
		sqlMock.ExpectBegin()
		sqlMock.ExpectCommit()
	}

	f := &consentFixture{
		bookingFixture: newBookingFixture(t, db, newTestOTPService(t)),
		consentRepo:    &mockConsentRepo{},
	}
	f.consent = NewConsentUsecase(db, newTestLogger(), f.bookingRepo, f.consentRepo, f.otp, f.audit, nil)
	f.override = NewOverrideUsecase(db, newTestLogger(), f.bookingRepo, f.consentRepo, f.otp, f.audit, nil)

	f.bookingRepo.On("Create", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			f.created = args.Get(2).(*entity.Booking)
			f.bookingRepo.On("FindByNumber", mock.Anything, mock.Anything, f.created.BookingNumber).Return(f.created, nil)
		}).
		Return(nil)
	return f
}

func (f *consentFixture) create(t *testing.T, override bool) *dto.CreateBookingResponse {
	t.Helper()
	resp, err := f.usecase.CreateBooking(withUser(uuid.New()), f.request(override))
	require.NoError(t, err)
	require.NotNil(t, f.created)
	f.bookingRepo.On("FindByID", mock.Anything, mock.Anything, f.created.ID).Return(f.created, nil)
	return resp
}

func (f *consentFixture) noConsentYet() {
	f.consentRepo.On("FindByBookingID", mock.Anything, mock.Anything, f.created.ID).Return(nil, nil).Once()
}

func TestConsentScenario_WrongThenCorrectOTP(t *testing.T) {
	f := newConsentFixture(t)
	ctx := withUser(uuid.New())

	created := f.create(t, false)
	require.NotEmpty(t, created.OTPCode)

	f.noConsentYet()
	_, err := f.consent.VerifyConsent(ctx, &dto.VerifyConsentRequest{
		BookingNumber: f.created.BookingNumber,
		OTPCode:       wrongCode(created.OTPCode),
	})
	require.ErrorIs(t, err, service.ErrOTPInvalid)
	f.consentRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, entity.BookingStatusPending, f.created.BookingStatus)
	assert.Equal(t, entity.ApprovalStatusPending, f.created.ApprovalStatus)

	f.noConsentYet()
	var recorded *entity.BookingConsent
	f.consentRepo.On("Create", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { recorded = args.Get(2).(*entity.BookingConsent) }).
		Return(nil)

	resp, err := f.consent.VerifyConsent(ctx, &dto.VerifyConsentRequest{
		BookingNumber: f.created.BookingNumber,
		OTPCode:       created.OTPCode,
	})
	require.NoError(t, err)
	require.NotNil(t, resp.BookingConsent)
	assert.Equal(t, "standard", resp.BookingConsent.Channel)
	assert.Equal(t, f.created.ID, resp.BookingConsent.BookingID)
	require.NotNil(t, recorded)
	assert.Equal(t, entity.ConsentChannelStandard, recorded.Channel)

	// Consent never touches the lifecycle fields.
	assert.Equal(t, entity.BookingStatusPending, f.created.BookingStatus)
	assert.Equal(t, entity.ApprovalStatusPending, f.created.ApprovalStatus)
	f.bookingRepo.AssertNotCalled(t, "UpdateBookingStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestConsent_StandardCodeRefusedOnOverridePath(t *testing.T) {
	f := newConsentFixture(t)
	created := f.create(t, false)

	f.noConsentYet()
	_, err := f.override.ValidateOverride(withUser(uuid.New()), &dto.ValidateOverrideRequest{
		BookingNumber: f.created.BookingNumber,
		OTPCode:       created.OTPCode,
	})
	assert.ErrorIs(t, err, ErrNotOverrideBooking)

	f.noConsentYet()
	_, err = f.override.RequestOverride(withUser(uuid.New()), &dto.RequestOverrideRequest{BookingID: f.created.ID})
	assert.ErrorIs(t, err, ErrNotOverrideBooking)
}

func TestOverride_ConsentEndpointsRefuseOverrideBooking(t *testing.T) {
	f := newConsentFixture(t)
	f.create(t, true)

	f.noConsentYet()
	_, err := f.consent.VerifyConsent(context.Background(), &dto.VerifyConsentRequest{
		BookingNumber: f.created.BookingNumber,
		OTPCode:       "123456",
	})
	assert.ErrorIs(t, err, ErrOverrideBooking)

	_, err = f.consent.RequestConsentOTP(context.Background(), &dto.RequestConsentOTPRequest{BookingNumber: f.created.BookingNumber})
	assert.ErrorIs(t, err, ErrOverrideBooking)
}

func TestOverride_RequestThenValidate(t *testing.T) {
	f := newConsentFixture(t)
	f.create(t, true)
	supervisor := uuid.New()

	f.noConsentYet()
	issued, err := f.override.RequestOverride(withUser(uuid.New()), &dto.RequestOverrideRequest{BookingID: f.created.ID})
	require.NoError(t, err)
	assert.Len(t, issued.OTPCode, 6)

	f.noConsentYet()
	f.consentRepo.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	resp, err := f.override.ValidateOverride(withUser(supervisor), &dto.ValidateOverrideRequest{
		BookingNumber: f.created.BookingNumber,
		OTPCode:       issued.OTPCode,
	})
	require.NoError(t, err)
	assert.Equal(t, "override", resp.BookingConsent.Channel)
	require.NotNil(t, resp.BookingConsent.VerifiedBy)
	assert.Equal(t, supervisor, *resp.BookingConsent.VerifiedBy)
	f.audit.AssertCalled(t, "LogCreate", mock.Anything, mock.Anything, &supervisor, entity.AuditActionBookingOverrideValidate, "booking_consent", mock.Anything, mock.Anything)
}

func TestOverride_WrongCodeIsInvalidOTP(t *testing.T) {
	f := newConsentFixture(t)
	f.create(t, true)

	f.noConsentYet()
	issued, err := f.override.RequestOverride(withUser(uuid.New()), &dto.RequestOverrideRequest{BookingID: f.created.ID})
	require.NoError(t, err)

	f.noConsentYet()
	_, err = f.override.ValidateOverride(withUser(uuid.New()), &dto.ValidateOverrideRequest{
		BookingNumber: f.created.BookingNumber,
		OTPCode:       wrongCode(issued.OTPCode),
	})
	assert.ErrorIs(t, err, service.ErrOTPInvalid)
	f.consentRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestConsent_AlreadyConsented(t *testing.T) {
	f := newConsentFixture(t)
	f.create(t, false)

	f.consentRepo.On("FindByBookingID", mock.Anything, mock.Anything, f.created.ID).
		Return(&entity.BookingConsent{ID: uuid.New(), BookingID: f.created.ID}, nil)

	_, err := f.consent.VerifyConsent(context.Background(), &dto.VerifyConsentRequest{
		BookingNumber: f.created.BookingNumber,
		OTPCode:       "123456",
	})
	assert.ErrorIs(t, err, ErrAlreadyConsented)

	_, err = f.consent.RequestConsentOTP(context.Background(), &dto.RequestConsentOTPRequest{BookingNumber: f.created.BookingNumber})
	assert.ErrorIs(t, err, ErrAlreadyConsented)
}

func TestConsent_ReRequestInvalidatesPreviousCode(t *testing.T) {
	f := newConsentFixture(t)
	created := f.create(t, false)

	f.noConsentYet()
	reissued, err := f.consent.RequestConsentOTP(context.Background(), &dto.RequestConsentOTPRequest{BookingNumber: f.created.BookingNumber})
	require.NoError(t, err)
	assert.False(t, reissued.ExpiresAt.Before(*created.ExpiresAt))

	if reissued.OTPCode != created.OTPCode {
		f.noConsentYet()
		_, err = f.consent.VerifyConsent(context.Background(), &dto.VerifyConsentRequest{
			BookingNumber: f.created.BookingNumber,
			OTPCode:       created.OTPCode,
		})
		assert.ErrorIs(t, err, service.ErrOTPInvalid)
	}
}

func TestConsent_UnknownBooking(t *testing.T) {
	f := newConsentFixture(t)
	f.bookingRepo.On("FindByNumber", mock.Anything, mock.Anything, "BK-missing").Return(nil, nil)

	_, err := f.consent.VerifyConsent(context.Background(), &dto.VerifyConsentRequest{BookingNumber: "BK-missing", OTPCode: "123456"})
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestConsent_CodeSurvivesFailedWrite(t *testing.T) {
	f := newConsentFixture(t)
	ctx := withUser(uuid.New())
	created := f.create(t, false)

	f.noConsentYet()
	f.consentRepo.On("Create", mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("connection reset by peer")).Once()

	_, err := f.consent.VerifyConsent(ctx, &dto.VerifyConsentRequest{
		BookingNumber: f.created.BookingNumber,
		OTPCode:       created.OTPCode,
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, service.ErrOTPInvalid)

	f.noConsentYet()
	f.consentRepo.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	resp, err := f.consent.VerifyConsent(ctx, &dto.VerifyConsentRequest{
		BookingNumber: f.created.BookingNumber,
		OTPCode:       created.OTPCode,
	})
	require.NoError(t, err, "the same code is accepted after a failed write")
	assert.Equal(t, f.created.ID, resp.BookingConsent.BookingID)

	f.noConsentYet()
	_, err = f.consent.VerifyConsent(ctx, &dto.VerifyConsentRequest{
		BookingNumber: f.created.BookingNumber,
		OTPCode:       created.OTPCode,
	})
	assert.ErrorIs(t, err, service.ErrOTPInvalid, "a committed code is spent")
}
