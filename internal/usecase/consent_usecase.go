package usecase

import (
	"context"
	"errors"
	"time"

	"facility-booking/internal/converter"
	"facility-booking/internal/delivery/dto"
	"facility-booking/internal/delivery/http/middleware"
	"facility-booking/internal/domain/entity"
	"facility-booking/internal/domain/repository"
	"facility-booking/internal/metrics"
	"facility-booking/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrAlreadyConsented   = errors.New("booking consent already recorded")
	ErrOverrideBooking    = errors.New("override booking: consent must go through the override path")
	ErrNotOverrideBooking = errors.New("booking was not created as an override booking")
	ErrOTPDeliveryFailed  = errors.New("could not issue OTP, try again")
)

// ConsentUsecase drives the standard OTP consent path.
type ConsentUsecase interface {
	RequestConsentOTP(ctx context.Context, req *dto.RequestConsentOTPRequest) (*dto.OTPResponse, error)
	VerifyConsent(ctx context.Context, req *dto.VerifyConsentRequest) (*dto.ConsentResponse, error)
}

type consentUsecase struct {
	db           *gorm.DB
	log          *logrus.Logger
	bookingRepo  repository.BookingRepository
	consentRepo  repository.ConsentRepository
	otpService   service.OTPService
	auditService service.AuditService
	metrics      *metrics.LifecycleMetrics
	now          func() time.Time
}

func NewConsentUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	bookingRepo repository.BookingRepository,
	consentRepo repository.ConsentRepository,
	otpService service.OTPService,
	auditService service.AuditService,
	lifecycleMetrics *metrics.LifecycleMetrics,
) ConsentUsecase {
	return &consentUsecase{
		db:           db,
		log:          log,
		bookingRepo:  bookingRepo,
		consentRepo:  consentRepo,
		otpService:   otpService,
		auditService: auditService,
		metrics:      lifecycleMetrics,
		now:          time.Now,
	}
}

// RequestConsentOTP re-issues the consent code. The previous code stops
// validating immediately.
func (u *consentUsecase) RequestConsentOTP(ctx context.Context, req *dto.RequestConsentOTPRequest) (*dto.OTPResponse, error) {
	booking, err := u.consentableBooking(ctx, req.BookingNumber, entity.ConsentChannelStandard)
	if err != nil {
		return nil, err
	}

	issued, err := u.otpService.Issue(ctx, entity.ConsentChannelStandard, booking.BookingNumber)
	if err != nil {
		return nil, ErrOTPDeliveryFailed
	}
	u.metrics.OTPIssued(string(entity.ConsentChannelStandard))
	u.log.Infof("Consent OTP re-issued: booking=%s", booking.BookingNumber)

	return &dto.OTPResponse{
		OTPCode:   issued.Code,
		ExpiresAt: issued.ExpiresAt,
		Message:   consentOTPMessage,
	}, nil
}

// VerifyConsent checks the code and records consent. A refused code leaves
// the booking untouched.
func (u *consentUsecase) VerifyConsent(ctx context.Context, req *dto.VerifyConsentRequest) (*dto.ConsentResponse, error) {
	booking, err := u.consentableBooking(ctx, req.BookingNumber, entity.ConsentChannelStandard)
	if err != nil {
		return nil, err
	}

	consent, err := recordConsent(ctx, consentRecorder{
		db:           u.db,
		log:          u.log,
		consentRepo:  u.consentRepo,
		otpService:   u.otpService,
		auditService: u.auditService,
		metrics:      u.metrics,
		now:          u.now,
	}, booking, entity.ConsentChannelStandard, req.OTPCode, entity.AuditActionBookingConsent)
	if err != nil {
		return nil, err
	}

	return &dto.ConsentResponse{
		Message:        "Consent verified successfully",
		BookingConsent: converter.ConsentToResponse(consent),
	}, nil
}

// consentableBooking loads the booking and checks it takes consent on channel
// and has none yet.
func (u *consentUsecase) consentableBooking(ctx context.Context, bookingNumber string, channel entity.ConsentChannel) (*entity.Booking, error) {
	return loadConsentableBooking(ctx, u.db, u.log, u.bookingRepo, u.consentRepo, bookingNumber, channel)
}

func loadConsentableBooking(
	ctx context.Context,
	db *gorm.DB,
	log *logrus.Logger,
	bookingRepo repository.BookingRepository,
	consentRepo repository.ConsentRepository,
	bookingNumber string,
	channel entity.ConsentChannel,
) (*entity.Booking, error) {
	booking, err := bookingRepo.FindByNumber(ctx, db, bookingNumber)
	if err != nil {
		log.Warnf("Failed to find booking %s: %+v", bookingNumber, err)
		return nil, err
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}

	if booking.ConsentChannel() != channel {
		if booking.Override {
			return nil, ErrOverrideBooking
		}
		return nil, ErrNotOverrideBooking
	}

	existing, err := consentRepo.FindByBookingID(ctx, db, booking.ID)
	if err != nil {
		log.Warnf("Failed to find consent for booking %s: %+v", bookingNumber, err)
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyConsented
	}

	return booking, nil
}

type consentRecorder struct {
	db           *gorm.DB
	log          *logrus.Logger
	consentRepo  repository.ConsentRepository
	otpService   service.OTPService
	auditService service.AuditService
	metrics      *metrics.LifecycleMetrics
	now          func() time.Time
}

// recordConsent claims the OTP and writes the consent row and its audit entry
// in one transaction. No booking status field is touched. When the write does
// not commit, the claimed code is restored so the caller can retry it.
func recordConsent(ctx context.Context, r consentRecorder, booking *entity.Booking, channel entity.ConsentChannel, code, action string) (consent *entity.BookingConsent, err error) {
	if err := r.otpService.Verify(ctx, channel, booking.BookingNumber, code); err != nil {
		var rejection *service.OTPRejection
		if errors.As(err, &rejection) {
			r.metrics.OTPVerified(string(channel), rejection.Reason)
			r.log.Infof("OTP rejected: booking=%s, channel=%s, reason=%s", booking.BookingNumber, channel, rejection.Reason)
		}
		return nil, err
	}
	r.metrics.OTPVerified(string(channel), "ok")

	defer func() {
		settleCtx := context.WithoutCancel(ctx)
		if err != nil {
			if restoreErr := r.otpService.Restore(settleCtx, channel, booking.BookingNumber); restoreErr != nil {
				r.log.Warnf("Consent for booking %s failed and its OTP was not restored: %+v", booking.BookingNumber, restoreErr)
			}
			return
		}
		if consumeErr := r.otpService.Consume(settleCtx, channel, booking.BookingNumber); consumeErr != nil {
			r.log.Warnf("Failed to drop claimed OTP for booking %s: %+v", booking.BookingNumber, consumeErr)
		}
	}()

	verifiedBy := actorFromContext(ctx)

	consent = &entity.BookingConsent{
		BookingID:     booking.ID,
		BookingNumber: booking.BookingNumber,
		Channel:       channel,
		VerifiedBy:    verifiedBy,
		VerifiedAt:    r.now(),
	}

	tx := r.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	if err := r.consentRepo.Create(ctx, tx, consent); err != nil {
		if isDuplicateKeyError(err, "booking_id") {
			return nil, ErrAlreadyConsented
		}
		r.log.Warnf("Failed to record consent for booking %s: %+v", booking.BookingNumber, err)
		return nil, err
	}

	if err := r.auditService.LogCreate(ctx, tx, verifiedBy, action, "booking_consent", consent.ID.String(), converter.ConsentToResponse(consent)); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		r.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	r.log.Infof("Consent recorded: booking=%s, channel=%s", booking.BookingNumber, channel)
	return consent, nil
}

// actorFromContext returns the authenticated user id, or nil.
func actorFromContext(ctx context.Context) *uuid.UUID {
	if userID, ok := middleware.GetUserIDFromContext(ctx); ok {
		return &userID
	}
	return nil
}
