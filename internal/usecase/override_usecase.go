package usecase

import (
	"context"
	"time"

	"facility-booking/internal/converter"
	"facility-booking/internal/delivery/dto"
	"facility-booking/internal/domain/entity"
	"facility-booking/internal/domain/repository"
	"facility-booking/internal/metrics"
	"facility-booking/internal/service"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// OverrideUsecase drives the supervisor-validated consent path for
// bookings created with override=true.
type OverrideUsecase interface {
	RequestOverride(ctx context.Context, req *dto.RequestOverrideRequest) (*dto.OTPResponse, error)
	ValidateOverride(ctx context.Context, req *dto.ValidateOverrideRequest) (*dto.ConsentResponse, error)
}

type overrideUsecase struct {
	db           *gorm.DB
	log          *logrus.Logger
	bookingRepo  repository.BookingRepository
	consentRepo  repository.ConsentRepository
	otpService   service.OTPService
	auditService service.AuditService
	metrics      *metrics.LifecycleMetrics
	now          func() time.Time
}

func NewOverrideUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	bookingRepo repository.BookingRepository,
	consentRepo repository.ConsentRepository,
	otpService service.OTPService,
	auditService service.AuditService,
	lifecycleMetrics *metrics.LifecycleMetrics,
) OverrideUsecase {
	return &overrideUsecase{
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

func (u *overrideUsecase) RequestOverride(ctx context.Context, req *dto.RequestOverrideRequest) (*dto.OTPResponse, error) {
	booking, err := u.bookingRepo.FindByID(ctx, u.db, req.BookingID)
	if err != nil {
		u.log.Warnf("Failed to find booking %s: %+v", req.BookingID, err)
		return nil, err
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}

	// Re-check through the number so both paths share the same guards.
	booking, err = loadConsentableBooking(ctx, u.db, u.log, u.bookingRepo, u.consentRepo, booking.BookingNumber, entity.ConsentChannelOverride)
	if err != nil {
		return nil, err
	}

	issued, err := u.otpService.Issue(ctx, entity.ConsentChannelOverride, booking.BookingNumber)
	if err != nil {
		return nil, ErrOTPDeliveryFailed
	}
	u.metrics.OTPIssued(string(entity.ConsentChannelOverride))

	if err := u.auditService.LogEvent(ctx, u.db.WithContext(ctx), actorFromContext(ctx), entity.AuditActionBookingOverrideRequest, entity.JSON{
		"entity":         "booking",
		"entity_id":      booking.ID.String(),
		"booking_number": booking.BookingNumber,
	}); err != nil {
		// The code is already live; an audit gap is logged by the service.
		u.log.Warnf("Override OTP issued without audit entry: booking=%s", booking.BookingNumber)
	}

	u.log.Infof("Override OTP issued: booking=%s", booking.BookingNumber)
	return &dto.OTPResponse{
		OTPCode:   issued.Code,
		ExpiresAt: issued.ExpiresAt,
		Message:   "Override OTP issued, a supervisor must validate it",
	}, nil
}

func (u *overrideUsecase) ValidateOverride(ctx context.Context, req *dto.ValidateOverrideRequest) (*dto.ConsentResponse, error) {
	booking, err := loadConsentableBooking(ctx, u.db, u.log, u.bookingRepo, u.consentRepo, req.BookingNumber, entity.ConsentChannelOverride)
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
	}, booking, entity.ConsentChannelOverride, req.OTPCode, entity.AuditActionBookingOverrideValidate)
	if err != nil {
		return nil, err
	}

	return &dto.ConsentResponse{
		Message:        "Override validated successfully",
		BookingConsent: converter.ConsentToResponse(consent),
	}, nil
}
