package usecase

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
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
	ErrBookingNotFound       = errors.New("booking not found")
	ErrBookingDateNotFuture  = errors.New("booking date must be in the future")
	ErrServiceUnavailable    = errors.New("service is not available for booking")
	ErrInvalidBookingDate    = errors.New("invalid booking date, use YYYY-MM-DD HH:mm:ss")
	ErrUserNotInContext      = errors.New("user not found in context")
	ErrBookingNumberConflict = errors.New("could not allocate a unique booking number")
	ErrInvalidPaymentMode    = errors.New("invalid payment mode")
)

const (
	consentOTPMessage  = "OTP sent for patient consent"
	overrideOTPMessage = "Override booking: request an override OTP to record consent"
)

type BookingUsecase interface {
	CreateBooking(ctx context.Context, req *dto.CreateBookingRequest) (*dto.CreateBookingResponse, error)
	GetBooking(ctx context.Context, id uuid.UUID) (*dto.BookingResponse, error)
	GetBookingByNumber(ctx context.Context, bookingNumber string) (*dto.BookingResponse, error)
	ListBookings(ctx context.Context, req *dto.ListBookingsRequest) (*dto.BookingListResponse, error)
}

type bookingUsecase struct {
	db           *gorm.DB
	log          *logrus.Logger
	bookingRepo  repository.BookingRepository
	serviceRepo  repository.ServiceItemRepository
	patientRepo  repository.PatientRepository
	otpService   service.OTPService
	auditService service.AuditService
	metrics      *metrics.LifecycleMetrics
	loc          *time.Location
	now          func() time.Time
}

func NewBookingUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	bookingRepo repository.BookingRepository,
	serviceRepo repository.ServiceItemRepository,
	patientRepo repository.PatientRepository,
	otpService service.OTPService,
	auditService service.AuditService,
	lifecycleMetrics *metrics.LifecycleMetrics,
	loc *time.Location,
) BookingUsecase {
	if loc == nil {
		loc = time.UTC
	}
	return &bookingUsecase{
		db:           db,
		log:          log,
		bookingRepo:  bookingRepo,
		serviceRepo:  serviceRepo,
		patientRepo:  patientRepo,
		otpService:   otpService,
		auditService: auditService,
		metrics:      lifecycleMetrics,
		loc:          loc,
		now:          time.Now,
	}
}

// CreateBooking persists a pending booking and, unless it is an override
// booking, issues the consent OTP.
//
// Flow:
// 1. Parse booking_date in the facility zone and require it to be in the future
// 2. Resolve the service line item and the patient
// 3. Compute amount and share split
// 4. Insert booking and audit entry in one transaction
// 5. Issue consent OTP (standard bookings only)
func (u *bookingUsecase) CreateBooking(ctx context.Context, req *dto.CreateBookingRequest) (*dto.CreateBookingResponse, error) {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrUserNotInContext
	}

	bookingDate, err := time.ParseInLocation(entity.BookingDateLayout, req.BookingDate, u.loc)
	if err != nil {
		return nil, ErrInvalidBookingDate
	}
	if !bookingDate.After(u.now()) {
		return nil, ErrBookingDateNotFuture
	}

	item, err := u.serviceRepo.FindByID(ctx, u.db, req.ServiceID)
	if err != nil {
		u.log.Warnf("Failed to find service %s: %+v", req.ServiceID, err)
		return nil, err
	}
	if item == nil {
		return nil, ErrServiceItemNotFound
	}
	if !item.IsActive || !item.SharesBalanced() {
		return nil, ErrServiceUnavailable
	}

	patient, err := u.patientRepo.FindByID(ctx, u.db, req.PatientID)
	if err != nil {
		u.log.Warnf("Failed to find patient %s: %+v", req.PatientID, err)
		return nil, err
	}
	if patient == nil {
		return nil, ErrPatientNotFound
	}

	amount, facilityShare, vendorShare := item.Split()
	booking := &entity.Booking{
		BookingNumber:  generateBookingNumber(u.now().In(u.loc)),
		PatientID:      patient.ID,
		ServiceID:      item.ID,
		PaymentMode:    entity.PaymentMode(req.PaymentMode),
		BookingDate:    bookingDate,
		Amount:         amount,
		FacilityShare:  facilityShare,
		VendorShare:    vendorShare,
		BookingStatus:  entity.BookingStatusPending,
		ServiceStatus:  entity.ServiceStatusNotStarted,
		ApprovalStatus: entity.ApprovalStatusPending,
		Override:       bool(req.Override),
		CreatedBy:      &userID,
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	if err := u.bookingRepo.Create(ctx, tx, booking); err != nil {
		if isDuplicateKeyError(err, "booking_number") {
			return nil, ErrBookingNumberConflict
		}
		u.log.Warnf("Failed to create booking: %+v", err)
		return nil, err
	}

	if err := u.auditService.LogCreate(ctx, tx, &userID, entity.AuditActionBookingCreate, "booking", booking.ID.String(), converter.BookingToResponse(booking)); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	u.metrics.BookingCreated(string(booking.PaymentMode), booking.Override)
	u.log.Infof("Booking created: number=%s, override=%t, amount=%s", booking.BookingNumber, booking.Override, booking.Amount)

	result := &dto.CreateBookingResponse{
		Booking: u.toResponse(booking),
		Message: "Booking created successfully",
	}

	if booking.Override {
		result.OTPMessage = overrideOTPMessage
		return result, nil
	}

	issued, err := u.otpService.Issue(ctx, entity.ConsentChannelStandard, booking.BookingNumber)
	if err != nil {
		// The booking stands; the caller can re-request the code.
		u.log.Warnf("Booking %s created but consent OTP was not issued: %+v", booking.BookingNumber, err)
		result.OTPMessage = "Booking created but the OTP could not be sent, request a new one"
		return result, nil
	}
	u.metrics.OTPIssued(string(entity.ConsentChannelStandard))

	result.OTPCode = issued.Code
	result.ExpiresAt = &issued.ExpiresAt
	result.OTPMessage = consentOTPMessage
	return result, nil
}

func (u *bookingUsecase) GetBooking(ctx context.Context, id uuid.UUID) (*dto.BookingResponse, error) {
	booking, err := u.bookingRepo.FindByID(ctx, u.db, id)
	if err != nil {
		u.log.Warnf("Failed to find booking %s: %+v", id, err)
		return nil, err
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}
	return u.toResponse(booking), nil
}

func (u *bookingUsecase) GetBookingByNumber(ctx context.Context, bookingNumber string) (*dto.BookingResponse, error) {
	booking, err := u.bookingRepo.FindByNumber(ctx, u.db, bookingNumber)
	if err != nil {
		u.log.Warnf("Failed to find booking %s: %+v", bookingNumber, err)
		return nil, err
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}
	return u.toResponse(booking), nil
}

func (u *bookingUsecase) ListBookings(ctx context.Context, req *dto.ListBookingsRequest) (*dto.BookingListResponse, error) {
	page, limit := normalizePage(req.Page, req.Limit)

	bookings, total, err := u.bookingRepo.List(ctx, u.db, repository.BookingFilter{
		BookingStatus:  entity.BookingStatus(req.BookingStatus),
		ApprovalStatus: entity.ApprovalStatus(req.ApprovalStatus),
		PaymentMode:    entity.PaymentMode(req.PaymentMode),
		Limit:          limit,
		Offset:         (page - 1) * limit,
	})
	if err != nil {
		u.log.Warnf("Failed to list bookings: %+v", err)
		return nil, err
	}

	responses := make([]dto.BookingResponse, len(bookings))
	for i := range bookings {
		responses[i] = *u.toResponse(&bookings[i])
	}

	return &dto.BookingListResponse{
		Bookings: responses,
		Total:    total,
		Page:     page,
		Limit:    limit,
	}, nil
}

func (u *bookingUsecase) toResponse(booking *entity.Booking) *dto.BookingResponse {
	return bookingResponse(booking, u.loc)
}

// bookingResponse renders booking_date in the facility zone before formatting.
func bookingResponse(booking *entity.Booking, loc *time.Location) *dto.BookingResponse {
	local := *booking
	local.BookingDate = booking.BookingDate.In(loc)
	return converter.BookingToResponse(&local)
}

// generateBookingNumber generates a booking number: BK-YYYYMMDD-XXXXXX
func generateBookingNumber(day time.Time) string {
	randomBytes := make([]byte, 3)
	rand.Read(randomBytes)
	return fmt.Sprintf("BK-%s-%06X", day.Format("20060102"), randomBytes)
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	return page, limit
}
