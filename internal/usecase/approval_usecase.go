package usecase

import (
	"context"
	"errors"
	"time"

	"facility-booking/internal/delivery/dto"
	"facility-booking/internal/domain/entity"
	"facility-booking/internal/domain/repository"
	"facility-booking/internal/metrics"
	"facility-booking/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrBookingNotPending      = errors.New("booking is no longer pending")
	ErrApprovalAlreadyDecided = errors.New("booking approval has already been decided")
	ErrInvalidDecision        = errors.New("invalid decision")
	ErrInvalidBookingStatus   = errors.New("status must be confirmed or cancelled")
)

// ApprovalUsecase applies the finance decision and the vendor/admin approval.
// Both are one-way: a decided field never goes back to pending.
type ApprovalUsecase interface {
	SetFinanceDecision(ctx context.Context, bookingID uuid.UUID, req *dto.FinanceDecisionRequest) (*dto.BookingResponse, error)
	SetApproval(ctx context.Context, req *dto.ApprovalRequest) (*dto.BookingResponse, error)
}

type approvalUsecase struct {
	db           *gorm.DB
	log          *logrus.Logger
	bookingRepo  repository.BookingRepository
	auditService service.AuditService
	metrics      *metrics.LifecycleMetrics
	loc          *time.Location
}

func NewApprovalUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	bookingRepo repository.BookingRepository,
	auditService service.AuditService,
	lifecycleMetrics *metrics.LifecycleMetrics,
	loc *time.Location,
) ApprovalUsecase {
	if loc == nil {
		loc = time.UTC
	}
	return &approvalUsecase{
		db:           db,
		log:          log,
		bookingRepo:  bookingRepo,
		auditService: auditService,
		metrics:      lifecycleMetrics,
		loc:          loc,
	}
}

// SetFinanceDecision moves booking_status from pending to confirmed or
// cancelled and records the payment mode. Nothing else changes.
func (u *approvalUsecase) SetFinanceDecision(ctx context.Context, bookingID uuid.UUID, req *dto.FinanceDecisionRequest) (*dto.BookingResponse, error) {
	status := entity.BookingStatus(req.Status)
	mode := entity.PaymentMode(req.PaymentMode)
	if !mode.Valid() {
		return nil, ErrInvalidPaymentMode
	}

	booking, err := u.bookingRepo.FindByID(ctx, u.db, bookingID)
	if err != nil {
		u.log.Warnf("Failed to find booking %s: %+v", bookingID, err)
		return nil, err
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}
	if !booking.IsPending() {
		return nil, ErrBookingNotPending
	}
	if !entity.CanTransitionBookingStatus(booking.BookingStatus, status) {
		return nil, ErrInvalidBookingStatus
	}

	before := map[string]interface{}{
		"booking_status": booking.BookingStatus,
		"payment_mode":   booking.PaymentMode,
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	affected, err := u.bookingRepo.UpdateBookingStatus(ctx, tx, booking.ID, status, mode)
	if err != nil {
		u.log.Warnf("Failed to update booking status %s: %+v", booking.BookingNumber, err)
		return nil, err
	}
	if affected == 0 {
		// Lost the race against another decision.
		return nil, ErrBookingNotPending
	}

	after := map[string]interface{}{
		"booking_status": status,
		"payment_mode":   mode,
	}
	if err := u.auditService.LogUpdate(ctx, tx, actorFromContext(ctx), entity.AuditActionBookingFinanceDecision, "booking", booking.ID.String(), before, after); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	booking.BookingStatus = status
	booking.PaymentMode = mode
	u.metrics.Decision("finance", string(status))
	u.log.Infof("Finance decision applied: booking=%s, status=%s, payment_mode=%s", booking.BookingNumber, status, mode)

	return bookingResponse(booking, u.loc), nil
}

// SetApproval moves approval_status from pending to approved or rejected.
func (u *approvalUsecase) SetApproval(ctx context.Context, req *dto.ApprovalRequest) (*dto.BookingResponse, error) {
	status, ok := entity.ApprovalDecision(req.Decision).Status()
	if !ok {
		return nil, ErrInvalidDecision
	}

	booking, err := u.bookingRepo.FindByNumber(ctx, u.db, req.BookingNumber)
	if err != nil {
		u.log.Warnf("Failed to find booking %s: %+v", req.BookingNumber, err)
		return nil, err
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}
	if !entity.CanTransitionApprovalStatus(booking.ApprovalStatus, status) {
		return nil, ErrApprovalAlreadyDecided
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	affected, err := u.bookingRepo.UpdateApprovalStatus(ctx, tx, booking.ID, status)
	if err != nil {
		u.log.Warnf("Failed to update approval status %s: %+v", booking.BookingNumber, err)
		return nil, err
	}
	if affected == 0 {
		return nil, ErrApprovalAlreadyDecided
	}

	if err := u.auditService.LogUpdate(ctx, tx, actorFromContext(ctx), entity.AuditActionBookingApproval, "booking", booking.ID.String(),
		map[string]interface{}{"approval_status": booking.ApprovalStatus},
		map[string]interface{}{"approval_status": status},
	); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	booking.ApprovalStatus = status
	u.metrics.Decision("approval", string(status))
	u.log.Infof("Approval decision applied: booking=%s, approval_status=%s", booking.BookingNumber, status)

	return bookingResponse(booking, u.loc), nil
}
