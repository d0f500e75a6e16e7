package repository

import (
	"context"

	"facility-booking/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BookingFilter narrows ListBookings. Zero values are ignored.
type BookingFilter struct {
	BookingStatus  entity.BookingStatus
	ApprovalStatus entity.ApprovalStatus
	PaymentMode    entity.PaymentMode
	Limit          int
	Offset         int
}

type BookingRepository interface {
	Create(ctx context.Context, db *gorm.DB, booking *entity.Booking) error
	FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Booking, error)
	FindByNumber(ctx context.Context, db *gorm.DB, bookingNumber string) (*entity.Booking, error)
	List(ctx context.Context, db *gorm.DB, filter BookingFilter) ([]entity.Booking, int64, error)
	// UpdateBookingStatus moves booking_status away from pending and sets the payment mode.
	// Returns affected rows: 0 means the booking was no longer pending.
	UpdateBookingStatus(ctx context.Context, db *gorm.DB, id uuid.UUID, status entity.BookingStatus, mode entity.PaymentMode) (int64, error)
	// UpdateApprovalStatus moves approval_status away from pending.
	// Returns affected rows: 0 means the gate was already decided.
	UpdateApprovalStatus(ctx context.Context, db *gorm.DB, id uuid.UUID, status entity.ApprovalStatus) (int64, error)
}
