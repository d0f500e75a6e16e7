package repository

import (
	"context"
	"errors"

	"facility-booking/internal/domain/entity"
	domainRepo "facility-booking/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type bookingRepository struct{}

func NewBookingRepository() domainRepo.BookingRepository {
	return &bookingRepository{}
}

func (r *bookingRepository) Create(ctx context.Context, db *gorm.DB, booking *entity.Booking) error {
	return db.WithContext(ctx).Create(booking).Error
}

func (r *bookingRepository) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Booking, error) {
	var booking entity.Booking
	err := db.WithContext(ctx).Where("id = ?", id).First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) FindByNumber(ctx context.Context, db *gorm.DB, bookingNumber string) (*entity.Booking, error) {
	var booking entity.Booking
	err := db.WithContext(ctx).Where("booking_number = ?", bookingNumber).First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) List(ctx context.Context, db *gorm.DB, filter domainRepo.BookingFilter) ([]entity.Booking, int64, error) {
	query := db.WithContext(ctx).Model(&entity.Booking{})
	if filter.BookingStatus != "" {
		query = query.Where("booking_status = ?", filter.BookingStatus)
	}
	if filter.ApprovalStatus != "" {
		query = query.Where("approval_status = ?", filter.ApprovalStatus)
	}
	if filter.PaymentMode != "" {
		query = query.Where("payment_mode = ?", filter.PaymentMode)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var bookings []entity.Booking
	err := query.Order("created_at DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&bookings).Error
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// UpdateBookingStatus only touches rows still pending, so a decided booking can never move back.
func (r *bookingRepository) UpdateBookingStatus(ctx context.Context, db *gorm.DB, id uuid.UUID, status entity.BookingStatus, mode entity.PaymentMode) (int64, error) {
	result := db.WithContext(ctx).Model(&entity.Booking{}).
		Where("id = ? AND booking_status = ?", id, entity.BookingStatusPending).
		Updates(map[string]interface{}{
			"booking_status": status,
			"payment_mode":   mode,
		})
	return result.RowsAffected, result.Error
}

func (r *bookingRepository) UpdateApprovalStatus(ctx context.Context, db *gorm.DB, id uuid.UUID, status entity.ApprovalStatus) (int64, error) {
	result := db.WithContext(ctx).Model(&entity.Booking{}).
		Where("id = ? AND approval_status = ?", id, entity.ApprovalStatusPending).
		Update("approval_status", status)
	return result.RowsAffected, result.Error
}
