package repository

import (
	"context"
	"errors"

	"facility-booking/internal/domain/entity"
	domainRepo "facility-booking/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type consentRepository struct{}

func NewConsentRepository() domainRepo.ConsentRepository {
	return &consentRepository{}
}

func (r *consentRepository) Create(ctx context.Context, db *gorm.DB, consent *entity.BookingConsent) error {
	return db.WithContext(ctx).Create(consent).Error
}

func (r *consentRepository) FindByBookingID(ctx context.Context, db *gorm.DB, bookingID uuid.UUID) (*entity.BookingConsent, error) {
	var consent entity.BookingConsent
	err := db.WithContext(ctx).Where("booking_id = ?", bookingID).First(&consent).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &consent, nil
}
