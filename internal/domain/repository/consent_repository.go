package repository

import (
	"context"

	"facility-booking/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ConsentRepository interface {
	Create(ctx context.Context, db *gorm.DB, consent *entity.BookingConsent) error
	FindByBookingID(ctx context.Context, db *gorm.DB, bookingID uuid.UUID) (*entity.BookingConsent, error)
}
