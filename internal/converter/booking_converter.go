package converter

import (
	"facility-booking/internal/delivery/dto"
	"facility-booking/internal/domain/entity"
)

// BookingToResponse converts a Booking entity to BookingResponse DTO.
// booking_date goes out in the zone-less wire layout.
func BookingToResponse(booking *entity.Booking) *dto.BookingResponse {
	if booking == nil {
		return nil
	}

	return &dto.BookingResponse{
		ID:             booking.ID,
		BookingNumber:  booking.BookingNumber,
		PatientID:      booking.PatientID,
		ServiceID:      booking.ServiceID,
		PaymentMode:    string(booking.PaymentMode),
		BookingDate:    booking.BookingDate.Format(entity.BookingDateLayout),
		Amount:         booking.Amount,
		FacilityShare:  booking.FacilityShare,
		VendorShare:    booking.VendorShare,
		BookingStatus:  string(booking.BookingStatus),
		ServiceStatus:  string(booking.ServiceStatus),
		ApprovalStatus: string(booking.ApprovalStatus),
		Override:       booking.Override,
		CreatedAt:      booking.CreatedAt,
		UpdatedAt:      booking.UpdatedAt,
	}
}

// BookingsToResponses converts a slice of Booking entities to slice of BookingResponse DTOs
func BookingsToResponses(bookings []entity.Booking) []dto.BookingResponse {
	responses := make([]dto.BookingResponse, len(bookings))
	for i := range bookings {
		responses[i] = *BookingToResponse(&bookings[i])
	}
	return responses
}

// ConsentToResponse converts a BookingConsent entity to its DTO
func ConsentToResponse(consent *entity.BookingConsent) *dto.BookingConsentResponse {
	if consent == nil {
		return nil
	}

	return &dto.BookingConsentResponse{
		ID:            consent.ID,
		BookingID:     consent.BookingID,
		BookingNumber: consent.BookingNumber,
		Channel:       string(consent.Channel),
		VerifiedBy:    consent.VerifiedBy,
		VerifiedAt:    consent.VerifiedAt,
	}
}
