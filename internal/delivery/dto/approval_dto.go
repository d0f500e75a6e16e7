package dto

// Request DTOs

type FinanceDecisionRequest struct {
	PaymentMode string `json:"payment_mode" validate:"required,oneof=sha cash other_insurances"`
	Status      string `json:"status" validate:"required,oneof=confirmed cancelled"`
}

type ApprovalRequest struct {
	BookingNumber string `json:"booking_number" validate:"required"`
	Decision      string `json:"decision" validate:"required,oneof=approve reject"`
}
