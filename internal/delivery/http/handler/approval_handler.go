package handler

import (
	"encoding/json"
	"net/http"

	"facility-booking/internal/delivery/dto"
	"facility-booking/internal/usecase"
	"facility-booking/pkg/response"
	"facility-booking/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type ApprovalHandler struct {
	approvalUsecase usecase.ApprovalUsecase
	validator       *validator.CustomValidator
}

func NewApprovalHandler(approvalUsecase usecase.ApprovalUsecase, validator *validator.CustomValidator) *ApprovalHandler {
	return &ApprovalHandler{
		approvalUsecase: approvalUsecase,
		validator:       validator,
	}
}

// SetFinanceDecision handles PUT /booking/{id}/finance
func (h *ApprovalHandler) SetFinanceDecision(w http.ResponseWriter, r *http.Request) {
	bookingID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid booking ID", nil)
		return
	}

	var req dto.FinanceDecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	booking, err := h.approvalUsecase.SetFinanceDecision(r.Context(), bookingID, &req)
	if err != nil {
		switch err {
		case usecase.ErrBookingNotFound:
			response.NotFound(w, "Booking not found")
		case usecase.ErrBookingNotPending:
			response.Conflict(w, "Booking is no longer pending")
		case usecase.ErrInvalidBookingStatus, usecase.ErrInvalidPaymentMode:
			response.Error(w, http.StatusBadRequest, err.Error(), nil)
		default:
			response.InternalServerError(w, "Failed to update booking")
		}
		return
	}

	response.Success(w, http.StatusOK, "Booking updated successfully", dto.BookingEnvelope{Booking: booking})
}

// SetApproval handles POST /booking/approval
func (h *ApprovalHandler) SetApproval(w http.ResponseWriter, r *http.Request) {
	var req dto.ApprovalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	booking, err := h.approvalUsecase.SetApproval(r.Context(), &req)
	if err != nil {
		switch err {
		case usecase.ErrBookingNotFound:
			response.NotFound(w, "Booking not found")
		case usecase.ErrApprovalAlreadyDecided:
			response.Conflict(w, "Booking approval has already been decided")
		case usecase.ErrInvalidDecision:
			response.Error(w, http.StatusBadRequest, err.Error(), nil)
		default:
			response.InternalServerError(w, "Failed to update approval")
		}
		return
	}

	response.Success(w, http.StatusOK, "Booking approval updated successfully", dto.BookingEnvelope{Booking: booking})
}
