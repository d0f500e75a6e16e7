package handler

import (
	"errors"
	"net/http"

	"facility-booking/internal/delivery/dto"
	"facility-booking/internal/service"
	"facility-booking/internal/usecase"
	"facility-booking/pkg/response"
	"facility-booking/pkg/validator"
)

type ConsentHandler struct {
	consentUsecase  usecase.ConsentUsecase
	overrideUsecase usecase.OverrideUsecase
	validator       *validator.CustomValidator
}

func NewConsentHandler(consentUsecase usecase.ConsentUsecase, overrideUsecase usecase.OverrideUsecase, validator *validator.CustomValidator) *ConsentHandler {
	return &ConsentHandler{
		consentUsecase:  consentUsecase,
		overrideUsecase: overrideUsecase,
		validator:       validator,
	}
}

// VerifyConsent handles POST /booking/verify/consent
func (h *ConsentHandler) VerifyConsent(w http.ResponseWriter, r *http.Request) {
	var req dto.VerifyConsentRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.consentUsecase.VerifyConsent(r.Context(), &req)
	if err != nil {
		writeConsentError(w, err, "Failed to verify consent")
		return
	}

	response.Success(w, http.StatusOK, result.Message, result)
}

// RequestConsentOTP handles POST /booking/request/consent
func (h *ConsentHandler) RequestConsentOTP(w http.ResponseWriter, r *http.Request) {
	var req dto.RequestConsentOTPRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.consentUsecase.RequestConsentOTP(r.Context(), &req)
	if err != nil {
		writeConsentError(w, err, "Failed to issue OTP")
		return
	}

	response.Success(w, http.StatusOK, result.Message, result)
}

// RequestOverride handles POST /request_override
func (h *ConsentHandler) RequestOverride(w http.ResponseWriter, r *http.Request) {
	var req dto.RequestOverrideRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.overrideUsecase.RequestOverride(r.Context(), &req)
	if err != nil {
		writeConsentError(w, err, "Failed to request override")
		return
	}

	response.Success(w, http.StatusOK, result.Message, result)
}

// ValidateOverride handles PUT /validate_override
func (h *ConsentHandler) ValidateOverride(w http.ResponseWriter, r *http.Request) {
	var req dto.ValidateOverrideRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.overrideUsecase.ValidateOverride(r.Context(), &req)
	if err != nil {
		writeConsentError(w, err, "Failed to validate override")
		return
	}

	response.Success(w, http.StatusOK, result.Message, result)
}

func (h *ConsentHandler) decode(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	return decodeRequest(w, r, h.validator, req)
}

func writeConsentError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrOTPInvalid):
		response.UnprocessableEntity(w, service.ErrOTPInvalid.Error())
	case errors.Is(err, usecase.ErrBookingNotFound):
		response.NotFound(w, "Booking not found")
	case errors.Is(err, usecase.ErrOverrideBooking),
		errors.Is(err, usecase.ErrNotOverrideBooking),
		errors.Is(err, usecase.ErrAlreadyConsented):
		response.Conflict(w, err.Error())
	case errors.Is(err, usecase.ErrOTPDeliveryFailed):
		response.Error(w, http.StatusServiceUnavailable, err.Error(), nil)
	default:
		response.InternalServerError(w, fallback)
	}
}
