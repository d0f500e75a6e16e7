package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"facility-booking/internal/delivery/dto"
	"facility-booking/internal/service"
	"facility-booking/internal/usecase"
	"facility-booking/pkg/validator"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOverrideUsecase struct{ err error }

func (f *fakeOverrideUsecase) RequestOverride(ctx context.Context, req *dto.RequestOverrideRequest) (*dto.OTPResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &dto.OTPResponse{OTPCode: "654321", ExpiresAt: time.Now().Add(5 * time.Minute), Message: "Override OTP issued"}, nil
}

func (f *fakeOverrideUsecase) ValidateOverride(ctx context.Context, req *dto.ValidateOverrideRequest) (*dto.ConsentResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &dto.ConsentResponse{Message: "Override validated successfully"}, nil
}

func TestRequestOverride(t *testing.T) {
	h := NewConsentHandler(nil, &fakeOverrideUsecase{}, validator.NewValidator())
	rec := do(http.HandlerFunc(h.RequestOverride), http.MethodPost, "/request_override", `{"booking_id":"`+uuid.NewString()+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeBody(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, "654321", data["otp_code"])

	rec = do(http.HandlerFunc(h.RequestOverride), http.MethodPost, "/request_override", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOverride_ErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{usecase.ErrNotOverrideBooking, http.StatusConflict},
		{usecase.ErrAlreadyConsented, http.StatusConflict},
		{usecase.ErrBookingNotFound, http.StatusNotFound},
		{&service.OTPRejection{Reason: service.OTPReasonMismatch}, http.StatusUnprocessableEntity},
		{usecase.ErrOTPDeliveryFailed, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		h := NewConsentHandler(nil, &fakeOverrideUsecase{err: tc.err}, validator.NewValidator())
		rec := do(http.HandlerFunc(h.ValidateOverride), http.MethodPut, "/validate_override", `{"booking_number":"BK-1","otp_code":"123456"}`)
		assert.Equal(t, tc.code, rec.Code, "%v", tc.err)
	}
}
