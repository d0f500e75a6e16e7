package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"facility-booking/internal/delivery/dto"
	"facility-booking/internal/usecase"
	"facility-booking/pkg/response"
	"facility-booking/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type BookingHandler struct {
	bookingUsecase usecase.BookingUsecase
	validator      *validator.CustomValidator
}

func NewBookingHandler(bookingUsecase usecase.BookingUsecase, validator *validator.CustomValidator) *BookingHandler {
	return &BookingHandler{
		bookingUsecase: bookingUsecase,
		validator:      validator,
	}
}

// CreateBooking handles POST /booking/create
func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	result, err := h.bookingUsecase.CreateBooking(r.Context(), &req)
	if err != nil {
		switch err {
		case usecase.ErrServiceItemNotFound:
			response.NotFound(w, "Service not found")
		case usecase.ErrPatientNotFound:
			response.NotFound(w, "Patient not found")
		case usecase.ErrServiceUnavailable:
			response.Error(w, http.StatusUnprocessableEntity, "Service is not available for booking", nil)
		case usecase.ErrBookingDateNotFuture, usecase.ErrInvalidBookingDate:
			response.Error(w, http.StatusBadRequest, err.Error(), nil)
		case usecase.ErrBookingNumberConflict:
			response.Conflict(w, "Could not allocate a booking number, try again")
		case usecase.ErrUserNotInContext:
			response.Unauthorized(w, "Invalid token")
		default:
			response.InternalServerError(w, "Failed to create booking")
		}
		return
	}

	response.Success(w, http.StatusCreated, result.Message, result)
}

func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	bookingID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid booking ID", nil)
		return
	}

	booking, err := h.bookingUsecase.GetBooking(r.Context(), bookingID)
	h.writeBooking(w, booking, err)
}

func (h *BookingHandler) GetBookingByNumber(w http.ResponseWriter, r *http.Request) {
	booking, err := h.bookingUsecase.GetBookingByNumber(r.Context(), mux.Vars(r)["booking_number"])
	h.writeBooking(w, booking, err)
}

func (h *BookingHandler) writeBooking(w http.ResponseWriter, booking *dto.BookingResponse, err error) {
	if err != nil {
		if err == usecase.ErrBookingNotFound {
			response.NotFound(w, "Booking not found")
			return
		}
		response.InternalServerError(w, "Failed to get booking")
		return
	}

	response.Success(w, http.StatusOK, "Booking retrieved successfully", dto.BookingEnvelope{Booking: booking})
}

// ListBookings handles GET /bookings with optional status filters and paging.
func (h *BookingHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	req := dto.ListBookingsRequest{
		BookingStatus:  q.Get("booking_status"),
		ApprovalStatus: q.Get("approval_status"),
		PaymentMode:    q.Get("payment_mode"),
		Page:           page,
		Limit:          limit,
	}
	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	result, err := h.bookingUsecase.ListBookings(r.Context(), &req)
	if err != nil {
		response.InternalServerError(w, "Failed to get bookings")
		return
	}

	response.SuccessWithMeta(w, http.StatusOK, "Bookings retrieved successfully", result, response.NewMeta(result.Page, result.Limit, result.Total))
}
