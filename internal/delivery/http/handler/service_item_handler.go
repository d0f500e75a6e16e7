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

type ServiceItemHandler struct {
	serviceUsecase usecase.ServiceItemUsecase
	validator      *validator.CustomValidator
}

func NewServiceItemHandler(serviceUsecase usecase.ServiceItemUsecase, validator *validator.CustomValidator) *ServiceItemHandler {
	return &ServiceItemHandler{
		serviceUsecase: serviceUsecase,
		validator:      validator,
	}
}

func (h *ServiceItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateServiceItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	item, err := h.serviceUsecase.Create(r.Context(), &req)
	if err != nil {
		switch err {
		case usecase.ErrSharesUnbalanced, usecase.ErrInvalidPrice:
			response.Error(w, http.StatusBadRequest, err.Error(), nil)
		default:
			response.InternalServerError(w, "Failed to create service")
		}
		return
	}

	response.Success(w, http.StatusCreated, "Service created successfully", item)
}

func (h *ServiceItemHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	items, total, err := h.serviceUsecase.GetAll(r.Context(), page, limit)
	if err != nil {
		response.InternalServerError(w, "Failed to get services")
		return
	}

	response.SuccessWithMeta(w, http.StatusOK, "Services retrieved successfully", items, response.NewMeta(page, limit, total))
}

func (h *ServiceItemHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid service ID", nil)
		return
	}

	item, err := h.serviceUsecase.GetByID(r.Context(), id)
	if err != nil {
		if err == usecase.ErrServiceItemNotFound {
			response.NotFound(w, "Service not found")
			return
		}
		response.InternalServerError(w, "Failed to get service")
		return
	}

	response.Success(w, http.StatusOK, "Service retrieved successfully", item)
}
