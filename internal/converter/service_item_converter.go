package converter

import (
	"facility-booking/internal/delivery/dto"
	"facility-booking/internal/domain/entity"
)

func ServiceItemToResponse(item *entity.ServiceItem) *dto.ServiceItemResponse {
	if item == nil {
		return nil
	}

	return &dto.ServiceItemResponse{
		ID:                   item.ID,
		FacilityID:           item.FacilityID,
		VendorID:             item.VendorID,
		LotNumber:            item.LotNumber,
		Name:                 item.Name,
		Price:                item.Price,
		FacilitySharePercent: item.FacilitySharePercent,
		VendorSharePercent:   item.VendorSharePercent,
		IsActive:             item.IsActive,
		CreatedAt:            item.CreatedAt,
		UpdatedAt:            item.UpdatedAt,
	}
}

func ServiceItemsToResponses(items []entity.ServiceItem) []dto.ServiceItemResponse {
	responses := make([]dto.ServiceItemResponse, len(items))
	for i := range items {
		responses[i] = *ServiceItemToResponse(&items[i])
	}
	return responses
}
