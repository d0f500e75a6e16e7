package dto

import (
	"time"

	"facility-booking/internal/domain/entity"
)

// Request DTOs

// ListAuditLogsRequest filters GET /audit-logs. An action ending in "."
// selects a whole family, e.g. "booking.".
type ListAuditLogsRequest struct {
	Action   string `validate:"omitempty,max=100"`
	Entity   string `validate:"omitempty,oneof=booking booking_consent patient service_item user"`
	EntityID string `validate:"omitempty,max=64"`
	UserID   string `validate:"omitempty,uuid"`
	Page     int    `validate:"gte=0"`
	Limit    int    `validate:"gte=0,lte=100"`
}

// Response DTOs

type AuditLogResponse struct {
	ID        int64         `json:"id"`
	User      *UserResponse `json:"user,omitempty"`
	Action    string        `json:"action"`
	Metadata  entity.JSON   `json:"metadata"`
	CreatedAt time.Time     `json:"created_at"`
}

type AuditLogListResponse struct {
	Logs  []AuditLogResponse `json:"logs"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}
