package converter

import (
	"testing"
	"time"

	"facility-booking/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingToResponse_WireDate(t *testing.T) {
	booking := &entity.Booking{
		ID:             uuid.New(),
		BookingNumber:  "BK-20250615-ABC123",
		PaymentMode:    entity.PaymentModeSHA,
		BookingDate:    time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC),
		Amount:         decimal.RequireFromString("1500"),
		BookingStatus:  entity.BookingStatusPending,
		ApprovalStatus: entity.ApprovalStatusPending,
		ServiceStatus:  entity.ServiceStatusNotStarted,
	}

	resp := BookingToResponse(booking)
	require.NotNil(t, resp)
	assert.Equal(t, "2025-06-15 10:30:00", resp.BookingDate)
	assert.Equal(t, "sha", resp.PaymentMode)
	assert.Equal(t, "pending", resp.ApprovalStatus)
	assert.Nil(t, BookingToResponse(nil))
}

func TestUserToProfileResponse_Permissions(t *testing.T) {
	user := &entity.User{ID: uuid.New(), Email: "fin@example.com", Role: entity.RoleFacilityFinance}

	resp := UserToProfileResponse(user)
	require.NotNil(t, resp)
	assert.Equal(t, "facility_finance", resp.Role)
	assert.Contains(t, resp.Permissions, string(entity.PermBookingFinanceApprove))
	assert.NotContains(t, resp.Permissions, string(entity.PermBookingCreate))

	assert.Empty(t, UserToResponse(user).Permissions)
}

func TestAuditLogsToResponses_WithoutUser(t *testing.T) {
	logs := []entity.AuditLog{{ID: 1, Action: entity.AuditActionBookingCreate}}

	resp := AuditLogsToResponses(logs)
	require.Len(t, resp, 1)
	assert.Nil(t, resp[0].User)
	assert.Equal(t, "booking.create", resp[0].Action)
}
