package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	log := logrus.New()
	log.SetOutput(io.Discard)

	opts = append([]Option{WithLogger(log), WithTokenSource(StaticToken("tok"))}, opts...)
	return New(srv.URL+"/api/v1", opts...)
}

func writeEnvelope(w http.ResponseWriter, status int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": status < 300,
		"message": message,
		"data":    data,
	})
}

func TestCreateBooking_SerializesBookingDate(t *testing.T) {
	serviceID, patientID := uuid.New(), uuid.New()
	var body map[string]interface{}

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/booking/create", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		writeEnvelope(w, http.StatusCreated, "Booking created", map[string]interface{}{
			"booking": map[string]interface{}{
				"id":              uuid.New(),
				"booking_number":  "BK-20250615-00000A",
				"booking_date":    "2025-06-15 10:30:00",
				"amount":          "1500",
				"booking_status":  "pending",
				"approval_status": "pending",
			},
			"otp_code":    "123456",
			"otp_message": "OTP sent",
			"message":     "Booking created",
		})
	})

	res, err := c.CreateBooking(context.Background(), CreateBookingInput{
		ServiceID:   serviceID,
		PatientID:   patientID,
		PaymentMode: "cash",
		BookingDate: time.Date(2025, 6, 15, 10, 30, 0, 0, time.Local),
	})
	require.NoError(t, err)

	assert.Equal(t, "2025-06-15 10:30:00", body["booking_date"])
	assert.Equal(t, serviceID.String(), body["service_id"])
	assert.Equal(t, false, body["override"])

	require.NotNil(t, res.Booking)
	assert.Equal(t, "BK-20250615-00000A", res.Booking.BookingNumber)
	assert.Equal(t, "123456", res.OTPCode)
	assert.Equal(t, "2025-06-15 10:30:00", res.Booking.BookingDate.String())
	assert.Equal(t, "1500", res.Booking.Amount.String())
}

func TestCreateBooking_ValidationBlocksRequest(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := c.CreateBooking(context.Background(), CreateBookingInput{PaymentMode: "card"})
	require.Error(t, err)
	assert.False(t, called, "no request may be sent when validation fails")

	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Contains(t, validationErr.Fields, "service_id")
	assert.Contains(t, validationErr.Fields, "patient_id")
	assert.Contains(t, validationErr.Fields, "payment_mode")
	assert.Contains(t, validationErr.Fields, "BookingDate")
}

func TestVerifyConsent_ServerMessageVerbatim(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/booking/verify/consent", r.URL.Path)
		writeEnvelope(w, http.StatusUnprocessableEntity, "invalid or expired OTP", nil)
	})

	_, err := c.VerifyConsent(context.Background(), "BK-1", "000000")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Equal(t, "invalid or expired OTP", UserMessage(err))
}

func TestVerifyConsent_Success(t *testing.T) {
	bookingID := uuid.New()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "BK-1", in["booking_number"])
		assert.Equal(t, "123456", in["otp_code"])

		writeEnvelope(w, http.StatusOK, "Consent recorded", map[string]interface{}{
			"message": "Consent recorded",
			"bookingConsent": map[string]interface{}{
				"booking_id":     bookingID,
				"booking_number": "BK-1",
				"channel":        "standard",
			},
		})
	})

	res, err := c.VerifyConsent(context.Background(), "BK-1", "123456")
	require.NoError(t, err)
	require.NotNil(t, res.Consent)
	assert.Equal(t, bookingID, res.Consent.BookingID)
	assert.Equal(t, "standard", res.Consent.Channel)
}

func TestOverrideEndpoints(t *testing.T) {
	bookingID := uuid.New()
	expires := time.Now().Add(5 * time.Minute).UTC().Truncate(time.Second)

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/request_override":
			assert.Equal(t, http.MethodPost, r.Method)
			writeEnvelope(w, http.StatusOK, "sent", map[string]interface{}{
				"otp_code": "654321", "expires_at": expires, "message": "sent",
			})
		case "/api/v1/validate_override":
			assert.Equal(t, http.MethodPut, r.Method)
			writeEnvelope(w, http.StatusOK, "Override validated", map[string]interface{}{
				"message": "Override validated",
			})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})

	otp, err := c.RequestOverride(context.Background(), bookingID)
	require.NoError(t, err)
	assert.Equal(t, "654321", otp.Code)
	assert.True(t, expires.Equal(otp.ExpiresAt))

	res, err := c.ValidateOverride(context.Background(), "BK-1", otp.Code)
	require.NoError(t, err)
	assert.Equal(t, "Override validated", res.Message)
}

func TestSetFinanceDecisionAndApproval(t *testing.T) {
	id := uuid.New()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/booking/" + id.String() + "/finance":
			assert.Equal(t, http.MethodPut, r.Method)
			writeEnvelope(w, http.StatusOK, "ok", map[string]interface{}{
				"booking": map[string]interface{}{"id": id, "booking_status": "confirmed", "approval_status": "pending"},
			})
		case "/api/v1/booking/approval":
			writeEnvelope(w, http.StatusConflict, "booking approval has already been decided", nil)
		}
	})

	b, err := c.SetFinanceDecision(context.Background(), id, FinanceDecisionInput{PaymentMode: "sha", Status: "confirmed"})
	require.NoError(t, err)
	assert.Equal(t, "confirmed", b.BookingStatus)
	assert.Equal(t, "pending", b.ApprovalStatus)

	_, err = c.SetApproval(context.Background(), ApprovalInput{BookingNumber: "BK-1", Decision: "approve"})
	assert.Equal(t, "booking approval has already been decided", UserMessage(err))

	_, err = c.SetApproval(context.Background(), ApprovalInput{BookingNumber: "BK-1", Decision: "maybe"})
	var validationErr *ValidationError
	assert.True(t, errors.As(err, &validationErr))
}

func TestGetBooking_LegacyApprovalKey(t *testing.T) {
	id := uuid.New()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, "ok", map[string]interface{}{
			"booking": map[string]interface{}{"id": id, "approval": "approve"},
		})
	})

	b, err := c.GetBooking(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "approved", b.ApprovalStatus)
}

func TestBookingUnmarshal_PrefersApprovalStatus(t *testing.T) {
	var b Booking
	require.NoError(t, json.Unmarshal([]byte(`{"approval_status":"rejected","approval":"approved"}`), &b))
	assert.Equal(t, "rejected", b.ApprovalStatus)
}

func TestNetworkError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}, WithTimeout(20*time.Millisecond))

	_, err := c.GetBookingByNumber(context.Background(), "BK-1")
	var networkErr *NetworkError
	require.True(t, errors.As(err, &networkErr))
	assert.True(t, networkErr.Timeout())
	assert.Equal(t, MessageNetwork, UserMessage(err))
}

func TestNonJSONErrorBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	})

	_, err := c.Login(context.Background(), "a@b.co", "pw")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusText(http.StatusBadGateway), apiErr.Message)
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "", UserMessage(nil))
	assert.Equal(t, MessageUnexpected, UserMessage(errors.New("boom")))
	assert.Equal(t, MessageUnexpected, UserMessage(&APIError{StatusCode: 500}))
	assert.True(t, strings.HasPrefix(UserMessage(&ValidationError{Fields: map[string]string{"x": "x is required"}}), "validation failed"))
}

func TestBookingDateRoundTrip(t *testing.T) {
	d := BookingDate(time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC))
	raw, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2025-06-15 10:30:00"`, string(raw))

	var back BookingDate
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.True(t, d.Time().Equal(back.Time()))

	require.NoError(t, json.Unmarshal([]byte(`"2025-06-15T10:30:00+07:00"`), &back))
	assert.Equal(t, 3, back.Time().UTC().Hour())
}
