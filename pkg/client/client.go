// Package client is the typed REST client used by the booking console.
// Every call is a single attempt: there are no retries and no idempotency keys.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"facility-booking/pkg/validator"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const DefaultTimeout = 10 * time.Second

// TokenSource supplies the bearer token for each request.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource that always returns the same token.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) {
	return string(t), nil
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	validator  *validator.CustomValidator
	log        logrus.FieldLogger
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) {
		c.tokens = ts
	}
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// New returns a client for the API rooted at baseURL, e.g. http://host:8080/api/v1.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		validator:  validator.NewValidator(),
		log:        logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// =============================================================================
// Booking lifecycle
// =============================================================================

// CreateBooking creates one booking. Without override the result carries the consent OTP.
func (c *Client) CreateBooking(ctx context.Context, in CreateBookingInput) (*CreateBookingResult, error) {
	if err := c.validate(in); err != nil {
		return nil, err
	}
	var out CreateBookingResult
	if err := c.do(ctx, http.MethodPost, "/booking/create", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RequestConsentOTP issues a fresh consent code for a standard booking.
func (c *Client) RequestConsentOTP(ctx context.Context, bookingNumber string) (*OTP, error) {
	in := bookingNumberInput{BookingNumber: bookingNumber}
	if err := c.validate(in); err != nil {
		return nil, err
	}
	var out OTP
	if err := c.do(ctx, http.MethodPost, "/booking/request/consent", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) VerifyConsent(ctx context.Context, bookingNumber, otpCode string) (*ConsentResult, error) {
	in := consentCodeInput{BookingNumber: bookingNumber, OTPCode: otpCode}
	if err := c.validate(in); err != nil {
		return nil, err
	}
	var out ConsentResult
	if err := c.do(ctx, http.MethodPost, "/booking/verify/consent", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RequestOverride issues the override code for an override booking.
func (c *Client) RequestOverride(ctx context.Context, bookingID uuid.UUID) (*OTP, error) {
	in := overrideInput{BookingID: bookingID}
	if err := c.validate(in); err != nil {
		return nil, err
	}
	var out OTP
	if err := c.do(ctx, http.MethodPost, "/request_override", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ValidateOverride(ctx context.Context, bookingNumber, otpCode string) (*ConsentResult, error) {
	in := consentCodeInput{BookingNumber: bookingNumber, OTPCode: otpCode}
	if err := c.validate(in); err != nil {
		return nil, err
	}
	var out ConsentResult
	if err := c.do(ctx, http.MethodPut, "/validate_override", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SetFinanceDecision(ctx context.Context, bookingID uuid.UUID, in FinanceDecisionInput) (*Booking, error) {
	if bookingID == uuid.Nil {
		return nil, &ValidationError{Fields: map[string]string{"id": "id is required"}}
	}
	if err := c.validate(in); err != nil {
		return nil, err
	}
	var out bookingEnvelope
	if err := c.do(ctx, http.MethodPut, "/booking/"+bookingID.String()+"/finance", in, &out); err != nil {
		return nil, err
	}
	return out.Booking, nil
}

func (c *Client) SetApproval(ctx context.Context, in ApprovalInput) (*Booking, error) {
	if err := c.validate(in); err != nil {
		return nil, err
	}
	var out bookingEnvelope
	if err := c.do(ctx, http.MethodPost, "/booking/approval", in, &out); err != nil {
		return nil, err
	}
	return out.Booking, nil
}

func (c *Client) GetBooking(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var out bookingEnvelope
	if err := c.do(ctx, http.MethodGet, "/booking/"+id.String(), nil, &out); err != nil {
		return nil, err
	}
	return out.Booking, nil
}

func (c *Client) GetBookingByNumber(ctx context.Context, bookingNumber string) (*Booking, error) {
	var out bookingEnvelope
	if err := c.do(ctx, http.MethodGet, "/booking/number/"+url.PathEscape(bookingNumber), nil, &out); err != nil {
		return nil, err
	}
	return out.Booking, nil
}

// =============================================================================
// Auth
// =============================================================================

func (c *Client) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	in := loginInput{Email: email, Password: password}
	if err := c.validate(in); err != nil {
		return nil, err
	}
	var out TokenPair
	if err := c.do(ctx, http.MethodPost, "/auth/login", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// =============================================================================
// Helpers
// =============================================================================

func (c *Client) validate(in interface{}) error {
	if err := c.validator.Validate(in); err != nil {
		return &ValidationError{Fields: c.validator.FormatValidationErrors(err)}
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return fmt.Errorf("get token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	log := c.log.WithFields(logrus.Fields{"method": method, "path": path})
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.WithError(err).Warn("request failed")
		return &NetworkError{Op: method + " " + path, Err: unwrapURLError(err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Op: method + " " + path, Err: err}
	}
	log.WithFields(logrus.Fields{"status": resp.StatusCode, "latency": time.Since(start)}).Debug("request done")

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: env.Message, Detail: env.errorDetail()}
		if decodeErr != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if decodeErr != nil {
		return fmt.Errorf("decode response: %w", decodeErr)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

func unwrapURLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}
