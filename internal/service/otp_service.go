package service

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"facility-booking/config"
	"facility-booking/internal/domain/entity"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// =============================================================================
// Errors
// =============================================================================

// ErrOTPInvalid covers a wrong code, an expired code and an exhausted code.
// Callers get one recoverable category: re-enter or request a new code.
var ErrOTPInvalid = errors.New("invalid or expired OTP")

// OTPRejection carries why a code was refused. It matches ErrOTPInvalid with errors.Is.
type OTPRejection struct {
	Reason string
}

func (e *OTPRejection) Error() string {
	return ErrOTPInvalid.Error()
}

func (e *OTPRejection) Is(target error) bool {
	return target == ErrOTPInvalid
}

const (
	OTPReasonMismatch  = "mismatch"
	OTPReasonExpired   = "expired"
	OTPReasonExhausted = "exhausted"
)

// issueOTPScript replaces whatever code was active or claimed for the key, so
// a re-issued code invalidates the previous one atomically.
var issueOTPScript = redis.NewScript(`
	redis.call('DEL', KEYS[1], KEYS[2])
	redis.call('HSET', KEYS[1], 'code_hash', ARGV[1], 'expires_at', ARGV[2], 'attempts', 0)
	redis.call('PEXPIRE', KEYS[1], ARGV[3])
	return 1
`)

// verifyOTPScript counts the attempt and claims the code on success. A claimed
// code no longer verifies; Consume drops it and Restore puts it back.
//
// Returns:
//
//	 1 match, key moved to the claim key
//	 0 mismatch, attempt counted
//	-1 no active code (never issued, expired, or already used)
//	-2 attempts exhausted, key deleted
var verifyOTPScript = redis.NewScript(`
	local stored = redis.call('HGET', KEYS[1], 'code_hash')
	if not stored then
		return -1
	end
	local attempts = redis.call('HINCRBY', KEYS[1], 'attempts', 1)
	if attempts > tonumber(ARGV[2]) then
		redis.call('DEL', KEYS[1])
		return -2
	end
	if stored ~= ARGV[1] then
		return 0
	end
	redis.call('RENAME', KEYS[1], KEYS[2])
	return 1
`)

// restoreOTPScript reinstates a claimed code with its remaining TTL and gives
// back the attempt it used. A code issued since the claim wins.
var restoreOTPScript = redis.NewScript(`
	if redis.call('EXISTS', KEYS[2]) == 0 then
		return 0
	end
	if redis.call('EXISTS', KEYS[1]) == 1 then
		redis.call('DEL', KEYS[2])
		return 0
	end
	redis.call('RENAME', KEYS[2], KEYS[1])
	redis.call('HINCRBY', KEYS[1], 'attempts', -1)
	return 1
`)

// =============================================================================
// Constants
// =============================================================================

const (
	RedisOTPKeyPrefix = "otp:"
	claimSuffix       = ":claimed"
)

// =============================================================================
// Types
// =============================================================================

// IssuedOTP is a freshly generated code and the moment it stops being accepted.
type IssuedOTP struct {
	Code      string
	ExpiresAt time.Time
}

// OTPService issues and checks one-time passcodes per booking number and channel.
// Consent and override codes live in separate key spaces.
//
// A successful Verify claims the code. The caller settles the claim with
// Consume once its write is durable, or Restore when the write failed.
type OTPService interface {
	Issue(ctx context.Context, channel entity.ConsentChannel, bookingNumber string) (*IssuedOTP, error)
	Verify(ctx context.Context, channel entity.ConsentChannel, bookingNumber, code string) error
	Consume(ctx context.Context, channel entity.ConsentChannel, bookingNumber string) error
	Restore(ctx context.Context, channel entity.ConsentChannel, bookingNumber string) error
	Revoke(ctx context.Context, channel entity.ConsentChannel, bookingNumber string) error
}

type redisOTPService struct {
	redisClient *redis.Client
	log         *logrus.Logger
	cfg         config.OTPConfig
	now         func() time.Time
}

// =============================================================================
// Constructor
// =============================================================================

func NewOTPService(redisClient *redis.Client, log *logrus.Logger, cfg config.OTPConfig) OTPService {
	if cfg.Length <= 0 {
		cfg.Length = 6
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	return &redisOTPService{
		redisClient: redisClient,
		log:         log,
		cfg:         cfg,
		now:         time.Now,
	}
}

// =============================================================================
// Public Methods
// =============================================================================

// Issue generates a new code for the booking and discards any previous one.
func (s *redisOTPService) Issue(ctx context.Context, channel entity.ConsentChannel, bookingNumber string) (*IssuedOTP, error) {
	code, err := generateNumericCode(s.cfg.Length)
	if err != nil {
		return nil, fmt.Errorf("generate otp: %w", err)
	}

	expiresAt := s.now().Add(s.cfg.TTL)
	key := otpKey(channel, bookingNumber)

	err = issueOTPScript.Run(ctx, s.redisClient, []string{key, key + claimSuffix},
		s.hash(channel, bookingNumber, code),
		strconv.FormatInt(expiresAt.Unix(), 10),
		s.cfg.TTL.Milliseconds(),
	).Err()
	if err != nil {
		s.log.Warnf("Failed to store %s OTP for booking %s: %+v", channel, bookingNumber, err)
		return nil, fmt.Errorf("store otp: %w", err)
	}

	return &IssuedOTP{Code: code, ExpiresAt: expiresAt}, nil
}

// Verify claims the code if it matches. Any refusal is an *OTPRejection.
func (s *redisOTPService) Verify(ctx context.Context, channel entity.ConsentChannel, bookingNumber, code string) error {
	key := otpKey(channel, bookingNumber)

	result, err := verifyOTPScript.Run(ctx, s.redisClient, []string{key, key + claimSuffix},
		s.hash(channel, bookingNumber, code),
		s.cfg.MaxAttempts,
	).Int64()
	if err != nil {
		s.log.Warnf("Failed to verify %s OTP for booking %s: %+v", channel, bookingNumber, err)
		return fmt.Errorf("verify otp: %w", err)
	}

	switch result {
	case 1:
		return nil
	case 0:
		return &OTPRejection{Reason: OTPReasonMismatch}
	case -2:
		return &OTPRejection{Reason: OTPReasonExhausted}
	default:
		return &OTPRejection{Reason: OTPReasonExpired}
	}
}

func (s *redisOTPService) Consume(ctx context.Context, channel entity.ConsentChannel, bookingNumber string) error {
	return s.redisClient.Del(ctx, otpKey(channel, bookingNumber)+claimSuffix).Err()
}

// Restore makes a claimed code verifiable again.
func (s *redisOTPService) Restore(ctx context.Context, channel entity.ConsentChannel, bookingNumber string) error {
	key := otpKey(channel, bookingNumber)
	restored, err := restoreOTPScript.Run(ctx, s.redisClient, []string{key, key + claimSuffix}).Int64()
	if err != nil {
		s.log.Warnf("Failed to restore %s OTP for booking %s: %+v", channel, bookingNumber, err)
		return fmt.Errorf("restore otp: %w", err)
	}
	if restored == 1 {
		s.log.Infof("Restored %s OTP for booking %s", channel, bookingNumber)
	}
	return nil
}

func (s *redisOTPService) Revoke(ctx context.Context, channel entity.ConsentChannel, bookingNumber string) error {
	key := otpKey(channel, bookingNumber)
	return s.redisClient.Del(ctx, key, key+claimSuffix).Err()
}

// =============================================================================
// Helpers
// =============================================================================

func otpKey(channel entity.ConsentChannel, bookingNumber string) string {
	return fmt.Sprintf("%s%s:%s", RedisOTPKeyPrefix, channel, bookingNumber)
}

// hash binds the code to its channel and booking, so a consent code can never
// match an override key even when the digits collide.
func (s *redisOTPService) hash(channel entity.ConsentChannel, bookingNumber, code string) string {
	mac := hmac.New(sha256.New, []byte(s.cfg.Secret))
	fmt.Fprintf(mac, "%s|%s|%s", channel, bookingNumber, code)
	return hex.EncodeToString(mac.Sum(nil))
}

func generateNumericCode(length int) (string, error) {
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", length, n), nil
}
