package usecase

import (
	"context"
	"io"
	"testing"
	"time"

	"facility-booking/config"
	"facility-booking/internal/delivery/http/middleware"
	"facility-booking/internal/domain/entity"
	"facility-booking/internal/domain/repository"
	"facility-booking/internal/service"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type mockBookingRepo struct{ mock.Mock }

func (m *mockBookingRepo) Create(ctx context.Context, db *gorm.DB, booking *entity.Booking) error {
	args := m.Called(ctx, db, booking)
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockBookingRepo) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Booking, error) {
	args := m.Called(ctx, db, id)
	b, _ := args.Get(0).(*entity.Booking)
	return b, args.Error(1)
}

func (m *mockBookingRepo) FindByNumber(ctx context.Context, db *gorm.DB, bookingNumber string) (*entity.Booking, error) {
	args := m.Called(ctx, db, bookingNumber)
	b, _ := args.Get(0).(*entity.Booking)
	return b, args.Error(1)
}

func (m *mockBookingRepo) List(ctx context.Context, db *gorm.DB, filter repository.BookingFilter) ([]entity.Booking, int64, error) {
	args := m.Called(ctx, db, filter)
	b, _ := args.Get(0).([]entity.Booking)
	return b, args.Get(1).(int64), args.Error(2)
}

func (m *mockBookingRepo) UpdateBookingStatus(ctx context.Context, db *gorm.DB, id uuid.UUID, status entity.BookingStatus, mode entity.PaymentMode) (int64, error) {
	args := m.Called(ctx, db, id, status, mode)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockBookingRepo) UpdateApprovalStatus(ctx context.Context, db *gorm.DB, id uuid.UUID, status entity.ApprovalStatus) (int64, error) {
	args := m.Called(ctx, db, id, status)
	return args.Get(0).(int64), args.Error(1)
}

type mockConsentRepo struct{ mock.Mock }

func (m *mockConsentRepo) Create(ctx context.Context, db *gorm.DB, consent *entity.BookingConsent) error {
	args := m.Called(ctx, db, consent)
	if consent.ID == uuid.Nil {
		consent.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockConsentRepo) FindByBookingID(ctx context.Context, db *gorm.DB, bookingID uuid.UUID) (*entity.BookingConsent, error) {
	args := m.Called(ctx, db, bookingID)
	c, _ := args.Get(0).(*entity.BookingConsent)
	return c, args.Error(1)
}

type mockServiceItemRepo struct{ mock.Mock }

func (m *mockServiceItemRepo) Create(ctx context.Context, db *gorm.DB, item *entity.ServiceItem) error {
	args := m.Called(ctx, db, item)
	return args.Error(0)
}

func (m *mockServiceItemRepo) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.ServiceItem, error) {
	args := m.Called(ctx, db, id)
	s, _ := args.Get(0).(*entity.ServiceItem)
	return s, args.Error(1)
}

func (m *mockServiceItemRepo) FindAll(ctx context.Context, db *gorm.DB, limit, offset int) ([]entity.ServiceItem, int64, error) {
	args := m.Called(ctx, db, limit, offset)
	s, _ := args.Get(0).([]entity.ServiceItem)
	return s, args.Get(1).(int64), args.Error(2)
}

type mockPatientRepo struct{ mock.Mock }

func (m *mockPatientRepo) Create(ctx context.Context, db *gorm.DB, patient *entity.Patient) error {
	args := m.Called(ctx, db, patient)
	return args.Error(0)
}

func (m *mockPatientRepo) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Patient, error) {
	args := m.Called(ctx, db, id)
	p, _ := args.Get(0).(*entity.Patient)
	return p, args.Error(1)
}

type mockUserRepo struct{ mock.Mock }

func (m *mockUserRepo) Create(ctx context.Context, db *gorm.DB, user *entity.User) error {
	args := m.Called(ctx, db, user)
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, db *gorm.DB, email string) (*entity.User, error) {
	args := m.Called(ctx, db, email)
	u, _ := args.Get(0).(*entity.User)
	return u, args.Error(1)
}

func (m *mockUserRepo) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.User, error) {
	args := m.Called(ctx, db, id)
	u, _ := args.Get(0).(*entity.User)
	return u, args.Error(1)
}

type mockAuditService struct{ mock.Mock }

func (m *mockAuditService) LogCreate(ctx context.Context, tx *gorm.DB, userID *uuid.UUID, action string, entityName string, entityID string, newValue interface{}) error {
	return m.Called(ctx, tx, userID, action, entityName, entityID, newValue).Error(0)
}

func (m *mockAuditService) LogUpdate(ctx context.Context, tx *gorm.DB, userID *uuid.UUID, action string, entityName string, entityID string, oldValue, newValue interface{}) error {
	return m.Called(ctx, tx, userID, action, entityName, entityID, oldValue, newValue).Error(0)
}

func (m *mockAuditService) LogEvent(ctx context.Context, tx *gorm.DB, userID *uuid.UUID, action string, metadata entity.JSON) error {
	return m.Called(ctx, tx, userID, action, metadata).Error(0)
}

// acceptAudit makes every audit call succeed.
func acceptAudit() *mockAuditService {
	a := &mockAuditService{}
	a.On("LogCreate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	a.On("LogUpdate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	a.On("LogEvent", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	return a
}

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return db, sqlMock
}

func newTestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func newTestOTPService(t *testing.T) service.OTPService {
	client, _ := newTestRedis(t)
	return service.NewOTPService(client, newTestLogger(), config.OTPConfig{
		Length:      6,
		TTL:         5 * time.Minute,
		MaxAttempts: 3,
		Secret:      "test-secret",
	})
}

func withUser(userID uuid.UUID) context.Context {
	return context.WithValue(context.Background(), middleware.UserIDKey, userID)
}

func wrongCode(code string) string {
	if code[0] == '9' {
		return "0" + code[1:]
	}
	return string(code[0]+1) + code[1:]
}
