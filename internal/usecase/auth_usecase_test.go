package usecase

import (
	"context"
	"testing"
	"time"

	"facility-booking/config"
	"facility-booking/internal/delivery/dto"
	"facility-booking/internal/domain/entity"
	"facility-booking/pkg/jwt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuthFixture(t *testing.T) (AuthUsecase, *mockUserRepo, *jwt.JWTService, *entity.User, func(string) bool) {
	t.Helper()

	db, _ := newMockDB(t)
	redisClient, mr := newTestRedis(t)
	jwtService := jwt.NewJWTService(config.JWTConfig{Secret: "secret", AccessExpiry: time.Minute, RefreshExpiry: time.Hour})
	repo := &mockUserRepo{}

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &entity.User{
		ID:       uuid.New(),
		Email:    "finance@example.com",
		Password: string(hash),
		Role:     entity.RoleFacilityFinance,
		IsActive: true,
	}
	repo.On("FindByEmail", mock.Anything, mock.Anything, user.Email).Return(user, nil)

	uc := NewAuthUsecase(db, newTestLogger(), repo, acceptAudit(), jwtService, redisClient)
	return uc, repo, jwtService, user, mr.Exists
}

func TestLogin_IssuesTrackedTokensWithRole(t *testing.T) {
	uc, _, jwtService, user, exists := newAuthFixture(t)

	tokens, err := uc.Login(context.Background(), &dto.LoginRequest{Email: "Finance@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, int64(60), tokens.ExpiresIn)

	claims, err := jwtService.ValidateToken(tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleFacilityFinance, claims.Role)
	assert.True(t, exists(accessTokenKey(user.ID, claims.TokenID)))
}

func TestLogin_InvalidCredentials(t *testing.T) {
	uc, repo, _, user, _ := newAuthFixture(t)
	repo.On("FindByEmail", mock.Anything, mock.Anything, "ghost@example.com").Return(nil, nil)

	_, err := uc.Login(context.Background(), &dto.LoginRequest{Email: user.Email, Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = uc.Login(context.Background(), &dto.LoginRequest{Email: "ghost@example.com", Password: "whatever"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	user.IsActive = false
	_, err = uc.Login(context.Background(), &dto.LoginRequest{Email: user.Email, Password: "s3cret-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshToken_RotatesAndRevokes(t *testing.T) {
	uc, _, jwtService, user, exists := newAuthFixture(t)

	tokens, err := uc.Login(context.Background(), &dto.LoginRequest{Email: user.Email, Password: "s3cret-pass"})
	require.NoError(t, err)
	oldRefresh, err := jwtService.ValidateToken(tokens.RefreshToken)
	require.NoError(t, err)

	rotated, err := uc.RefreshToken(context.Background(), &dto.RefreshTokenRequest{RefreshToken: tokens.RefreshToken})
	require.NoError(t, err)
	assert.False(t, exists(refreshTokenKey(user.ID, oldRefresh.TokenID)))

	_, err = uc.RefreshToken(context.Background(), &dto.RefreshTokenRequest{RefreshToken: tokens.RefreshToken})
	assert.ErrorIs(t, err, ErrTokenRevoked, "a used refresh token cannot be replayed")

	_, err = uc.RefreshToken(context.Background(), &dto.RefreshTokenRequest{RefreshToken: rotated.AccessToken})
	assert.ErrorIs(t, err, ErrInvalidToken, "access tokens cannot refresh")
}

func TestLogout_DeletesTokens(t *testing.T) {
	uc, _, jwtService, user, exists := newAuthFixture(t)

	tokens, err := uc.Login(context.Background(), &dto.LoginRequest{Email: user.Email, Password: "s3cret-pass"})
	require.NoError(t, err)
	access, _ := jwtService.ValidateToken(tokens.AccessToken)
	refresh, _ := jwtService.ValidateToken(tokens.RefreshToken)

	require.NoError(t, uc.Logout(context.Background(), user.ID, access.TokenID, refresh.TokenID))
	assert.False(t, exists(accessTokenKey(user.ID, access.TokenID)))
	assert.False(t, exists(refreshTokenKey(user.ID, refresh.TokenID)))
}

func TestGetCurrentUser_IncludesPermissions(t *testing.T) {
	uc, repo, _, user, _ := newAuthFixture(t)
	repo.On("FindByID", mock.Anything, mock.Anything, user.ID).Return(user, nil)

	resp, err := uc.GetCurrentUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "facility_finance", resp.Role)
	assert.Contains(t, resp.Permissions, "booking:finance_approve")
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	db, sqlMock := newMockDB(t)
	redisClient, _ := newTestRedis(t)
	repo := &mockUserRepo{}
	uc := NewAuthUsecase(db, newTestLogger(), repo, acceptAudit(), jwt.NewJWTService(config.JWTConfig{Secret: "s"}), redisClient)

	repo.On("Create", mock.Anything, mock.Anything, mock.Anything).
		Return(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	sqlMock.ExpectBegin()
	sqlMock.ExpectRollback()

	_, err := uc.CreateUser(context.Background(), &dto.CreateUserRequest{
		Email:    "dup@example.com",
		Password: "long-enough",
		FullName: "Dup User",
		Role:     "facility_user",
	})
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestCreateUser_UnknownRole(t *testing.T) {
	db, _ := newMockDB(t)
	redisClient, _ := newTestRedis(t)
	uc := NewAuthUsecase(db, newTestLogger(), &mockUserRepo{}, acceptAudit(), jwt.NewJWTService(config.JWTConfig{Secret: "s"}), redisClient)

	_, err := uc.CreateUser(context.Background(), &dto.CreateUserRequest{Email: "a@example.com", Password: "long-enough", FullName: "A", Role: "janitor"})
	assert.ErrorIs(t, err, ErrRoleNotFound)
}
