package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sairamarava/CodeTogether/internal/domain"
	"github.com/sairamarava/CodeTogether/internal/repository"
	"github.com/sairamarava/CodeTogether/internal/repository/mocks"
	"github.com/sairamarava/CodeTogether/internal/service"
)

func TestAuthService_Register_Success(t *testing.T) {
	// Arrange
	userRepo := new(mocks.UserRepository)
	auth, err := service.NewAuthService(userRepo, "very-secret-key", 1)
	require.NoError(t, err)
	ctx := context.Background()

	userRepo.On("FindByUsername", ctx, "newbie").
		Return(nil, repository.ErrUserNotFound).Once()
	var savedHash string
	userRepo.On("Save", ctx, mock.MatchedBy(func(u *domain.User) bool {
		return u.Username == "newbie"
	})).Run(func(args mock.Arguments) {
		u := args.Get(1).(*domain.User)
		savedHash = u.Password
		u.ID = 5
	}).Return(nil).Once()

	// Act
	user, err := auth.Register(ctx, "newbie", "StrongPass123", "newbie@example.com")

	// Assert
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(savedHash), []byte("StrongPass123")),
		"password must be stored hashed")
	assert.Equal(t, uint(5), user.ID)
	assert.Empty(t, user.Password, "hash never leaves the service")
	userRepo.AssertExpectations(t)
}

func TestAuthService_Register_UsernameTaken(t *testing.T) {
	userRepo := new(mocks.UserRepository)
	auth, _ := service.NewAuthService(userRepo, "secret", 1)
	ctx := context.Background()

	userRepo.On("FindByUsername", ctx, "existing").
		Return(&domain.User{ID: 10, Username: "existing"}, nil).Once()

	_, err := auth.Register(ctx, "existing", "password", "e@test.com")

	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrRegistrationFailed))
	userRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestAuthService_Register_ShortPassword(t *testing.T) {
	userRepo := new(mocks.UserRepository)
	auth, _ := service.NewAuthService(userRepo, "secret", 1)

	_, err := auth.Register(context.Background(), "user", "tiny", "e@test.com")

	assert.True(t, errors.Is(err, service.ErrValidation))
}

func TestAuthService_Login_Success(t *testing.T) {
	userRepo := new(mocks.UserRepository)
	secret := "very-secret-key"
	auth, _ := service.NewAuthService(userRepo, secret, 1)
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("StrongPass123"), bcrypt.DefaultCost)
	require.NoError(t, err)
	userRepo.On("FindByUsername", ctx, "ana").
		Return(&domain.User{ID: 7, Username: "ana", Password: string(hash)}, nil).Once()

	token, user, err := auth.Login(ctx, "ana", "StrongPass123")

	require.NoError(t, err)
	assert.Empty(t, user.Password)

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, float64(7), claims["user_id"])
	assert.Equal(t, "ana", claims["username"])
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	userRepo := new(mocks.UserRepository)
	auth, _ := service.NewAuthService(userRepo, "secret", 1)
	ctx := context.Background()

	hash, _ := bcrypt.GenerateFromPassword([]byte("correct"), bcrypt.DefaultCost)
	userRepo.On("FindByUsername", ctx, "ana").
		Return(&domain.User{ID: 7, Username: "ana", Password: string(hash)}, nil).Once()

	_, _, err := auth.Login(ctx, "ana", "wrong")

	assert.True(t, errors.Is(err, service.ErrAuthenticationFailed))
}

func TestAuthService_Login_UnknownUser(t *testing.T) {
	userRepo := new(mocks.UserRepository)
	auth, _ := service.NewAuthService(userRepo, "secret", 1)
	ctx := context.Background()

	userRepo.On("FindByUsername", ctx, "ghost").
		Return(nil, repository.ErrUserNotFound).Once()

	_, _, err := auth.Login(ctx, "ghost", "whatever")

	assert.True(t, errors.Is(err, service.ErrAuthenticationFailed),
		"unknown user and wrong password are indistinguishable")
}
