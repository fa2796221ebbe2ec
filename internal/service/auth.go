package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/sairamarava/CodeTogether/internal/domain"
	"github.com/sairamarava/CodeTogether/internal/repository"
)

// AuthService registers accounts and issues JWTs.
type AuthService struct {
	users       repository.UserRepository
	jwtSecret   []byte
	tokenExpiry time.Duration
}

func NewAuthService(users repository.UserRepository, jwtSecret string, expiryHours int) (*AuthService, error) {
	if users == nil {
		return nil, errors.New("UserRepository cannot be nil for AuthService")
	}
	if jwtSecret == "" {
		return nil, errors.New("JWT secret cannot be empty")
	}
	if expiryHours <= 0 {
		expiryHours = 24
	}
	return &AuthService{
		users:       users,
		jwtSecret:   []byte(jwtSecret),
		tokenExpiry: time.Duration(expiryHours) * time.Hour,
	}, nil
}

// Register creates an account with a bcrypt-hashed password. The returned
// user has its password hash cleared.
func (s *AuthService) Register(ctx context.Context, username, password, email string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || len(password) < 6 {
		return nil, ErrValidation
	}

	if _, err := s.users.FindByUsername(ctx, username); err == nil {
		return nil, ErrRegistrationFailed
	} else if !errors.Is(err, repository.ErrNotFound) {
		logrus.WithError(err).Error("Failed to check username availability")
		return nil, ErrInternalServer
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrInternalServer
	}
	user := &domain.User{Username: username, Email: email, Password: string(hash)}
	if err := s.users.Save(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			return nil, ErrRegistrationFailed
		}
		logrus.WithError(err).Error("Failed to save new user")
		return nil, ErrInternalServer
	}
	user.Password = ""
	return user, nil
}

// Login verifies credentials and returns a signed token.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, ErrAuthenticationFailed
		}
		return "", nil, ErrInternalServer
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, ErrAuthenticationFailed
	}

	claims := jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"exp":      time.Now().Add(s.tokenExpiry).Unix(),
		"iat":      time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	user.Password = ""
	return signed, user, nil
}
