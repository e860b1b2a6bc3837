// File: internal/services/user_services/auth_service.go
package user_services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iyunix/go-lostfound/internal/auth"
	"github.com/iyunix/go-lostfound/internal/domain"
	"github.com/iyunix/go-lostfound/internal/repository/user"
)

type AuthService struct {
	userRepo     user.UserRepository
	jwtSecretKey []byte
	adminEmail   string
	logger       Logger
}

func NewAuthService(userRepo user.UserRepository, jwtSecretKey, adminEmail string, logger Logger) *AuthService {
	return &AuthService{
		userRepo:     userRepo,
		jwtSecretKey: []byte(jwtSecretKey),
		adminEmail:   strings.ToLower(strings.TrimSpace(adminEmail)),
		logger:       logger,
	}
}

// Register creates a profile. The account whose email matches the configured
// admin email becomes an administrator.
func (s *AuthService) Register(ctx context.Context, email, password, fullName string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	fullName = strings.TrimSpace(fullName)

	u := &domain.User{Email: email}
	if fullName != "" {
		u.FullName = &fullName
	}
	if err := u.IsValid(); err != nil {
		return nil, &ValidationError{Field: "email", Message: err.Error()}
	}
	if err := u.HashPassword(password); err != nil {
		return nil, &ValidationError{Field: "password", Message: err.Error()}
	}
	u.IsAdmin = s.adminEmail != "" && email == s.adminEmail

	s.logger.Info("user registration attempt", "email", maskEmail(email))

	created, err := s.userRepo.Create(ctx, u)
	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			s.logger.Warn("registration failed - email already exists", "email", maskEmail(email))
			return nil, ErrEmailTaken
		}
		s.logger.Error("user creation failed", "email", maskEmail(email), "error", err)
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user registered successfully", "user_id", created.ID, "is_admin", created.IsAdmin)
	return created, nil
}

// Login authenticates a user and returns a JWT token
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		s.logger.Warn("login attempt with empty credentials",
			"has_email", email != "",
			"has_password", password != "")
		return nil, "", ErrInvalidCredentials
	}

	u, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, user.ErrUserNotFound) {
			s.logger.Error("login lookup failed", "email", maskEmail(email), "error", err)
			return nil, "", fmt.Errorf("failed to load user: %w", err)
		}
		s.logger.Warn("login failed - user not found", "email", maskEmail(email))
		return nil, "", ErrInvalidCredentials
	}
	if err := u.ValidatePassword(password); err != nil {
		s.logger.Warn("login failed - invalid password", "user_id", u.ID)
		return nil, "", ErrInvalidCredentials
	}

	token, err := auth.GenerateJWT(u.ID, u.Email, u.IsAdmin, s.jwtSecretKey)
	if err != nil {
		s.logger.Error("JWT token generation failed", "user_id", u.ID, "error", err)
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	s.logger.Info("login successful", "user_id", u.ID, "is_admin", u.IsAdmin)
	return u, token, nil
}

// ValidateToken resolves a bearer token to its claims.
func (s *AuthService) ValidateToken(tokenString string) (*auth.Claims, error) {
	claims, err := auth.ValidateToken(tokenString, s.jwtSecretKey)
	if err != nil {
		s.logger.Debug("JWT token validation failed", "error", err)
		return nil, err
	}
	return claims, nil
}
