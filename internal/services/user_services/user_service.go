// File: internal/services/user_services/user_service.go
package user_services

import (
	"context"
	"strings"

	"github.com/iyunix/go-lostfound/internal/domain"
	"github.com/iyunix/go-lostfound/internal/repository/user"
)

// UserService composes authentication with profile management.
type UserService struct {
	*AuthService
	userRepo user.UserRepository
	logger   Logger
}

func NewUserService(userRepo user.UserRepository, jwtSecret, adminEmail string, logger Logger) *UserService {
	return &UserService{
		AuthService: NewAuthService(userRepo, jwtSecret, adminEmail, logger),
		userRepo:    userRepo,
		logger:      logger,
	}
}

func (s *UserService) Profile(ctx context.Context, userID string) (*domain.User, error) {
	return s.userRepo.FindByID(ctx, userID)
}

// UpdateFullName changes the display name. An empty name clears it.
func (s *UserService) UpdateFullName(ctx context.Context, userID, fullName string) (*domain.User, error) {
	u, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		u.FullName = nil
	} else {
		u.FullName = &fullName
	}
	if err := u.IsValid(); err != nil {
		return nil, &ValidationError{Field: "full_name", Message: err.Error()}
	}
	if err := s.userRepo.Update(ctx, u); err != nil {
		s.logger.Error("profile update failed", "user_id", userID, "error", err)
		return nil, err
	}
	return u, nil
}
