// File: internal/services/user_services/verification_service.go
package user_services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/iyunix/go-lostfound/internal/auth"
	"github.com/iyunix/go-lostfound/internal/domain"
	"github.com/iyunix/go-lostfound/internal/repository/user"
	"github.com/iyunix/go-lostfound/internal/repository/verification"
)

const (
	CodeExpiry     = 10 * time.Minute
	CodeResendWait = time.Minute
)

// CodeSender delivers a freshly issued code to the address it was issued for.
type CodeSender interface {
	SendCode(ctx context.Context, email string, purpose domain.VerificationCodeType, code string) error
}

// LogCodeSender writes codes to the service log. Meant for development.
type LogCodeSender struct {
	Logger Logger
}

func (s LogCodeSender) SendCode(_ context.Context, email string, purpose domain.VerificationCodeType, code string) error {
	s.Logger.Info("verification code issued", "email", email, "purpose", string(purpose), "code", code)
	return nil
}

// VerificationService handles emailed one-time codes for passwordless login
// and password resets.
type VerificationService struct {
	userRepo user.UserRepository
	codes    verification.VerificationRepository
	sender   CodeSender
	auth     *AuthService
	logger   Logger
	now      func() time.Time
}

func NewVerificationService(
	userRepo user.UserRepository,
	codes verification.VerificationRepository,
	sender CodeSender,
	authService *AuthService,
	logger Logger,
) *VerificationService {
	return &VerificationService{
		userRepo: userRepo,
		codes:    codes,
		sender:   sender,
		auth:     authService,
		logger:   logger,
		now:      time.Now,
	}
}

// RequestLoginCode emails a sign-in code. Accounts are created on first
// successful verification, so unknown addresses get a code too.
func (s *VerificationService) RequestLoginCode(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if err := (&domain.User{Email: email}).IsValid(); err != nil {
		return &ValidationError{Field: "email", Message: err.Error()}
	}
	return s.issue(ctx, email, domain.VerificationTypeLogin)
}

// VerifyLoginCode consumes a sign-in code and returns the user and a token.
func (s *VerificationService) VerifyLoginCode(ctx context.Context, email, code string) (*domain.User, string, error) {
	email = normalizeEmail(email)
	if err := s.consume(ctx, email, domain.VerificationTypeLogin, code); err != nil {
		return nil, "", err
	}

	u, err := s.userRepo.FindByEmail(ctx, email)
	if errors.Is(err, user.ErrUserNotFound) {
		u, err = s.userRepo.Create(ctx, &domain.User{
			Email:   email,
			IsAdmin: s.auth.adminEmail != "" && email == s.auth.adminEmail,
		})
		if err == nil {
			s.logger.Info("user created from login code", "user_id", u.ID, "is_admin", u.IsAdmin)
		}
	}
	if err != nil {
		s.logger.Error("login code user lookup failed", "email", maskEmail(email), "error", err)
		return nil, "", fmt.Errorf("failed to load user: %w", err)
	}

	token, err := auth.GenerateJWT(u.ID, u.Email, u.IsAdmin, s.auth.jwtSecretKey)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}
	s.logger.Info("login code accepted", "user_id", u.ID)
	return u, token, nil
}

// RequestPasswordReset emails a reset code. Unknown addresses succeed
// silently so the endpoint does not reveal which accounts exist.
func (s *VerificationService) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if _, err := s.userRepo.FindByEmail(ctx, email); err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			s.logger.Info("password reset requested for unknown email", "email", maskEmail(email))
			return nil
		}
		return fmt.Errorf("failed to load user: %w", err)
	}
	return s.issue(ctx, email, domain.VerificationTypePassword)
}

// ResetPassword checks the code and replaces the account password.
func (s *VerificationService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	email = normalizeEmail(email)
	u, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return ErrInvalidCode
		}
		return fmt.Errorf("failed to load user: %w", err)
	}
	if err := u.HashPassword(newPassword); err != nil {
		return &ValidationError{Field: "password", Message: err.Error()}
	}
	if err := s.consume(ctx, email, domain.VerificationTypePassword, code); err != nil {
		return err
	}
	if err := s.userRepo.Update(ctx, u); err != nil {
		s.logger.Error("password update failed", "user_id", u.ID, "error", err)
		return fmt.Errorf("failed to update password: %w", err)
	}
	s.logger.Info("password reset completed", "user_id", u.ID)
	return nil
}

// PurgeExpired drops codes that can no longer be used.
func (s *VerificationService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.codes.DeleteExpired(ctx, s.now())
}

func (s *VerificationService) issue(ctx context.Context, email string, purpose domain.VerificationCodeType) error {
	now := s.now()
	if latest, err := s.codes.FindLatest(ctx, email, purpose); err == nil {
		if now.Sub(latest.CreatedAt) < CodeResendWait {
			s.logger.Warn("code requested too soon", "email", maskEmail(email), "purpose", string(purpose))
			return ErrCodeTooSoon
		}
	} else if !errors.Is(err, verification.ErrCodeNotFound) {
		return err
	}

	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("failed to generate code: %w", err)
	}
	if err := s.codes.DeleteByEmail(ctx, email, purpose); err != nil {
		return err
	}
	v := &domain.VerificationCode{
		Email:       email,
		Type:        purpose,
		ExpiresAt:   now.Add(CodeExpiry),
		MaxAttempts: domain.DefaultMaxCodeAttempts,
		CreatedAt:   now,
	}
	if err := v.SetCode(code); err != nil {
		return fmt.Errorf("failed to hash code: %w", err)
	}
	if err := s.codes.Create(ctx, v); err != nil {
		return err
	}
	if err := s.sender.SendCode(ctx, email, purpose, code); err != nil {
		s.logger.Error("code delivery failed", "email", maskEmail(email), "error", err)
		return fmt.Errorf("failed to send code: %w", err)
	}
	s.logger.Info("verification code sent", "email", maskEmail(email), "purpose", string(purpose))
	return nil
}

func (s *VerificationService) consume(ctx context.Context, email string, purpose domain.VerificationCodeType, code string) error {
	v, err := s.codes.FindLatest(ctx, email, purpose)
	if err != nil {
		if errors.Is(err, verification.ErrCodeNotFound) {
			return ErrInvalidCode
		}
		return err
	}
	now := s.now()
	if !v.IsValid(now) {
		return ErrInvalidCode
	}
	if !v.Matches(strings.TrimSpace(code)) {
		v.IncrementAttempt()
		if err := s.codes.Update(ctx, v); err != nil {
			return err
		}
		s.logger.Warn("wrong verification code", "email", maskEmail(email), "attempts", v.Attempts)
		return ErrInvalidCode
	}
	v.UseCode(now)
	return s.codes.Update(ctx, v)
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
