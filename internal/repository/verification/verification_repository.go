// File: internal/repository/verification/verification_repository.go
package verification

import (
	"context"
	"errors"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/iyunix/go-lostfound/internal/domain"
)

var ErrCodeNotFound = errors.New("verification code not found")

// VerificationRepository stores emailed one-time codes.
type VerificationRepository interface {
	Create(ctx context.Context, code *domain.VerificationCode) error
	// FindLatest returns the newest unused code of codeType for email.
	FindLatest(ctx context.Context, email string, codeType domain.VerificationCodeType) (*domain.VerificationCode, error)
	Update(ctx context.Context, code *domain.VerificationCode) error
	DeleteByEmail(ctx context.Context, email string, codeType domain.VerificationCodeType) error
	// DeleteExpired removes codes that expired before cutoff and reports how many.
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

type gormVerificationRepository struct {
	db *gorm.DB
}

func NewGormVerificationRepository(db *gorm.DB) VerificationRepository {
	return &gormVerificationRepository{db: db}
}

func (r *gormVerificationRepository) Create(ctx context.Context, code *domain.VerificationCode) error {
	if code.Email == "" || code.CodeHash == "" {
		return errors.New("email and code are required")
	}
	if err := r.db.WithContext(ctx).Create(code).Error; err != nil {
		log.Printf("[VerificationRepository] Database error during code creation: %v", err)
		return errors.New("database error creating verification code")
	}
	return nil
}

func (r *gormVerificationRepository) FindLatest(ctx context.Context, email string, codeType domain.VerificationCodeType) (*domain.VerificationCode, error) {
	var code domain.VerificationCode
	err := r.db.WithContext(ctx).
		Where("email = ? AND type = ? AND is_used = ?", email, codeType, false).
		Order("created_at DESC").
		First(&code).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCodeNotFound
		}
		log.Printf("[VerificationRepository] Database error finding code: %v", err)
		return nil, errors.New("database error finding verification code")
	}
	return &code, nil
}

func (r *gormVerificationRepository) Update(ctx context.Context, code *domain.VerificationCode) error {
	if code.ID == "" {
		return errors.New("invalid verification code ID")
	}
	return r.db.WithContext(ctx).Save(code).Error
}

func (r *gormVerificationRepository) DeleteByEmail(ctx context.Context, email string, codeType domain.VerificationCodeType) error {
	return r.db.WithContext(ctx).
		Where("email = ? AND type = ?", email, codeType).
		Delete(&domain.VerificationCode{}).Error
}

func (r *gormVerificationRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ?", cutoff).
		Delete(&domain.VerificationCode{})
	return res.RowsAffected, res.Error
}
