// File: internal/domain/verification_code.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// VerificationCodeType defines different types of verification codes
type VerificationCodeType string

const (
	VerificationTypeLogin    VerificationCodeType = "login_otp"
	VerificationTypePassword VerificationCodeType = "password_reset"
)

const DefaultMaxCodeAttempts = 5

// VerificationCode is a short-lived emailed code. Only its bcrypt hash is
// stored.
type VerificationCode struct {
	ID       string               `gorm:"primaryKey;size:36"`
	Email    string               `gorm:"index:idx_verification_email_type,priority:1;not null"`
	Type     VerificationCodeType `gorm:"index:idx_verification_email_type,priority:2;not null;size:20"`
	CodeHash string               `gorm:"not null"`

	// Security and rate limiting
	ExpiresAt   time.Time `gorm:"index;not null"`
	Attempts    int       `gorm:"not null;default:0"`
	MaxAttempts int       `gorm:"not null;default:5"`

	// Usage tracking
	UsedAt *time.Time
	IsUsed bool `gorm:"not null;default:false"`

	CreatedAt time.Time
}

func (VerificationCode) TableName() string { return "verification_codes" }

func (v *VerificationCode) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}

// SetCode stores the hash of code.
func (v *VerificationCode) SetCode(code string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	v.CodeHash = string(hashed)
	return nil
}

// Matches compares code with the stored hash.
func (v *VerificationCode) Matches(code string) bool {
	return bcrypt.CompareHashAndPassword([]byte(v.CodeHash), []byte(code)) == nil
}

// IsValid checks if the verification code is still valid
func (v *VerificationCode) IsValid(now time.Time) bool {
	return v.CanAttempt() && now.Before(v.ExpiresAt)
}

// CanAttempt checks if more attempts are allowed
func (v *VerificationCode) CanAttempt() bool {
	return v.Attempts < v.MaxAttempts && !v.IsUsed
}

// UseCode marks the code as used
func (v *VerificationCode) UseCode(now time.Time) {
	v.IsUsed = true
	v.UsedAt = &now
}

func (v *VerificationCode) IncrementAttempt() {
	v.Attempts++
}
