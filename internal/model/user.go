package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Username     string     `gorm:"size:64;not null;uniqueIndex" json:"username" validate:"required,min=3,max=64"`
	Email        string     `gorm:"size:128;not null;uniqueIndex" json:"email" validate:"required,email,max=128"`
	PasswordHash string     `gorm:"size:255;not null" json:"-"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"-"`
	LastLoginAt  *time.Time `json:"lastLoginDate"`

	// Password carries the plaintext between registration and the create
	// hook. It is never persisted.
	Password string `gorm:"-" json:"-" validate:"required,min=6,bcryptmax"`
}

// Profile is the public projection of a user.
type Profile struct {
	ID            uint       `json:"id"`
	Username      string     `json:"username"`
	Email         string     `json:"email"`
	CreatedAt     time.Time  `json:"createdAt"`
	LastLoginDate *time.Time `json:"lastLoginDate"`
}

func (u *User) Profile() Profile {
	return Profile{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		CreatedAt:     u.CreatedAt,
		LastLoginDate: u.LastLoginAt,
	}
}

// Prepare validates the record and replaces the plaintext password with its
// bcrypt hash. It runs from the create hook.
func (u *User) Prepare() error {
	u.Username = strings.TrimSpace(u.Username)
	u.Email = strings.TrimSpace(u.Email)
	if err := u.Validate(); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return ValidationErrors{{Field: "password", Message: fmt.Sprintf("must be at most %d bytes", MaxPasswordBytes)}}
	}
	if err != nil {
		return fmt.Errorf("hash password failed: %w", err)
	}
	u.PasswordHash = string(hash)
	u.Password = ""
	return nil
}

func (u *User) BeforeCreate(_ *gorm.DB) error {
	return u.Prepare()
}

// CheckPassword reports whether plaintext matches the stored hash.
func (u *User) CheckPassword(plaintext string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plaintext)) == nil
}
