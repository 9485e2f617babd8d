package user

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Account roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents one account. The password hash and reset-code fields never
// leave the server.
type User struct {
	ID           uuid.UUID  `json:"id" gorm:"type:char(36);primaryKey;not null"`
	Name         string     `json:"name" gorm:"size:255;not null"`
	Email        string     `json:"email" gorm:"size:255;uniqueIndex;not null"`
	PasswordHash string     `json:"-" gorm:"size:255;not null"`
	Role         string     `json:"role" gorm:"size:16;not null;default:user"`
	IsBlocked    bool       `json:"is_blocked" gorm:"not null;default:false"`
	ResetOTP     string     `json:"-" gorm:"size:16"`
	ResetExpires *time.Time `json:"-"`
	CreatedAt    time.Time  `json:"created_at" gorm:"column:created_at"`
	UpdatedAt    time.Time  `json:"updated_at" gorm:"column:updated_at"`
}

// SetPassword hashes and stores the given plaintext password
func (u *User) SetPassword(plaintext string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// MatchPassword reports whether the plaintext password matches the stored hash
func (u *User) MatchPassword(plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plaintext)) == nil
}

// OTPValid reports whether the given reset code matches and has not expired
func (u *User) OTPValid(otp string, now time.Time) bool {
	if u.ResetOTP == "" || otp == "" || u.ResetOTP != otp {
		return false
	}
	return u.ResetExpires != nil && now.Before(*u.ResetExpires)
}
