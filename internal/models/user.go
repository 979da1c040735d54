package models

import (
	"time"
)

// User represents a registered customer.
type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string    `gorm:"not null" json:"name"`
	Email        string    `gorm:"not null;uniqueIndex" json:"email"`
	Phone        string    `gorm:"not null;index" json:"phone"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// OTPChallenge is the single outstanding one-time code for a phone number.
type OTPChallenge struct {
	Phone     string    `gorm:"primaryKey" json:"phone"`
	Code      string    `gorm:"not null" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired reports whether the challenge is past its expiry at now.
func (c *OTPChallenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// Visitor is one logged API request.
type Visitor struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"-"`
	IP        string    `gorm:"not null" json:"ip"`
	UserAgent string    `gorm:"not null" json:"user_agent"`
	VisitedAt time.Time `gorm:"not null;index" json:"visited_at"`
}
