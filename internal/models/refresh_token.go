package models

import "time"

// RefreshToken stores only the SHA-256 of the token handed to the client.
type RefreshToken struct {
	ID         string    `gorm:"size:36;primaryKey"`
	UserID     uint      `gorm:"not null;index"`
	User       *User     `gorm:"constraint:OnDelete:CASCADE"`
	TokenHash  string    `gorm:"size:64;not null;uniqueIndex"`
	ExpiresAt  time.Time `gorm:"not null"`
	Revoked    bool      `gorm:"not null;default:false"`
	ReplacedBy *string   `gorm:"size:36"`
	CreatedAt  time.Time
}
