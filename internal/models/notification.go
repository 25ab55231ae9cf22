package models

import "time"

type Notification struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"not null;index"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE"`
	Title     string    `gorm:"size:200;not null"`
	Message   string    `gorm:"type:text;not null"`
	Type      string    `gorm:"size:20;not null;default:info"`
	IsRead    bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"index"`
}
