package models

import "time"

type ActivityLog struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"not null;index"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE"`
	Action    string    `gorm:"size:100;not null"`
	Details   string    `gorm:"type:text"`
	Timestamp time.Time `gorm:"not null;index"`
}
