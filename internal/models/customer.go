package models

import "time"

type Customer struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:150;not null"`
	Email     string `gorm:"size:150"`
	Phone     string `gorm:"size:50"`
	Address   string `gorm:"size:255"`
	Age       *int
	Gender    string    `gorm:"size:20"`
	CreatedAt time.Time `gorm:"index"`
}
