package models

type AppointmentStatus string

const (
	AppointmentPending   AppointmentStatus = "pending"
	AppointmentApproved  AppointmentStatus = "approved"
	AppointmentCompleted AppointmentStatus = "completed"
	AppointmentCancelled AppointmentStatus = "cancelled"
)

// Date is YYYY-MM-DD, Time is whatever the front desk typed ("10:00 AM").
type Appointment struct {
	ID         uint              `gorm:"primaryKey"`
	CustomerID uint              `gorm:"not null;index"`
	Customer   *Customer         `gorm:"constraint:OnDelete:RESTRICT"`
	Date       string            `gorm:"size:10;not null;index"`
	Time       string            `gorm:"size:20;not null"`
	Status     AppointmentStatus `gorm:"size:20;not null;default:pending"`
	Notes      string            `gorm:"type:text"`
}
