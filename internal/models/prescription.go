package models

// Prescription values are kept as the optometrist entered them ("-1.25", "180").
// OD is the right eye, OS the left.
type Prescription struct {
	ID          uint      `gorm:"primaryKey"`
	CustomerID  uint      `gorm:"not null;index"`
	Customer    *Customer `gorm:"constraint:OnDelete:RESTRICT"`
	Date        string    `gorm:"size:10;not null"`
	SphOD       string    `gorm:"column:sph_od;size:10"`
	CylOD       string    `gorm:"column:cyl_od;size:10"`
	AxisOD      string    `gorm:"column:axis_od;size:10"`
	SphOS       string    `gorm:"column:sph_os;size:10"`
	CylOS       string    `gorm:"column:cyl_os;size:10"`
	AxisOS      string    `gorm:"column:axis_os;size:10"`
	AddPower    string    `gorm:"size:10"`
	PD          string    `gorm:"column:pd;size:10"`
	DoctorNotes string    `gorm:"type:text"`
}
