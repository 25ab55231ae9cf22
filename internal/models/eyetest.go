package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

type EyeTest struct {
	ID         uint                               `gorm:"primaryKey"`
	CustomerID uint                               `gorm:"not null;index"`
	Customer   *Customer                          `gorm:"constraint:OnDelete:RESTRICT"`
	Date       time.Time                          `gorm:"not null;index"`
	Results    datatypes.JSONType[EyeTestResults] `gorm:"not null"`
	ImageURL   string                             `gorm:"type:text"`
}

type EyeReading struct {
	Spherical   string `json:"spherical"`
	Cylindrical string `json:"cylindrical"`
	Axis        string `json:"axis"`
	Dryness     string `json:"dryness"`
}

type EyeTestResults struct {
	LeftEye       EyeReading `json:"left_eye"`
	RightEye      EyeReading `json:"right_eye"`
	Abnormalities []string   `json:"abnormalities"`
	Summary       string     `json:"summary"`
}

// UnmarshalJSON also accepts the results encoded as a JSON string,
// which is how older dashboard builds posted them.
func (r *EyeTestResults) UnmarshalJSON(b []byte) error {
	raw, err := unwrapJSONString(b)
	if err != nil {
		return err
	}
	type plain EyeTestResults
	var p plain
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &p); err != nil {
			return err
		}
	}
	*r = EyeTestResults(p)
	return nil
}

func (r EyeTestResults) IsZero() bool {
	return r.LeftEye == (EyeReading{}) && r.RightEye == (EyeReading{}) &&
		len(r.Abnormalities) == 0 && r.Summary == ""
}
