package activity

import (
	"context"
	"fmt"
	"time"

	"visionx-backend/internal/models"

	"gorm.io/gorm"
)

const (
	ActionLogin        = "login"
	ActionStatusChange = "appointment_status"
)

type Entry struct {
	UserID  uint
	Action  string
	Details string
}

// Record appends one activity log row. Callers treat failures as non-fatal.
func Record(ctx context.Context, db *gorm.DB, e Entry) error {
	row := models.ActivityLog{
		UserID:    e.UserID,
		Action:    e.Action,
		Details:   e.Details,
		Timestamp: time.Now(),
	}
	if err := db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("record activity %q: %w", e.Action, err)
	}
	return nil
}
