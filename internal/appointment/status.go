package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"visionx-backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrInvalidStatus = errors.New("invalid appointment status")
	ErrTransition    = errors.New("appointment status transition not allowed")
	ErrNotFound      = errors.New("appointment not found")
)

const (
	ModePermissive = "permissive"
	ModeStrict     = "strict"
)

var transitions = map[models.AppointmentStatus][]models.AppointmentStatus{
	models.AppointmentPending:  {models.AppointmentApproved, models.AppointmentCancelled},
	models.AppointmentApproved: {models.AppointmentCompleted, models.AppointmentCancelled},
}

func ParseStatus(s string) (models.AppointmentStatus, error) {
	st := models.AppointmentStatus(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case models.AppointmentPending, models.AppointmentApproved,
		models.AppointmentCompleted, models.AppointmentCancelled:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// CanTransition reports whether the strict graph allows from -> to.
// Re-applying the current status is always allowed.
func CanTransition(from, to models.AppointmentStatus) bool {
	if from == to {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type StatusChange struct {
	ID      uint
	From    models.AppointmentStatus
	To      models.AppointmentStatus
	Changed bool
}

type StatusUpdater struct {
	db     *gorm.DB
	strict bool
}

func NewStatusUpdater(db *gorm.DB, mode string) *StatusUpdater {
	return &StatusUpdater{db: db, strict: mode == ModeStrict}
}

// Update sets the status of appointment id. In permissive mode a missing
// appointment is a silent no-op; in strict mode it is ErrNotFound.
func (u *StatusUpdater) Update(ctx context.Context, id uint, to models.AppointmentStatus) (*StatusChange, error) {
	db := u.db.WithContext(ctx)
	change := &StatusChange{ID: id, To: to}

	if !u.strict {
		res := db.Model(&models.Appointment{}).Where("id = ?", id).Update("status", to)
		if res.Error != nil {
			return nil, fmt.Errorf("update appointment %d: %w", id, res.Error)
		}
		change.Changed = res.RowsAffected > 0
		return change, nil
	}

	var appt models.Appointment
	if err := db.Select("id", "status").First(&appt, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load appointment %d: %w", id, err)
	}
	change.From = appt.Status

	if !CanTransition(appt.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrTransition, appt.Status, to)
	}
	if appt.Status == to {
		return change, nil
	}

	// the status guard loses to a concurrent update instead of overwriting it
	res := db.Model(&models.Appointment{}).
		Where("id = ? AND status = ?", id, appt.Status).
		Update("status", to)
	if res.Error != nil {
		return nil, fmt.Errorf("update appointment %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: status changed concurrently", ErrTransition)
	}
	change.Changed = true
	return change, nil
}
