package appointment

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"visionx-backend/internal/activity"
	"visionx-backend/internal/auth"
	"visionx-backend/internal/customer"
	"visionx-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AppointmentResponse struct {
	ID           uint                     `json:"id"`
	CustomerID   uint                     `json:"customer_id"`
	CustomerName string                   `json:"customer_name"`
	Date         string                   `json:"date"`
	Time         string                   `json:"time"`
	Status       models.AppointmentStatus `json:"status"`
	Notes        string                   `json:"notes"`
}

type CreateAppointmentRequest struct {
	CustomerID models.FlexInt `json:"customer_id"`
	Date       string         `json:"date"`
	Time       string         `json:"time"`
	Notes      string         `json:"notes"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// GET /api/appointments
func ListHandler(db *gorm.DB, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rows := make([]AppointmentResponse, 0)
		err := db.WithContext(c.UserContext()).
			Table("appointments").
			Select(`appointments.id, appointments.customer_id, customers.name AS customer_name,
				appointments."date", appointments."time", appointments.status, appointments.notes`).
			Joins("JOIN customers ON customers.id = appointments.customer_id").
			Order(clause.OrderByColumn{Column: clause.Column{Table: "appointments", Name: "date"}}).
			Order(clause.OrderByColumn{Column: clause.Column{Table: "appointments", Name: "time"}}).
			Order(clause.OrderByColumn{Column: clause.Column{Table: "appointments", Name: "id"}}).
			Scan(&rows).Error
		if err != nil {
			log.Error("list appointments", zap.Error(err))
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to load appointments")
		}
		return c.JSON(rows)
	}
}

// POST /api/appointments
func CreateHandler(db *gorm.DB, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateAppointmentRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.Date = strings.TrimSpace(body.Date)
		body.Time = strings.TrimSpace(body.Time)
		if body.CustomerID.Uint() == 0 || body.Date == "" || body.Time == "" {
			return fiber.NewError(fiber.StatusBadRequest, "customer_id, date and time are required")
		}
		if _, err := time.Parse("2006-01-02", body.Date); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "date must be YYYY-MM-DD")
		}

		ctx := c.UserContext()
		ok, err := customer.Exists(ctx, db, body.CustomerID.Uint())
		if err != nil {
			return err
		}
		if !ok {
			return fiber.NewError(fiber.StatusBadRequest, "Customer not found")
		}

		appt := models.Appointment{
			CustomerID: body.CustomerID.Uint(),
			Date:       body.Date,
			Time:       body.Time,
			Status:     models.AppointmentPending,
			Notes:      body.Notes,
		}
		if err := db.WithContext(ctx).Create(&appt).Error; err != nil {
			log.Error("create appointment", zap.Error(err))
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to create appointment")
		}

		return c.JSON(fiber.Map{"id": appt.ID})
	}
}

// PATCH /api/appointments/:id
func UpdateStatusHandler(db *gorm.DB, updater *StatusUpdater, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid appointment id")
		}

		var body UpdateStatusRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		status, err := ParseStatus(body.Status)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "status must be one of pending, approved, completed, cancelled")
		}

		ctx := c.UserContext()
		change, err := updater.Update(ctx, uint(id), status)
		switch {
		case errors.Is(err, ErrNotFound):
			return fiber.NewError(fiber.StatusNotFound, "Appointment not found")
		case errors.Is(err, ErrTransition):
			return fiber.NewError(fiber.StatusConflict, "Status transition not allowed")
		case err != nil:
			return err
		}

		if change.Changed {
			uid, _ := c.Locals(auth.CtxUserIDKey).(uint)
			if err := activity.Record(ctx, db, activity.Entry{
				UserID:  uid,
				Action:  activity.ActionStatusChange,
				Details: fmt.Sprintf("Appointment #%d set to %s", change.ID, change.To),
			}); err != nil {
				log.Warn("status change activity not recorded", zap.Uint("appointment_id", change.ID), zap.Error(err))
			}
		}

		return c.JSON(fiber.Map{"success": true})
	}
}
