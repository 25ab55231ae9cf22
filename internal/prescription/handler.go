package prescription

import (
	"strings"
	"time"

	"visionx-backend/internal/customer"
	"visionx-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PrescriptionResponse struct {
	ID           uint   `json:"id"`
	CustomerID   uint   `json:"customer_id"`
	CustomerName string `json:"customer_name"`
	Date         string `json:"date"`
	SphOD        string `json:"sph_od" gorm:"column:sph_od"`
	CylOD        string `json:"cyl_od" gorm:"column:cyl_od"`
	AxisOD       string `json:"axis_od" gorm:"column:axis_od"`
	SphOS        string `json:"sph_os" gorm:"column:sph_os"`
	CylOS        string `json:"cyl_os" gorm:"column:cyl_os"`
	AxisOS       string `json:"axis_os" gorm:"column:axis_os"`
	AddPower     string `json:"add_power"`
	PD           string `json:"pd" gorm:"column:pd"`
	DoctorNotes  string `json:"doctor_notes"`
}

type CreatePrescriptionRequest struct {
	CustomerID  models.FlexInt    `json:"customer_id"`
	Date        string            `json:"date"`
	SphOD       models.FlexString `json:"sph_od"`
	CylOD       models.FlexString `json:"cyl_od"`
	AxisOD      models.FlexString `json:"axis_od"`
	SphOS       models.FlexString `json:"sph_os"`
	CylOS       models.FlexString `json:"cyl_os"`
	AxisOS      models.FlexString `json:"axis_os"`
	AddPower    models.FlexString `json:"add_power"`
	PD          models.FlexString `json:"pd"`
	DoctorNotes string            `json:"doctor_notes"`
}

// GET /api/prescriptions
func ListHandler(db *gorm.DB, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rows := make([]PrescriptionResponse, 0)
		err := db.WithContext(c.UserContext()).
			Table("prescriptions").
			Select(`prescriptions.*, customers.name AS customer_name`).
			Joins("JOIN customers ON customers.id = prescriptions.customer_id").
			Order(clause.OrderByColumn{Column: clause.Column{Table: "prescriptions", Name: "date"}, Desc: true}).
			Order(clause.OrderByColumn{Column: clause.Column{Table: "prescriptions", Name: "id"}, Desc: true}).
			Scan(&rows).Error
		if err != nil {
			log.Error("list prescriptions", zap.Error(err))
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to load prescriptions")
		}
		return c.JSON(rows)
	}
}

// POST /api/prescriptions
func CreateHandler(db *gorm.DB, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreatePrescriptionRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.Date = strings.TrimSpace(body.Date)
		if body.CustomerID.Uint() == 0 || body.Date == "" {
			return fiber.NewError(fiber.StatusBadRequest, "customer_id and date are required")
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

		p := models.Prescription{
			CustomerID:  body.CustomerID.Uint(),
			Date:        body.Date,
			SphOD:       body.SphOD.String(),
			CylOD:       body.CylOD.String(),
			AxisOD:      body.AxisOD.String(),
			SphOS:       body.SphOS.String(),
			CylOS:       body.CylOS.String(),
			AxisOS:      body.AxisOS.String(),
			AddPower:    body.AddPower.String(),
			PD:          body.PD.String(),
			DoctorNotes: body.DoctorNotes,
		}
		if err := db.WithContext(ctx).Create(&p).Error; err != nil {
			log.Error("create prescription", zap.Error(err))
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to create prescription")
		}

		return c.JSON(fiber.Map{"id": p.ID})
	}
}
