package customer

import (
	"context"
	"errors"
	"strings"
	"time"

	"visionx-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CustomerResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	Age       *int      `json:"age"`
	Gender    string    `json:"gender"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateCustomerRequest struct {
	Name    string          `json:"name"`
	Email   string          `json:"email"`
	Phone   string          `json:"phone"`
	Address string          `json:"address"`
	Age     *models.FlexInt `json:"age"`
	Gender  string          `json:"gender"`
}

func toResponse(c models.Customer) CustomerResponse {
	return CustomerResponse{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Address:   c.Address,
		Age:       c.Age,
		Gender:    c.Gender,
		CreatedAt: c.CreatedAt,
	}
}

// Exists reports whether a customer row with id is present.
func Exists(ctx context.Context, db *gorm.DB, id uint) (bool, error) {
	if id == 0 {
		return false, nil
	}
	var count int64
	if err := db.WithContext(ctx).Model(&models.Customer{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GET /api/customers
func ListHandler(db *gorm.DB, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var customers []models.Customer
		err := db.WithContext(c.UserContext()).
			Order(clause.OrderByColumn{Column: clause.Column{Name: "created_at"}, Desc: true}).
			Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: true}).
			Find(&customers).Error
		if err != nil {
			log.Error("list customers", zap.Error(err))
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to load customers")
		}

		res := make([]CustomerResponse, 0, len(customers))
		for _, cu := range customers {
			res = append(res, toResponse(cu))
		}
		return c.JSON(res)
	}
}

// GET /api/customers/:id
func GetHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid customer id")
		}

		var cu models.Customer
		if err := db.WithContext(c.UserContext()).First(&cu, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Customer not found")
			}
			return err
		}
		return c.JSON(toResponse(cu))
	}
}

// POST /api/customers
func CreateHandler(db *gorm.DB, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateCustomerRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name is required")
		}

		cu := models.Customer{
			Name:    body.Name,
			Email:   strings.TrimSpace(body.Email),
			Phone:   strings.TrimSpace(body.Phone),
			Address: strings.TrimSpace(body.Address),
			Gender:  strings.TrimSpace(body.Gender),
		}
		if body.Age != nil {
			age := body.Age.Int()
			if age < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "age must not be negative")
			}
			cu.Age = &age
		}

		if err := db.WithContext(c.UserContext()).Create(&cu).Error; err != nil {
			log.Error("create customer", zap.Error(err))
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to create customer")
		}

		return c.JSON(fiber.Map{"id": cu.ID})
	}
}
