package inventory

import (
	"context"
	"errors"
	"strings"

	"visionx-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ItemResponse struct {
	ID       uint                 `json:"id"`
	Type     models.InventoryType `json:"type"`
	Brand    string               `json:"brand"`
	Model    string               `json:"model"`
	Price    decimal.Decimal      `json:"price"`
	Stock    int                  `json:"stock"`
	ImageURL string               `json:"image_url"`
	Details  models.ItemDetails   `json:"details"`
}

type CreateItemRequest struct {
	Type     models.InventoryType `json:"type"`
	Brand    string               `json:"brand"`
	Model    string               `json:"model"`
	Price    *decimal.Decimal     `json:"price"`
	Stock    *models.FlexInt      `json:"stock"`
	ImageURL string               `json:"image_url"`
	Details  models.ItemDetails   `json:"details"`
}

func toResponse(it models.InventoryItem) ItemResponse {
	return ItemResponse{
		ID:       it.ID,
		Type:     it.Type,
		Brand:    it.Brand,
		Model:    it.Model,
		Price:    it.Price,
		Stock:    it.Stock,
		ImageURL: it.ImageURL,
		Details:  it.Details.Data(),
	}
}

// Exists reports whether an inventory row with id is present.
func Exists(ctx context.Context, db *gorm.DB, id uint) (bool, error) {
	if id == 0 {
		return false, nil
	}
	var count int64
	if err := db.WithContext(ctx).Model(&models.InventoryItem{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GET /api/inventory?type=frame
func ListHandler(db *gorm.DB, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := db.WithContext(c.UserContext()).Model(&models.InventoryItem{})

		if t := strings.TrimSpace(c.Query("type")); t != "" {
			it := models.InventoryType(strings.ToLower(t))
			if !it.Valid() {
				return fiber.NewError(fiber.StatusBadRequest, "Invalid inventory type")
			}
			dbq = dbq.Where("type = ?", it)
		}

		var items []models.InventoryItem
		if err := dbq.Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}}).Find(&items).Error; err != nil {
			log.Error("list inventory", zap.Error(err))
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to load inventory")
		}

		res := make([]ItemResponse, 0, len(items))
		for _, it := range items {
			res = append(res, toResponse(it))
		}
		return c.JSON(res)
	}
}

// GET /api/inventory/:id
func GetHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid item id")
		}

		var it models.InventoryItem
		if err := db.WithContext(c.UserContext()).First(&it, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Item not found")
			}
			return err
		}
		return c.JSON(toResponse(it))
	}
}

// POST /api/inventory
func CreateHandler(db *gorm.DB, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateItemRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.Type = models.InventoryType(strings.ToLower(strings.TrimSpace(string(body.Type))))
		if !body.Type.Valid() {
			return fiber.NewError(fiber.StatusBadRequest, "type must be one of frame, lens, sunglasses, accessory")
		}
		if body.Price == nil {
			return fiber.NewError(fiber.StatusBadRequest, "price is required")
		}
		if body.Price.IsNegative() {
			return fiber.NewError(fiber.StatusBadRequest, "price must not be negative")
		}
		stock := 0
		if body.Stock != nil {
			stock = body.Stock.Int()
		}
		if stock < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "stock must not be negative")
		}

		it := models.InventoryItem{
			Type:     body.Type,
			Brand:    strings.TrimSpace(body.Brand),
			Model:    strings.TrimSpace(body.Model),
			Price:    body.Price.Round(2),
			Stock:    stock,
			ImageURL: strings.TrimSpace(body.ImageURL),
			Details:  datatypes.NewJSONType(body.Details),
		}

		if err := db.WithContext(c.UserContext()).Create(&it).Error; err != nil {
			log.Error("create inventory item", zap.Error(err))
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to create item")
		}

		return c.JSON(fiber.Map{"id": it.ID})
	}
}
