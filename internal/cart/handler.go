package cart

import (
	"context"
	"fmt"

	"visionx-backend/internal/auth"
	"visionx-backend/internal/inventory"
	"visionx-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartItemResponse struct {
	ID          uint                 `json:"id"`
	UserID      uint                 `json:"user_id"`
	InventoryID uint                 `json:"inventory_id"`
	Quantity    int                  `json:"quantity"`
	Brand       string               `json:"brand"`
	Model       string               `json:"model"`
	Price       decimal.Decimal      `json:"price"`
	ImageURL    string               `json:"image_url"`
	Type        models.InventoryType `json:"type"`
}

type AddRequest struct {
	InventoryID models.FlexInt  `json:"inventory_id"`
	Quantity    *models.FlexInt `json:"quantity"`
}

// Add merges quantity into the user's row for the item, creating it if
// needed, in one statement.
func Add(ctx context.Context, db *gorm.DB, userID, inventoryID uint, quantity int) error {
	entry := models.CartEntry{
		UserID:      userID,
		InventoryID: inventoryID,
		Quantity:    quantity,
	}
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "inventory_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"quantity": gorm.Expr("cart_entries.quantity + excluded.quantity"),
		}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("add item %d to cart of user %d: %w", inventoryID, userID, err)
	}
	return nil
}

// GET /api/cart
func ListHandler(db *gorm.DB, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		rows := make([]CartItemResponse, 0)
		err = db.WithContext(c.UserContext()).
			Table("cart_entries").
			Select(`cart_entries.id, cart_entries.user_id, cart_entries.inventory_id, cart_entries.quantity,
				inventory_items.brand, inventory_items.model, inventory_items.price,
				inventory_items.image_url, inventory_items.type`).
			Joins("JOIN inventory_items ON inventory_items.id = cart_entries.inventory_id").
			Where("cart_entries.user_id = ?", uid).
			Order(clause.OrderByColumn{Column: clause.Column{Table: "cart_entries", Name: "id"}}).
			Scan(&rows).Error
		if err != nil {
			log.Error("list cart", zap.Uint("user_id", uid), zap.Error(err))
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to load cart")
		}
		return c.JSON(rows)
	}
}

// POST /api/cart
func AddHandler(db *gorm.DB, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		var body AddRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		qty := 1
		if body.Quantity != nil {
			qty = body.Quantity.Int()
		}
		if qty < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "quantity must be at least 1")
		}

		ctx := c.UserContext()
		ok, err := inventory.Exists(ctx, db, body.InventoryID.Uint())
		if err != nil {
			return err
		}
		if !ok {
			return fiber.NewError(fiber.StatusBadRequest, "Inventory item not found")
		}

		if err := Add(ctx, db, uid, body.InventoryID.Uint(), qty); err != nil {
			log.Error("add to cart", zap.Error(err))
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to update cart")
		}
		return c.JSON(fiber.Map{"success": true})
	}
}

// DELETE /api/cart/:id
// Scoped by the caller, so someone else's row id is a silent no-op.
func RemoveHandler(db *gorm.DB, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		id, err := c.ParamsInt("id")
		if err == nil && id > 0 {
			err = db.WithContext(c.UserContext()).
				Where("id = ? AND user_id = ?", id, uid).
				Delete(&models.CartEntry{}).Error
			if err != nil {
				log.Error("remove cart entry", zap.Int("id", id), zap.Error(err))
				return fiber.NewError(fiber.StatusInternalServerError, "Failed to update cart")
			}
		}
		return c.JSON(fiber.Map{"success": true})
	}
}
