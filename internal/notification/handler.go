package notification

import (
	"context"
	"fmt"
	"time"

	"visionx-backend/internal/auth"
	"visionx-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type NotificationResponse struct {
	ID        uint      `json:"id"`
	UserID    uint      `json:"user_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// Notify queues a message for one user. An empty kind means "info".
func Notify(ctx context.Context, db *gorm.DB, userID uint, title, message, kind string) (uint, error) {
	if kind == "" {
		kind = "info"
	}
	n := models.Notification{
		UserID:  userID,
		Title:   title,
		Message: message,
		Type:    kind,
	}
	if err := db.WithContext(ctx).Create(&n).Error; err != nil {
		return 0, fmt.Errorf("create notification for user %d: %w", userID, err)
	}
	return n.ID, nil
}

// GET /api/notifications
func ListHandler(db *gorm.DB, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		var items []models.Notification
		err = db.WithContext(c.UserContext()).
			Where("user_id = ?", uid).
			Order(clause.OrderByColumn{Column: clause.Column{Name: "created_at"}, Desc: true}).
			Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: true}).
			Find(&items).Error
		if err != nil {
			log.Error("list notifications", zap.Uint("user_id", uid), zap.Error(err))
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to load notifications")
		}

		res := make([]NotificationResponse, 0, len(items))
		for _, n := range items {
			res = append(res, NotificationResponse{
				ID:        n.ID,
				UserID:    n.UserID,
				Title:     n.Title,
				Message:   n.Message,
				Type:      n.Type,
				IsRead:    n.IsRead,
				CreatedAt: n.CreatedAt,
			})
		}
		return c.JSON(res)
	}
}

// PATCH /api/notifications/:id/read
func MarkReadHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid notification id")
		}

		res := db.WithContext(c.UserContext()).
			Model(&models.Notification{}).
			Where("id = ? AND user_id = ?", id, uid).
			Update("is_read", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusNotFound, "Notification not found")
		}
		return c.JSON(fiber.Map{"success": true})
	}
}
