package dashboard

import (
	"context"
	"fmt"
	"time"

	"visionx-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LowStockThreshold is exclusive: stock 4 is low, stock 5 is not.
const LowStockThreshold = 5

type Stats struct {
	TotalCustomers    int64 `json:"totalCustomers"`
	LowStock          int64 `json:"lowStock"`
	AppointmentsToday int64 `json:"appointmentsToday"`
	AITests           int64 `json:"aiTests"`
}

type AnalyticsResponse struct {
	Stats Stats `json:"stats"`
}

// ComputeStats counts fresh on every call. "Today" is the UTC calendar
// date of now, matching appointment dates written by the dashboard.
func ComputeStats(ctx context.Context, db *gorm.DB, now time.Time) (Stats, error) {
	db = db.WithContext(ctx)
	var s Stats

	if err := db.Model(&models.Customer{}).Count(&s.TotalCustomers).Error; err != nil {
		return s, fmt.Errorf("count customers: %w", err)
	}
	if err := db.Model(&models.InventoryItem{}).Where("stock < ?", LowStockThreshold).Count(&s.LowStock).Error; err != nil {
		return s, fmt.Errorf("count low stock: %w", err)
	}
	today := now.UTC().Format("2006-01-02")
	if err := db.Model(&models.Appointment{}).
		Where(clause.Eq{Column: clause.Column{Name: "date"}, Value: today}).
		Count(&s.AppointmentsToday).Error; err != nil {
		return s, fmt.Errorf("count appointments today: %w", err)
	}
	if err := db.Model(&models.EyeTest{}).Count(&s.AITests).Error; err != nil {
		return s, fmt.Errorf("count eye tests: %w", err)
	}
	return s, nil
}

// GET /api/analytics
func AnalyticsHandler(db *gorm.DB, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		stats, err := ComputeStats(c.UserContext(), db, time.Now())
		if err != nil {
			log.Error("compute analytics", zap.Error(err))
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to compute analytics")
		}
		return c.JSON(AnalyticsResponse{Stats: stats})
	}
}
