package activity

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	defaultListLimit = 10
	maxListLimit     = 500
)

type LogResponse struct {
	ID        uint      `json:"id"`
	UserID    uint      `json:"user_id"`
	UserName  string    `json:"user_name"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	Timestamp time.Time `json:"timestamp"`
}

// GET /api/activity-logs?limit=50 (most recent 10 by default)
func ListHandler(db *gorm.DB, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := db.WithContext(c.UserContext()).
			Table("activity_logs").
			Select(`activity_logs.id, activity_logs.user_id, users.name AS user_name,
				activity_logs.action, activity_logs.details, activity_logs."timestamp"`).
			Joins("LEFT JOIN users ON users.id = activity_logs.user_id").
			Order(clause.OrderByColumn{Column: clause.Column{Table: "activity_logs", Name: "timestamp"}, Desc: true}).
			Order(clause.OrderByColumn{Column: clause.Column{Table: "activity_logs", Name: "id"}, Desc: true})

		limit := c.QueryInt("limit", defaultListLimit)
		if limit <= 0 {
			limit = defaultListLimit
		}
		if limit > maxListLimit {
			limit = maxListLimit
		}
		q = q.Limit(limit)

		rows := make([]LogResponse, 0)
		if err := q.Scan(&rows).Error; err != nil {
			log.Error("list activity logs", zap.Error(err))
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to load activity logs")
		}
		return c.JSON(rows)
	}
}
