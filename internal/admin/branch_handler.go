package admin

import (
	"errors"
	"strings"

	"visionx-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type BranchResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Address   string `json:"address"`
	Phone     string `json:"phone"`
	UserCount int64  `json:"user_count"`
	CreatedAt string `json:"created_at"`
}

type CreateBranchRequest struct {
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Phone   *string `json:"phone"`
}

func toBranchResponse(b models.Branch, users int64) BranchResponse {
	return BranchResponse{
		ID:        b.ID,
		Name:      b.Name,
		Address:   b.Address,
		Phone:     b.Phone,
		UserCount: users,
		CreatedAt: b.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// GET /api/admin/branches
func ListBranchesHandler(db *gorm.DB, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbc := db.WithContext(c.UserContext())

		var branches []models.Branch
		if err := dbc.Order("name asc").Find(&branches).Error; err != nil {
			log.Error("list branches", zap.Error(err))
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to load branches")
		}

		type branchCount struct {
			BranchID uint
			Users    int64
		}
		var counts []branchCount
		if err := dbc.Model(&models.User{}).
			Select("branch_id, COUNT(*) AS users").
			Where("branch_id IS NOT NULL").
			Group("branch_id").
			Scan(&counts).Error; err != nil {
			log.Error("count branch users", zap.Error(err))
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to load branches")
		}
		byBranch := make(map[uint]int64, len(counts))
		for _, bc := range counts {
			byBranch[bc.BranchID] = bc.Users
		}

		res := make([]BranchResponse, 0, len(branches))
		for _, b := range branches {
			res = append(res, toBranchResponse(b, byBranch[b.ID]))
		}
		return c.JSON(res)
	}
}

// GET /api/admin/branches/:id
func GetBranchHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid branch id")
		}

		dbc := db.WithContext(c.UserContext())
		var b models.Branch
		if err := dbc.First(&b, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Branch not found")
			}
			return err
		}

		var users int64
		if err := dbc.Model(&models.User{}).Where("branch_id = ?", b.ID).Count(&users).Error; err != nil {
			return err
		}
		return c.JSON(toBranchResponse(b, users))
	}
}

// POST /api/admin/branches
func CreateBranchHandler(db *gorm.DB, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateBranchRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name is required")
		}

		dbc := db.WithContext(c.UserContext())
		var existing int64
		if err := dbc.Model(&models.Branch{}).Where("name = ?", body.Name).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return fiber.NewError(fiber.StatusConflict, "A branch with this name already exists")
		}

		b := models.Branch{
			Name:    body.Name,
			Address: strings.TrimSpace(body.Address),
		}
		if body.Phone != nil {
			b.Phone = strings.TrimSpace(*body.Phone)
		}

		if err := dbc.Create(&b).Error; err != nil {
			log.Error("create branch", zap.Error(err))
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to create branch")
		}

		return c.Status(fiber.StatusCreated).JSON(toBranchResponse(b, 0))
	}
}
