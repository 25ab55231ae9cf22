package database

import (
	"errors"
	"fmt"
	"time"

	"visionx-backend/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const MainBranchName = "VisionX Main"

type seedUser struct {
	Name     string
	Email    string
	Password string
	Role     models.UserRole
}

// demo accounts the dashboard login page advertises
var demoUsers = []seedUser{
	{Name: "VisionX Admin", Email: "admin@visionx.com", Password: "admin123", Role: models.RoleAdmin},
	{Name: "John Doe", Email: "patient@visionx.ai", Password: "patient123", Role: models.RolePatient},
}

type seedFrame struct {
	Brand, Model    string
	Price           int64
	Stock           int
	Image           string
	Color, Material string
	Shape           string
}

var seedCatalog = []seedFrame{
	{"Ray-Ban", "Aviator Classic", 163, 15, "https://picsum.photos/seed/aviator/400/300", "Gold", "Metal", "Aviator"},
	{"Oakley", "Holbrook", 146, 10, "https://picsum.photos/seed/holbrook/400/300", "Matte Black", "O Matter", "Square"},
	{"Gucci", "GG0061O", 390, 5, "https://picsum.photos/seed/gucci/400/300", "Gold/Green", "Metal", "Round"},
	{"Prada", "PR 17WS", 410, 8, "https://picsum.photos/seed/prada/400/300", "Black", "Acetate", "Rectangle"},
	{"Tom Ford", "FT5634-B", 445, 4, "https://picsum.photos/seed/tomford/400/300", "Shiny Black", "Acetate", "Square"},
	{"Burberry", "BE2108", 260, 12, "https://picsum.photos/seed/burberry/400/300", "Dark Tortoise", "Acetate", "Cat Eye"},
	{"Persol", "PO3092V", 280, 6, "https://picsum.photos/seed/persol/400/300", "Havana", "Acetate", "Phantos"},
	{"Carrera", "1033/S", 180, 20, "https://picsum.photos/seed/carrera/400/300", "Black/Gold", "Metal", "Navigator"},
	{"Vogue", "VO5334", 95, 25, "https://picsum.photos/seed/vogue/400/300", "Pink Tortoise", "Propionate", "Cat Eye"},
	{"Armani Exchange", "AX3016", 110, 18, "https://picsum.photos/seed/armani/400/300", "Matte Blue", "Plastic", "Rectangle"},
	{"VisionX", "Stealth Aviator", 125, 10, "https://picsum.photos/seed/stealth-aviator/400/200", "Black", "Metal", "Aviator"},
	{"VisionX", "Executive Gold", 155, 8, "https://picsum.photos/seed/exec-gold/400/200", "Gold/Black", "Metal", "Square"},
	{"Fastrack", "Clear Glaze", 95, 15, "https://picsum.photos/seed/fastrack-clear/400/200", "Clear", "Acetate", "Square"},
	{"VisionX", "Classic Noir", 89, 20, "https://picsum.photos/seed/classic-noir/400/200", "Black", "Plastic", "Square"},
	{"VisionX", "Retro Round", 115, 12, "https://picsum.photos/seed/retro-round/400/200", "Gold", "Metal", "Round"},
}

func seedBranch(db *gorm.DB, log *zap.Logger) (*models.Branch, error) {
	var branch models.Branch
	err := db.Where("name = ?", MainBranchName).First(&branch).Error
	if err == nil {
		return &branch, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check main branch: %w", err)
	}

	branch = models.Branch{Name: MainBranchName}
	if err := db.Create(&branch).Error; err != nil {
		return nil, fmt.Errorf("create main branch: %w", err)
	}
	log.Info("created main branch", zap.Uint("branch_id", branch.ID))
	return &branch, nil
}

func seedUsers(db *gorm.DB, branchID uint, log *zap.Logger) error {
	for _, u := range demoUsers {
		var count int64
		if err := db.Model(&models.User{}).Where("email = ?", u.Email).Count(&count).Error; err != nil {
			return fmt.Errorf("check seed user %s: %w", u.Email, err)
		}
		if count > 0 {
			continue
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", u.Email, err)
		}

		bid := branchID
		user := models.User{
			BranchID:     &bid,
			Name:         u.Name,
			Email:        u.Email,
			PasswordHash: string(hash),
			Role:         u.Role,
		}
		if err := db.Create(&user).Error; err != nil {
			return fmt.Errorf("create seed user %s: %w", u.Email, err)
		}
		log.Info("created seed user", zap.String("email", u.Email), zap.String("role", string(u.Role)))
	}
	return nil
}

// seedInventory adds every catalog frame whose brand/model pair is missing,
// so catalog additions reach databases seeded by an older build.
func seedInventory(db *gorm.DB, log *zap.Logger) error {
	added := 0
	for _, f := range seedCatalog {
		var count int64
		if err := db.Model(&models.InventoryItem{}).
			Where("brand = ? AND model = ?", f.Brand, f.Model).
			Count(&count).Error; err != nil {
			return fmt.Errorf("check catalog item %s %s: %w", f.Brand, f.Model, err)
		}
		if count > 0 {
			continue
		}

		item := models.InventoryItem{
			Type:     models.InventoryFrame,
			Brand:    f.Brand,
			Model:    f.Model,
			Price:    decimal.NewFromInt(f.Price),
			Stock:    f.Stock,
			ImageURL: f.Image,
			Details: datatypes.NewJSONType(models.ItemDetails{
				Color:    f.Color,
				Material: f.Material,
				Shape:    f.Shape,
				AddedAt:  time.Now().UTC().Format(time.RFC3339),
			}),
		}
		if err := db.Create(&item).Error; err != nil {
			return fmt.Errorf("create catalog item %s %s: %w", f.Brand, f.Model, err)
		}
		added++
	}
	if added > 0 {
		log.Info("seeded inventory catalog", zap.Int("items", added))
	}
	return nil
}
