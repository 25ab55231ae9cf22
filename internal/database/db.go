package database

import (
	"context"
	"fmt"
	"time"

	"visionx-backend/internal/config"
	"visionx-backend/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open connects to Postgres, retrying while the database container comes up.
func Open(cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	attempts := cfg.ConnectAttempts
	if attempts < 1 {
		attempts = 1
	}

	var (
		db  *gorm.DB
		err error
	)
	for i := 1; i <= attempts; i++ {
		db, err = gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Warn),
		})
		if err == nil {
			break
		}
		log.Warn("database connection failed", zap.Int("attempt", i), zap.Int("max_attempts", attempts), zap.Error(err))
		if i < attempts {
			time.Sleep(2 * time.Second)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("connect to database after %d attempts: %w", attempts, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return db, nil
}

// Bootstrap creates the schema and inserts the seed rows that are missing.
// Safe to run on every start; main calls it exactly once.
func Bootstrap(ctx context.Context, db *gorm.DB, log *zap.Logger) error {
	db = db.WithContext(ctx)

	if err := db.AutoMigrate(
		&models.Branch{},
		&models.User{},
		&models.RefreshToken{},
		&models.Customer{},
		&models.InventoryItem{},
		&models.Appointment{},
		&models.Prescription{},
		&models.EyeTest{},
		&models.CartEntry{},
		&models.ActivityLog{},
		&models.Notification{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	branch, err := seedBranch(db, log)
	if err != nil {
		return err
	}
	if err := seedUsers(db, branch.ID, log); err != nil {
		return err
	}
	if err := seedInventory(db, log); err != nil {
		return err
	}

	log.Info("database schema ready")
	return nil
}
