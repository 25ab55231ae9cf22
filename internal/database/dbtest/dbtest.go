// Package dbtest opens a bootstrapped in-memory database for package tests.
package dbtest

import (
	"context"
	"testing"

	"visionx-backend/internal/database"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open returns a fresh SQLite database with the full schema and seed data.
// The single connection keeps the in-memory database alive for the test.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Bootstrap(context.Background(), db, zap.NewNop()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	return db
}
