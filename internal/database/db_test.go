package database_test

import (
	"context"
	"testing"

	"visionx-backend/internal/database"
	"visionx-backend/internal/database/dbtest"
	"visionx-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func TestBootstrapSeeds(t *testing.T) {
	db := dbtest.Open(t)

	var branch models.Branch
	require.NoError(t, db.Where("name = ?", database.MainBranchName).First(&branch).Error)

	var admin models.User
	require.NoError(t, db.Where("email = ?", "admin@visionx.com").First(&admin).Error)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	require.NotNil(t, admin.BranchID)
	assert.Equal(t, branch.ID, *admin.BranchID)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte("admin123")))

	var patient models.User
	require.NoError(t, db.Where("email = ?", "patient@visionx.ai").First(&patient).Error)
	assert.Equal(t, models.RolePatient, patient.Role)

	var items int64
	require.NoError(t, db.Model(&models.InventoryItem{}).Count(&items).Error)
	assert.EqualValues(t, 15, items)

	var aviator models.InventoryItem
	require.NoError(t, db.Where("brand = ? AND model = ?", "Ray-Ban", "Aviator Classic").First(&aviator).Error)
	assert.Equal(t, "Gold", aviator.Details.Data().Color)
	assert.Equal(t, "163", aviator.Price.String())
	assert.Equal(t, 15, aviator.Stock)
}

func TestBootstrapCreatesEveryTable(t *testing.T) {
	db := dbtest.Open(t)

	for _, m := range []any{
		&models.Branch{}, &models.User{}, &models.RefreshToken{}, &models.Customer{},
		&models.InventoryItem{}, &models.Appointment{}, &models.Prescription{},
		&models.EyeTest{}, &models.CartEntry{}, &models.ActivityLog{}, &models.Notification{},
	} {
		assert.True(t, db.Migrator().HasTable(m), "%T", m)
	}
}

func TestBootstrapIsIdempotent(t *testing.T) {
	db := dbtest.Open(t)

	require.NoError(t, database.Bootstrap(context.Background(), db, zap.NewNop()))
	require.NoError(t, database.Bootstrap(context.Background(), db, zap.NewNop()))

	var users, items, branches int64
	db.Model(&models.User{}).Count(&users)
	db.Model(&models.InventoryItem{}).Count(&items)
	db.Model(&models.Branch{}).Count(&branches)

	assert.EqualValues(t, 2, users)
	assert.EqualValues(t, 15, items)
	assert.EqualValues(t, 1, branches)
}

func TestBootstrapRestoresMissingCatalogItem(t *testing.T) {
	db := dbtest.Open(t)

	require.NoError(t, db.Where("model = ?", "Retro Round").Delete(&models.InventoryItem{}).Error)
	require.NoError(t, database.Bootstrap(context.Background(), db, zap.NewNop()))

	var count int64
	db.Model(&models.InventoryItem{}).Where("model = ?", "Retro Round").Count(&count)
	assert.EqualValues(t, 1, count)
}
