package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"visionx-backend/internal/database/dbtest"
	"visionx-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRecordAndList(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()

	var admin models.User
	require.NoError(t, db.Where("email = ?", "admin@visionx.com").First(&admin).Error)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 12; i++ {
		require.NoError(t, db.Create(&models.ActivityLog{
			UserID:    admin.ID,
			Action:    ActionLogin,
			Details:   fmt.Sprintf("login %d", i),
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}).Error)
	}
	require.NoError(t, Record(ctx, db, Entry{UserID: admin.ID, Action: ActionStatusChange, Details: "Appointment #1 -> approved"}))

	app := fiber.New()
	app.Get("/activity-logs", ListHandler(db, zap.NewNop()))

	list := func(path string) []LogResponse {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil), -1)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		var rows []LogResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&rows))
		return rows
	}

	rows := list("/activity-logs")
	require.Len(t, rows, 10)
	assert.Equal(t, ActionStatusChange, rows[0].Action)
	assert.Equal(t, "VisionX Admin", rows[0].UserName)
	assert.Equal(t, "login 11", rows[1].Details)
	for i := 1; i < len(rows); i++ {
		assert.False(t, rows[i].Timestamp.After(rows[i-1].Timestamp))
	}

	assert.Len(t, list("/activity-logs?limit=3"), 3)
	assert.Len(t, list("/activity-logs?limit=100"), 13)
	assert.Len(t, list("/activity-logs?limit=-1"), 10)
}
