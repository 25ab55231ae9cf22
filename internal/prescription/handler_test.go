package prescription

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"visionx-backend/internal/database/dbtest"
	"visionx-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func post(t *testing.T, app *fiber.App, body string) int {
	t.Helper()
	req := httptest.NewRequest("POST", "/prescriptions", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestPrescriptionJoinsCustomerName(t *testing.T) {
	db := dbtest.Open(t)
	for i := 1; i <= 7; i++ {
		c := models.Customer{ID: uint(i), Name: "Customer"}
		if i == 7 {
			c.Name = "Grace Hopper"
		}
		require.NoError(t, db.Create(&c).Error)
	}

	app := fiber.New()
	app.Get("/prescriptions", ListHandler(db, zap.NewNop()))
	app.Post("/prescriptions", CreateHandler(db, zap.NewNop()))

	require.Equal(t, fiber.StatusOK, post(t, app, `{"customer_id":7,"date":"2025-02-01","sph_od":-1.25,"cyl_od":"-0.50",
		"axis_od":180,"sph_os":"-1.00","cyl_os":"0","axis_os":"90","add_power":"+1.00","pd":63,"doctor_notes":"Anti-glare"}`))
	require.Equal(t, fiber.StatusOK, post(t, app, `{"customer_id":"1","date":"2025-01-01"}`))

	resp, err := app.Test(httptest.NewRequest("GET", "/prescriptions", nil), -1)
	require.NoError(t, err)
	var rows []PrescriptionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rows))
	require.Len(t, rows, 2)

	// newest date first
	got := rows[0]
	assert.Equal(t, uint(7), got.CustomerID)
	assert.Equal(t, "Grace Hopper", got.CustomerName)
	assert.Equal(t, "-1.25", got.SphOD)
	assert.Equal(t, "180", got.AxisOD)
	assert.Equal(t, "63", got.PD)
	assert.Equal(t, "+1.00", got.AddPower)
	assert.Equal(t, "Anti-glare", got.DoctorNotes)
	assert.Equal(t, "2025-01-01", rows[1].Date)
}

func TestCreatePrescriptionValidation(t *testing.T) {
	db := dbtest.Open(t)
	app := fiber.New()
	app.Post("/prescriptions", CreateHandler(db, zap.NewNop()))

	assert.Equal(t, fiber.StatusBadRequest, post(t, app, `{"date":"2025-01-01"}`))
	assert.Equal(t, fiber.StatusBadRequest, post(t, app, `{"customer_id":1}`))
	assert.Equal(t, fiber.StatusBadRequest, post(t, app, `{"customer_id":42,"date":"2025-01-01"}`))
	assert.Equal(t, fiber.StatusBadRequest, post(t, app, `{"customer_id":1,"date":"2025-01-01","sph_od":{"x":1}}`))

	var count int64
	db.Model(&models.Prescription{}).Count(&count)
	assert.Zero(t, count)
}
