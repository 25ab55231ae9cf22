package inventory

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strconv"
	"testing"

	"visionx-backend/internal/database/dbtest"
	"visionx-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func inventoryApp(t *testing.T) *fiber.App {
	t.Helper()
	db := dbtest.Open(t)
	app := fiber.New()
	app.Get("/inventory", ListHandler(db, zap.NewNop()))
	app.Post("/inventory", CreateHandler(db, zap.NewNop()))
	app.Get("/inventory/:id", GetHandler(db))
	return app
}

func createItem(t *testing.T, app *fiber.App, body string) (int, uint) {
	t.Helper()
	req := httptest.NewRequest("POST", "/inventory", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	var out struct {
		ID uint `json:"id"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out.ID
}

func getJSON(t *testing.T, app *fiber.App, path string, dst any) int {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", path, nil), -1)
	require.NoError(t, err)
	if resp.StatusCode == fiber.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
	}
	return resp.StatusCode
}

func TestListSeededCatalog(t *testing.T) {
	app := inventoryApp(t)

	var items []ItemResponse
	require.Equal(t, fiber.StatusOK, getJSON(t, app, "/inventory", &items))
	require.Len(t, items, 15)
	assert.Equal(t, "Ray-Ban", items[0].Brand)
	assert.Equal(t, "Aviator", items[0].Details.Shape)
	for i := 1; i < len(items); i++ {
		assert.Less(t, items[i-1].ID, items[i].ID)
	}
}

func TestCreateAndFilter(t *testing.T) {
	app := inventoryApp(t)

	code, id := createItem(t, app, `{"type":"lens","brand":"Zeiss","model":"DriveSafe","price":"129.99","stock":"40",
		"details":"{\"material\":\"Polycarbonate\",\"coating\":\"AR\"}"}`)
	require.Equal(t, fiber.StatusOK, code)
	require.NotZero(t, id)

	var lenses []ItemResponse
	require.Equal(t, fiber.StatusOK, getJSON(t, app, "/inventory?type=lens", &lenses))
	require.Len(t, lenses, 1)
	assert.Equal(t, "129.99", lenses[0].Price.String())
	assert.Equal(t, 40, lenses[0].Stock)
	assert.Equal(t, "Polycarbonate", lenses[0].Details.Material)
	assert.Equal(t, "AR", lenses[0].Details.Extra["coating"])

	var one ItemResponse
	require.Equal(t, fiber.StatusOK, getJSON(t, app, "/inventory/"+strconv.Itoa(int(id)), &one))
	assert.Equal(t, models.InventoryLens, one.Type)

	assert.Equal(t, fiber.StatusNotFound, getJSON(t, app, "/inventory/99999", &one))
	assert.Equal(t, fiber.StatusBadRequest, getJSON(t, app, "/inventory?type=hat", &lenses))
}

func TestCreateValidation(t *testing.T) {
	app := inventoryApp(t)

	for _, body := range []string{
		`{"brand":"X","price":10}`,
		`{"type":"hat","price":10}`,
		`{"type":"frame"}`,
		`{"type":"frame","price":-1}`,
		`{"type":"frame","price":"twelve"}`,
		`{"type":"frame","price":10,"stock":-2}`,
	} {
		code, _ := createItem(t, app, body)
		assert.Equal(t, fiber.StatusBadRequest, code, body)
	}
}
