package auth

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"visionx-backend/internal/config"
	"visionx-backend/internal/database/dbtest"
	"visionx-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func authApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()
	db := dbtest.Open(t)
	issuer := NewIssuer(db, config.AuthConfig{
		JWTSecret:       testSecret,
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: time.Hour,
	})

	app := fiber.New()
	app.Post("/login", LoginHandler(db, issuer, zap.NewNop()))
	app.Post("/refresh", RefreshHandler(issuer, zap.NewNop()))
	app.Post("/logout", JWTMiddleware(testSecret), LogoutHandler(issuer))
	app.Get("/me", JWTMiddleware(testSecret), MeHandler(db))
	return app, db
}

func postJSON(t *testing.T, app *fiber.App, path string, body any, token string) (*http.Response, []byte) {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest("POST", path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestLoginSeededAccounts(t *testing.T) {
	app, db := authApp(t)

	tests := []struct {
		email, password string
		role            models.UserRole
	}{
		{"admin@visionx.com", "admin123", models.RoleAdmin},
		{"  Patient@VisionX.ai ", "patient123", models.RolePatient},
	}
	for _, tt := range tests {
		resp, body := postJSON(t, app, "/login", LoginRequest{Email: tt.email, Password: tt.password}, "")
		require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))

		var out TokenResponse
		require.NoError(t, json.Unmarshal(body, &out))
		assert.Equal(t, tt.role, out.User.Role)
		assert.NotEmpty(t, out.RefreshToken)
		assert.EqualValues(t, 900, out.ExpiresIn)

		claims, err := ParseToken(out.Token, testSecret)
		require.NoError(t, err)
		assert.Equal(t, tt.role, claims.Role)
		assert.Equal(t, out.User.ID, claims.UserID)
	}

	var logins int64
	db.Model(&models.ActivityLog{}).Where("action = ?", "login").Count(&logins)
	assert.EqualValues(t, 2, logins)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	app, db := authApp(t)

	for _, body := range []LoginRequest{
		{Email: "admin@visionx.com", Password: "wrong"},
		{Email: "nobody@visionx.com", Password: "admin123"},
		{Email: "", Password: ""},
	} {
		resp, data := postJSON(t, app, "/login", body, "")
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, string(data))
	}

	var tokens int64
	db.Model(&models.RefreshToken{}).Count(&tokens)
	assert.Zero(t, tokens)
}

func TestRefreshAndLogout(t *testing.T) {
	app, _ := authApp(t)

	_, body := postJSON(t, app, "/login", LoginRequest{Email: "admin@visionx.com", Password: "admin123"}, "")
	var login TokenResponse
	require.NoError(t, json.Unmarshal(body, &login))

	resp, body := postJSON(t, app, "/refresh", RefreshRequest{RefreshToken: login.RefreshToken}, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))
	var refreshed TokenResponse
	require.NoError(t, json.Unmarshal(body, &refreshed))
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)
	assert.Equal(t, "VisionX Admin", refreshed.User.Name)

	resp, _ = postJSON(t, app, "/refresh", RefreshRequest{RefreshToken: login.RefreshToken}, "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, "old token is single use")

	_, body = postJSON(t, app, "/login", LoginRequest{Email: "admin@visionx.com", Password: "admin123"}, "")
	require.NoError(t, json.Unmarshal(body, &login))
	resp, _ = postJSON(t, app, "/logout", fiber.Map{}, login.Token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp, _ = postJSON(t, app, "/refresh", RefreshRequest{RefreshToken: login.RefreshToken}, "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestMe(t *testing.T) {
	app, _ := authApp(t)

	_, body := postJSON(t, app, "/login", LoginRequest{Email: "admin@visionx.com", Password: "admin123"}, "")
	var login TokenResponse
	require.NoError(t, json.Unmarshal(body, &login))

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var me map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&me))
	assert.Equal(t, "admin@visionx.com", me["email"])
	assert.Equal(t, "admin", me["role"])
	branch, ok := me["branch"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "VisionX Main", branch["name"])
}
