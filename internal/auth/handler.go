package auth

import (
	"errors"
	"strings"

	"visionx-backend/internal/activity"
	"visionx-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type UserResponse struct {
	ID       uint            `json:"id"`
	Name     string          `json:"name"`
	Role     models.UserRole `json:"role"`
	Email    string          `json:"email"`
	BranchID *uint           `json:"branch_id"`
}

type TokenResponse struct {
	Token        string       `json:"token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int64        `json:"expires_in"`
	User         UserResponse `json:"user"`
}

func newTokenResponse(p *TokenPair, u *models.User) TokenResponse {
	return TokenResponse{
		Token:        p.AccessToken,
		RefreshToken: p.RefreshToken,
		ExpiresIn:    p.ExpiresIn,
		User: UserResponse{
			ID:       u.ID,
			Name:     u.Name,
			Role:     u.Role,
			Email:    u.Email,
			BranchID: u.BranchID,
		},
	}
}

// Authenticate checks an email/password pair. Unknown emails and wrong
// passwords are indistinguishable to the caller.
func Authenticate(db *gorm.DB, email, password string) (*models.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	var user models.User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// POST /api/auth/login
func LoginHandler(db *gorm.DB, issuer *Issuer, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		ctx := c.UserContext()
		user, err := Authenticate(db.WithContext(ctx), body.Email, body.Password)
		if errors.Is(err, ErrInvalidCredentials) {
			log.Info("login rejected", zap.String("ip", c.IP()))
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid credentials")
		}
		if err != nil {
			return err
		}

		pair, err := issuer.Issue(ctx, user)
		if err != nil {
			return err
		}

		if err := activity.Record(ctx, db, activity.Entry{
			UserID:  user.ID,
			Action:  activity.ActionLogin,
			Details: "User logged in",
		}); err != nil {
			log.Warn("login activity not recorded", zap.Uint("user_id", user.ID), zap.Error(err))
		}

		return c.JSON(newTokenResponse(pair, user))
	}
}

// POST /api/auth/refresh
func RefreshHandler(issuer *Issuer, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RefreshRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if strings.TrimSpace(body.RefreshToken) == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid token")
		}

		pair, user, err := issuer.Rotate(c.UserContext(), strings.TrimSpace(body.RefreshToken))
		switch {
		case errors.Is(err, ErrRefreshReused):
			log.Warn("refresh token reuse detected, user tokens revoked", zap.String("ip", c.IP()))
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid token")
		case errors.Is(err, ErrInvalidToken):
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid token")
		case err != nil:
			return err
		}

		return c.JSON(newTokenResponse(pair, user))
	}
}

// POST /api/auth/logout
func LogoutHandler(issuer *Issuer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid, err := CurrentUserID(c)
		if err != nil {
			return err
		}
		if err := issuer.RevokeAll(c.UserContext(), uid); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"success": true})
	}
}

// GET /api/auth/me
func MeHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := CurrentClaims(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
		}

		resp := fiber.Map{
			"id":        claims.UserID,
			"name":      claims.Name,
			"email":     claims.Email,
			"role":      claims.Role,
			"branch_id": claims.BranchID,
		}

		if claims.BranchID != nil {
			var branch models.Branch
			if err := db.WithContext(c.UserContext()).First(&branch, *claims.BranchID).Error; err == nil {
				resp["branch"] = fiber.Map{
					"id":      branch.ID,
					"name":    branch.Name,
					"address": branch.Address,
					"phone":   branch.Phone,
				}
			}
		}

		return c.JSON(resp)
	}
}
