package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"visionx-backend/internal/config"
	"visionx-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// Issuer hands out access tokens and the rotating refresh tokens behind them.
type Issuer struct {
	db         *gorm.DB
	secret     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewIssuer(db *gorm.DB, cfg config.AuthConfig) *Issuer {
	return &Issuer{
		db:         db,
		secret:     cfg.JWTSecret,
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
	}
}

func (i *Issuer) Secret() string { return i.secret }

// Issue starts a new refresh chain for user.
func (i *Issuer) Issue(ctx context.Context, user *models.User) (*TokenPair, error) {
	raw, hash, err := generateRefreshToken()
	if err != nil {
		return nil, err
	}
	rt := models.RefreshToken{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		TokenHash: hash,
		ExpiresAt: time.Now().Add(i.refreshTTL),
	}
	if err := i.db.WithContext(ctx).Create(&rt).Error; err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	return i.pair(user, raw)
}

// Rotate exchanges a refresh token for a new pair. Presenting a token that
// was already rotated or revoked revokes every token of its owner.
func (i *Issuer) Rotate(ctx context.Context, raw string) (*TokenPair, *models.User, error) {
	db := i.db.WithContext(ctx)

	var old models.RefreshToken
	err := db.Where("token_hash = ?", hashRefreshToken(raw)).First(&old).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrInvalidToken
	}
	if err != nil {
		return nil, nil, fmt.Errorf("lookup refresh token: %w", err)
	}

	if old.Revoked {
		if err := i.RevokeAll(ctx, old.UserID); err != nil {
			return nil, nil, err
		}
		return nil, nil, ErrRefreshReused
	}
	if time.Now().After(old.ExpiresAt) {
		return nil, nil, fmt.Errorf("%w: refresh token expired", ErrInvalidToken)
	}

	var user models.User
	if err := db.First(&user, old.UserID).Error; err != nil {
		return nil, nil, fmt.Errorf("%w: owner not found", ErrInvalidToken)
	}

	newRaw, newHash, err := generateRefreshToken()
	if err != nil {
		return nil, nil, err
	}
	next := models.RefreshToken{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		TokenHash: newHash,
		ExpiresAt: time.Now().Add(i.refreshTTL),
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		// revoke old, point to replacement
		res := tx.Model(&models.RefreshToken{}).
			Where("id = ? AND revoked = ?", old.ID, false).
			Updates(map[string]any{"revoked": true, "replaced_by": next.ID})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrRefreshReused
		}
		return tx.Create(&next).Error
	})
	if errors.Is(err, ErrRefreshReused) {
		if rerr := i.RevokeAll(ctx, user.ID); rerr != nil {
			return nil, nil, rerr
		}
		return nil, nil, err
	}
	if err != nil {
		return nil, nil, fmt.Errorf("rotate refresh token: %w", err)
	}

	pair, err := i.pair(&user, newRaw)
	if err != nil {
		return nil, nil, err
	}
	return pair, &user, nil
}

// RevokeAll is used on logout and on suspected theft.
func (i *Issuer) RevokeAll(ctx context.Context, userID uint) error {
	err := i.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked = ?", userID, false).
		Update("revoked", true).Error
	if err != nil {
		return fmt.Errorf("revoke refresh tokens: %w", err)
	}
	return nil
}

func (i *Issuer) pair(user *models.User, refresh string) (*TokenPair, error) {
	access, err := GenerateToken(i.secret, i.accessTTL, user)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(i.accessTTL.Seconds()),
	}, nil
}

func generateRefreshToken() (raw, hash string, err error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", fmt.Errorf("generate refresh token: %w", err)
	}
	raw = hex.EncodeToString(b)
	return raw, hashRefreshToken(raw), nil
}

func hashRefreshToken(raw string) string {
	h := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(h[:])
}
