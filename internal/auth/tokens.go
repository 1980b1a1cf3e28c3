// Package auth issues and validates the session tokens that identify site
// visitors and administrators.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"helpcrunch-live-chat/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	Issuer = "helpcrunch-live-chat"

	AccessTTL  = 1 * time.Hour
	RefreshTTL = 7 * 24 * time.Hour

	accessPrefix  = "access:"
	refreshPrefix = "refresh:"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrRevoked      = errors.New("token revoked or expired")
)

type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	AccessExp    time.Time `json:"access_exp"`
	RefreshExp   time.Time `json:"refresh_exp"`
}

type Claims struct {
	UserID       int64    `json:"user_id,string"`
	Email        string   `json:"email,omitempty"`
	Name         string   `json:"name,omitempty"`
	Role         string   `json:"role"`
	Capabilities []string `json:"caps,omitempty"`
	jwt.RegisteredClaims
}

// Visitor converts the claims into the identity the widget is signed with.
func (c *Claims) Visitor() models.VisitorIdentity {
	id := c.UserID
	return models.VisitorIdentity{ID: &id, Email: c.Email, DisplayName: c.Name}
}

func (c *Claims) Can(capability string) bool {
	for _, have := range c.Capabilities {
		if have == capability {
			return true
		}
	}
	return false
}

// Manager signs tokens and tracks their ids in Redis for revocation. With a
// nil client tokens are still verified but cannot be revoked.
type Manager struct {
	accessSecret  []byte
	refreshSecret []byte
	rdb           redis.Cmdable
}

func NewManager(accessSecret, refreshSecret string, rdb redis.Cmdable) (*Manager, error) {
	if len(accessSecret) < 32 || len(refreshSecret) < 32 {
		return nil, fmt.Errorf("ACCESS_SECRET and REFRESH_SECRET must be configured and at least 32 characters")
	}
	return &Manager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		rdb:           rdb,
	}, nil
}

func (m *Manager) IssueTokenPair(ctx context.Context, user models.User) (*TokenPair, error) {
	now := time.Now()
	accessJTI := uuid.NewString()
	refreshJTI := uuid.NewString()
	accessExp := now.Add(AccessTTL)
	refreshExp := now.Add(RefreshTTL)

	claims := func(jti string, exp time.Time) Claims {
		return Claims{
			UserID:       user.ID,
			Email:        user.Email,
			Name:         user.DisplayName,
			Role:         user.Role,
			Capabilities: user.EffectiveCapabilities(),
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        jti,
				Subject:   strconv.FormatInt(user.ID, 10),
				ExpiresAt: jwt.NewNumericDate(exp),
				IssuedAt:  jwt.NewNumericDate(now),
				Issuer:    Issuer,
			},
		}
	}

	accessString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims(accessJTI, accessExp)).SignedString(m.accessSecret)
	if err != nil {
		return nil, err
	}
	refreshString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims(refreshJTI, refreshExp)).SignedString(m.refreshSecret)
	if err != nil {
		return nil, err
	}

	if m.rdb != nil {
		subject := strconv.FormatInt(user.ID, 10)
		pipe := m.rdb.Pipeline()
		pipe.Set(ctx, accessPrefix+accessJTI, subject, AccessTTL)
		pipe.Set(ctx, refreshPrefix+refreshJTI, subject, RefreshTTL)
		if _, err := pipe.Exec(ctx); err != nil {
			return nil, fmt.Errorf("store token ids: %w", err)
		}
	}

	return &TokenPair{
		AccessToken:  accessString,
		RefreshToken: refreshString,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
	}, nil
}

func (m *Manager) ValidateAccessToken(ctx context.Context, tokenString string) (*Claims, error) {
	return m.validate(ctx, tokenString, m.accessSecret, accessPrefix)
}

func (m *Manager) ValidateRefreshToken(ctx context.Context, tokenString string) (*Claims, error) {
	return m.validate(ctx, tokenString, m.refreshSecret, refreshPrefix)
}

func (m *Manager) validate(ctx context.Context, tokenString string, secret []byte, prefix string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	}, jwt.WithIssuer(Issuer))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	if m.rdb != nil {
		exists, err := m.rdb.Exists(ctx, prefix+claims.ID).Result()
		if err != nil || exists != 1 {
			return nil, ErrRevoked
		}
	}
	return claims, nil
}

func (m *Manager) RevokeToken(ctx context.Context, jti string, isRefresh bool) error {
	if m.rdb == nil {
		return nil
	}
	prefix := accessPrefix
	if isRefresh {
		prefix = refreshPrefix
	}
	return m.rdb.Del(ctx, prefix+jti).Err()
}
