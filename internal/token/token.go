// Package token issues and verifies the HS256 bearer tokens used by the
// HTTP layer. Access tokens are short-lived; refresh tokens are long-lived
// and additionally persisted on the user row so they can be revoked.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/MariferVL/eventhub/internal/model"
)

// ErrInvalidToken is returned for tokens that fail to parse, carry the
// wrong signing method, are expired, or have malformed claims.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the verified identity extracted from a token.
type Claims struct {
	UserID string
	Role   string
}

// Manager signs and verifies token pairs.
type Manager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewManager constructs a Manager.
func NewManager(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *Manager {
	return &Manager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// Access issues a short-lived access token for the user.
func (m *Manager) Access(u *model.User) (string, error) {
	return sign(u, m.accessSecret, m.accessTTL)
}

// Refresh issues a long-lived refresh token for the user.
func (m *Manager) Refresh(u *model.User) (string, error) {
	return sign(u, m.refreshSecret, m.refreshTTL)
}

// VerifyAccess validates an access token and returns its claims.
func (m *Manager) VerifyAccess(tokenString string) (Claims, error) {
	return verify(tokenString, m.accessSecret)
}

// VerifyRefresh validates a refresh token and returns its claims.
func (m *Manager) VerifyRefresh(tokenString string) (Claims, error) {
	return verify(tokenString, m.refreshSecret)
}

func sign(u *model.User, secret []byte, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"uid":  u.ID,
		"role": u.Role,
		"exp":  time.Now().Add(ttl).Unix(),
	})
	return token.SignedString(secret)
}

func verify(tokenString string, secret []byte) (Claims, error) {
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return secret, nil
	})
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}
	uid, ok := mapClaims["uid"].(string)
	if !ok || uid == "" {
		return Claims{}, ErrInvalidToken
	}
	role, _ := mapClaims["role"].(string)

	return Claims{UserID: uid, Role: role}, nil
}
