package helpers

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token kinds carried in the "type" claim. Access and refresh tokens are
// signed with distinct secrets so a leaked refresh secret cannot forge
// access tokens and vice versa.
const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

var ErrInvalidToken = errors.New("invalid token")

// JWTManager handles generation and validation of JWT tokens
type JWTManager struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

func NewJWTManager(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *JWTManager {
	return &JWTManager{
		AccessSecret:  []byte(accessSecret),
		RefreshSecret: []byte(refreshSecret),
		AccessTTL:     accessTTL,
		RefreshTTL:    refreshTTL,
	}
}

type Claims struct {
	UserID string `json:"userId"`
	Type   string `json:"type"`
	jwt.RegisteredClaims
}

// Generate signs a token of the given kind for userID and returns the token
// with its expiry.
func (m *JWTManager) Generate(userID, kind string) (string, time.Time, error) {
	secret, ttl, err := m.pick(kind)
	if err != nil {
		return "", time.Time{}, err
	}
	exp := time.Now().Add(ttl)
	claims := &Claims{
		UserID: userID,
		Type:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := t.SignedString(secret)
	return s, exp, err
}

// Verify checks the signature and expiry of a token against the secret for
// kind, and rejects tokens whose "type" claim does not match.
func (m *JWTManager) Verify(tokenStr, kind string) (*Claims, error) {
	secret, _, err := m.pick(kind)
	if err != nil {
		return nil, err
	}
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return secret, nil
	})
	if err != nil || !tkn.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Type != kind {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (m *JWTManager) pick(kind string) ([]byte, time.Duration, error) {
	switch kind {
	case TokenAccess:
		return m.AccessSecret, m.AccessTTL, nil
	case TokenRefresh:
		return m.RefreshSecret, m.RefreshTTL, nil
	default:
		return nil, 0, ErrInvalidToken
	}
}
