// Package token mints and validates the bearer tokens the API hands out at
// login. Single HS256 access token, no refresh: the mobile contract stores
// one token per session.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/gocar-app/gocar/internal/backend/store"
	"github.com/gocar-app/gocar/internal/domain/types"
	"github.com/gocar-app/gocar/pkg/uuid"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is what a validated token asserts.
type Claims struct {
	UserID string
	Role   types.Role
}

type Service struct {
	secret []byte
	ttl    time.Duration
}

func NewService(secret string, ttl time.Duration) *Service {
	return &Service{secret: []byte(secret), ttl: ttl}
}

// Mint signs an access token for the account.
func (s *Service) Mint(a *store.Account) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"jti":     uuid.NewString(),
		"user_id": a.ID,
		"role":    a.Role.String(),
		"iat":     now.Unix(),
		"exp":     now.Add(s.ttl).Unix(),
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Validate parses and checks a token string.
func (s *Service) Validate(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, jwt.MapClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	mc, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	userID, _ := mc["user_id"].(string)
	if userID == "" {
		return nil, ErrInvalidToken
	}
	role, _ := mc["role"].(string)

	exp, ok := mc["exp"].(float64)
	if !ok || time.Now().UTC().After(time.Unix(int64(exp), 0)) {
		return nil, ErrInvalidToken
	}

	return &Claims{UserID: userID, Role: types.Role(role)}, nil
}
