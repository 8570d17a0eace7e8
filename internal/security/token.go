package security

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/notepid/club_companion/internal/domain"
)

// ErrInvalidToken is returned for tokens that fail signature, expiry or
// claim checks.
var ErrInvalidToken = errors.New("invalid token")

// TokenService wraps JWT creation and validation for actors.
type TokenService struct {
	secret    []byte
	expiresIn time.Duration
	now       func() time.Time
}

// NewTokenService returns an HS256 token service.
func NewTokenService(secret string, expiresIn time.Duration) *TokenService {
	return &TokenService{
		secret:    []byte(secret),
		expiresIn: expiresIn,
		now:       time.Now,
	}
}

// RandomSecret returns a throwaway signing secret for servers started
// without auth.jwt_secret.
func RandomSecret() string {
	return uuid.NewString() + uuid.NewString()
}

// Issue creates a token naming the actor.
func (t *TokenService) Issue(actor domain.Actor) (string, error) {
	now := t.now()
	claims := jwt.MapClaims{
		"sub":  strconv.FormatInt(actor.ID, 10),
		"role": string(actor.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(t.expiresIn).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse validates a token and returns the actor it names.
func (t *TokenService) Parse(tokenStr string) (domain.Actor, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil {
		return domain.Actor{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return domain.Actor{}, ErrInvalidToken
	}

	sub, _ := claims["sub"].(string)
	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil || id <= 0 {
		return domain.Actor{}, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	roleStr, _ := claims["role"].(string)
	role, err := domain.ParseRole(roleStr)
	if err != nil {
		return domain.Actor{}, fmt.Errorf("%w: bad role", ErrInvalidToken)
	}
	return domain.Actor{ID: id, Role: role}, nil
}
