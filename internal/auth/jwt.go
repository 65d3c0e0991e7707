package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mmynk/calories/internal/models"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrMissingToken = errors.New("authentication credentials were not provided")
)

// JWTManager handles signing and parsing of session token keys.
//
// A key is an HS256 JWT naming its account. Signing alone does not make a key
// valid: the key must also be the one currently stored for the account.
type JWTManager struct {
	secretKey     []byte
	tokenDuration time.Duration
	now           func() time.Time
}

// Claims represents the custom JWT claims for a session key.
type Claims struct {
	AccountID string `json:"account_id"`
	Username  string `json:"username"`
	jwt.RegisteredClaims
}

// NewJWTManager creates a new JWT manager with the given secret and token duration.
// A tokenDuration of 0 issues keys that never expire, which matches the
// lifetime of the stored token they are paired with.
func NewJWTManager(secretKey string, tokenDuration time.Duration) *JWTManager {
	return &JWTManager{
		secretKey:     []byte(secretKey),
		tokenDuration: tokenDuration,
		now:           time.Now,
	}
}

// SetClock replaces the time source used to issue and check keys.
func (m *JWTManager) SetClock(now func() time.Time) {
	m.now = now
}

// Generate creates a new signed key for the given account.
func (m *JWTManager) Generate(account *models.Account) (string, error) {
	now := m.now()
	claims := &Claims{
		AccountID: account.ID,
		Username:  account.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   account.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	if m.tokenDuration > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(m.tokenDuration))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// Validate parses and validates a key, returning the claims if valid.
func (m *JWTManager) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			// Verify the signing method
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return m.secretKey, nil
		},
		jwt.WithTimeFunc(m.now),
	)

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.AccountID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
