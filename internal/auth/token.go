package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/mmynk/calories/internal/models"
	"github.com/mmynk/calories/internal/storage"
)

// TokenStorage defines the persistence the token authenticator needs.
type TokenStorage interface {
	GetToken(ctx context.Context, accountID string) (string, error)
	GetAccount(ctx context.Context, id string) (*models.Account, error)
}

// TokenAuthenticator validates session keys against the token table.
type TokenAuthenticator struct {
	jwt     *JWTManager
	storage TokenStorage
}

var _ TokenValidator = (*TokenAuthenticator)(nil)

// NewTokenAuthenticator creates a TokenAuthenticator.
func NewTokenAuthenticator(jwtManager *JWTManager, storage TokenStorage) *TokenAuthenticator {
	return &TokenAuthenticator{jwt: jwtManager, storage: storage}
}

// AuthenticateToken implements TokenValidator.
func (a *TokenAuthenticator) AuthenticateToken(ctx context.Context, key string) (*models.Account, error) {
	if key == "" {
		return nil, ErrMissingToken
	}

	claims, err := a.jwt.Validate(key)
	if err != nil {
		return nil, err
	}

	stored, err := a.storage.GetToken(ctx, claims.AccountID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load token: %w", err)
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(key)) != 1 {
		return nil, ErrInvalidToken
	}

	account, err := a.storage.GetAccount(ctx, claims.AccountID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	if !account.Active {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, ErrAccountSuspended)
	}

	return account, nil
}
