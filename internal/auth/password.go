package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/calories/internal/models"
	"github.com/mmynk/calories/internal/storage"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAccountSuspended   = errors.New("account suspended")
	ErrEmptyPassword      = errors.New("password may not be blank")
)

// AccountStorage defines the account lookups the authenticator needs.
// This allows the authenticator to be independent of the storage implementation.
type AccountStorage interface {
	GetAccountByUsername(ctx context.Context, username string) (*models.Account, error)
}

// PasswordAuthenticator implements password-based authentication using bcrypt.
type PasswordAuthenticator struct {
	storage AccountStorage
	cost    int
}

// NewPasswordAuthenticator creates a new password-based authenticator.
// A cost of 0 uses bcrypt.DefaultCost.
func NewPasswordAuthenticator(storage AccountStorage, cost int) *PasswordAuthenticator {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &PasswordAuthenticator{
		storage: storage,
		cost:    cost,
	}
}

// HashCredential hashes a password with bcrypt.
func (a *PasswordAuthenticator) HashCredential(credential string) (string, error) {
	if credential == "" {
		return "", ErrEmptyPassword
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(credential), a.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Authenticate verifies the username and password, returning the account if valid.
// Unknown usernames and wrong passwords are indistinguishable to the caller.
func (a *PasswordAuthenticator) Authenticate(ctx context.Context, username, credential string) (*models.Account, error) {
	account, err := a.storage.GetAccountByUsername(ctx, models.NormalizeUsername(username))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(credential)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if !account.Active {
		return nil, ErrAccountSuspended
	}

	return account, nil
}
