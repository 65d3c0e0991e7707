package auth

import (
	"context"

	"github.com/mmynk/calories/internal/models"
)

// Authenticator defines the interface for credential-based authentication.
// This abstraction allows swapping the credential check (password, OAuth, etc.)
// without changing the service layer code.
type Authenticator interface {
	// Authenticate verifies the credentials and returns the account.
	// Returns ErrInvalidCredentials when the username or credential is wrong,
	// and ErrAccountSuspended when they are right but the account is inactive.
	Authenticate(ctx context.Context, username, credential string) (*models.Account, error)

	// HashCredential derives the value stored in Account.PasswordHash.
	HashCredential(credential string) (string, error)
}

// TokenValidator resolves a presented session token to its account.
type TokenValidator interface {
	// AuthenticateToken returns the account owning key.
	// Returns ErrInvalidToken for unknown, rotated or malformed keys and for
	// inactive accounts.
	AuthenticateToken(ctx context.Context, key string) (*models.Account, error)
}
