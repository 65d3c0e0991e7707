package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mmynk/calories/internal/auth"
	"github.com/mmynk/calories/internal/storage"
)

// AuthService implements login.
type AuthService struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	store         storage.Store
	observer      Observer
	logger        *slog.Logger
}

// NewAuthService creates a new authentication service. observer may be nil.
func NewAuthService(authenticator auth.Authenticator, jwtManager *auth.JWTManager, store storage.Store, observer Observer, logger *slog.Logger) *AuthService {
	if observer == nil {
		observer = nopObserver{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		authenticator: authenticator,
		jwtManager:    jwtManager,
		store:         store,
		observer:      observer,
		logger:        logger,
	}
}

// Login authenticates a user and returns its session key. An account keeps
// one key: repeated logins return the same key until it is rotated.
//
// Wrong usernames and wrong passwords both yield auth.ErrInvalidCredentials;
// correct credentials of a suspended account yield auth.ErrAccountSuspended.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	// Validate input
	if username == "" || password == "" {
		s.observer.Login("invalid")
		return "", fieldError(NonFieldErrors, "Please enter both username and password to login!")
	}

	// Authenticate user
	account, err := s.authenticator.Authenticate(ctx, username, password)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		s.logger.Warn("Login failed", "username", username)
		s.observer.Login("invalid")
		return "", err
	case errors.Is(err, auth.ErrAccountSuspended):
		s.logger.Warn("Login refused for suspended account", "username", username)
		s.observer.Login("suspended")
		return "", err
	case err != nil:
		return "", fmt.Errorf("failed to authenticate: %w", err)
	}

	// Generate a candidate key; an existing key wins while it still validates.
	candidate, err := s.jwtManager.Generate(account)
	if err != nil {
		s.logger.Error("Failed to generate token", "account_id", account.ID, "error", err)
		return "", err
	}
	var key string
	err = s.store.WithTx(ctx, func(tx storage.Store) error {
		stored, err := tx.CreateToken(ctx, account.ID, candidate)
		if err != nil {
			return err
		}
		key = stored
		if stored == candidate {
			return nil
		}
		if _, err := s.jwtManager.Validate(stored); err == nil {
			return nil
		}
		// Expired, or signed with a previous secret.
		s.logger.Info("Replacing stale token", "account_id", account.ID)
		key = candidate
		return tx.ReplaceToken(ctx, account.ID, candidate)
	})
	if err != nil {
		return "", fmt.Errorf("failed to store token: %w", err)
	}

	s.observer.Login("ok")
	s.logger.Info("User logged in successfully", "account_id", account.ID, "username", account.Username)
	return key, nil
}
