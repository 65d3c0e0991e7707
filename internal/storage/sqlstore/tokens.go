package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/mmynk/calories/internal/storage"
)

// GetToken returns the stored token of an account.
func (s *SQLStore) GetToken(ctx context.Context, accountID string) (string, error) {
	var token string
	err := s.get(ctx, &token, s.sb.Select("token").From("tokens").Where(sq.Eq{"account_id": accountID}))
	if errors.Is(err, storage.ErrNotFound) {
		return "", fmt.Errorf("token for %s: %w", accountID, storage.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to get token: %w", err)
	}
	return token, nil
}

// CreateToken stores token unless the account already has one. Concurrent
// callers all get back the single stored token.
func (s *SQLStore) CreateToken(ctx context.Context, accountID, token string) (string, error) {
	_, err := s.exec(ctx, s.sb.Insert("tokens").
		Columns("account_id", "token", "created_at").
		Values(accountID, token, time.Now().UnixNano()).
		Suffix("ON CONFLICT (account_id) DO NOTHING"))
	if err != nil {
		return "", fmt.Errorf("failed to insert token: %w", err)
	}
	return s.GetToken(ctx, accountID)
}

// ReplaceToken overwrites the account's token.
func (s *SQLStore) ReplaceToken(ctx context.Context, accountID, token string) error {
	_, err := s.exec(ctx, s.sb.Insert("tokens").
		Columns("account_id", "token", "created_at").
		Values(accountID, token, time.Now().UnixNano()).
		Suffix("ON CONFLICT (account_id) DO UPDATE SET token = excluded.token, created_at = excluded.created_at"))
	if err != nil {
		return fmt.Errorf("failed to replace token: %w", err)
	}
	return nil
}
