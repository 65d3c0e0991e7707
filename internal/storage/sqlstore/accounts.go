package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/mmynk/calories/internal/models"
	"github.com/mmynk/calories/internal/storage"
)

type accountRow struct {
	ID               string        `db:"id"`
	Username         string        `db:"username"`
	PasswordHash     string        `db:"password_hash"`
	Role             string        `db:"role"`
	IsActive         bool          `db:"is_active"`
	IsStaff          bool          `db:"is_staff"`
	CreatedAt        int64         `db:"created_at"`
	MaxDailyCalories sql.NullInt64 `db:"max_daily_calories"`
}

func (r *accountRow) toModel() *models.Account {
	// Unknown role names load as RoleNone and are denied everything.
	role, _ := models.ParseRole(r.Role)
	return &models.Account{
		ID:           r.ID,
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		Role:         role,
		Active:       r.IsActive,
		Staff:        r.IsStaff,
		CreatedAt:    time.Unix(0, r.CreatedAt),
		Profile: models.Profile{
			MaxDailyCalories: int(r.MaxDailyCalories.Int64),
		},
	}
}

func (s *SQLStore) selectAccounts() sq.SelectBuilder {
	return s.sb.Select(
		"a.id", "a.username", "a.password_hash", "a.role",
		"a.is_active", "a.is_staff", "a.created_at", "p.max_daily_calories",
	).
		From("accounts a").
		LeftJoin("profiles p ON p.account_id = a.id")
}

// CreateAccount inserts an account and its profile in one transaction.
func (s *SQLStore) CreateAccount(ctx context.Context, account *models.Account) error {
	// Generate ID if not set
	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now()
	}

	err := s.WithTx(ctx, func(tx storage.Store) error {
		t := tx.(*SQLStore)

		_, err := t.exec(ctx, t.sb.Insert("accounts").
			Columns("id", "username", "password_hash", "role", "is_active", "is_staff", "created_at").
			Values(account.ID, account.Username, account.PasswordHash, string(account.Role),
				account.Active, account.Staff, account.CreatedAt.UnixNano()))
		if err != nil {
			return fmt.Errorf("failed to insert account: %w", err)
		}

		_, err = t.exec(ctx, t.sb.Insert("profiles").
			Columns("account_id", "max_daily_calories").
			Values(account.ID, account.Profile.MaxDailyCalories))
		if err != nil {
			return fmt.Errorf("failed to insert profile: %w", err)
		}
		return nil
	})
	return err
}

// GetAccount retrieves an account by ID.
func (s *SQLStore) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	var row accountRow
	err := s.get(ctx, &row, s.selectAccounts().Where(sq.Eq{"a.id": id}))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("account %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return row.toModel(), nil
}

// GetAccountByUsername retrieves an account by its username.
func (s *SQLStore) GetAccountByUsername(ctx context.Context, username string) (*models.Account, error) {
	var row accountRow
	err := s.get(ctx, &row, s.selectAccounts().Where(sq.Eq{"a.username": username}))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("account %q: %w", username, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account by username: %w", err)
	}
	return row.toModel(), nil
}

// ListAccounts returns non-staff accounts ordered by username.
func (s *SQLStore) ListAccounts(ctx context.Context, q storage.AccountQuery) ([]*models.Account, error) {
	b := s.selectAccounts().Where(sq.Eq{"a.is_staff": false})
	if q.AccountID != "" {
		b = b.Where(sq.Eq{"a.id": q.AccountID})
	}
	b = b.OrderBy("a.username")

	var rows []accountRow
	if err := s.selectAll(ctx, &rows, b); err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	accounts := make([]*models.Account, 0, len(rows))
	for i := range rows {
		accounts = append(accounts, rows[i].toModel())
	}
	return accounts, nil
}

// UpdateAccount saves the account row and its profile in one transaction.
func (s *SQLStore) UpdateAccount(ctx context.Context, account *models.Account) error {
	return s.WithTx(ctx, func(tx storage.Store) error {
		t := tx.(*SQLStore)

		err := t.execOne(ctx, t.sb.Update("accounts").
			Set("username", account.Username).
			Set("password_hash", account.PasswordHash).
			Set("role", string(account.Role)).
			Set("is_active", account.Active).
			Where(sq.Eq{"id": account.ID}))
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("account %s: %w", account.ID, storage.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to update account: %w", err)
		}

		err = t.execOne(ctx, t.sb.Update("profiles").
			Set("max_daily_calories", account.Profile.MaxDailyCalories).
			Where(sq.Eq{"account_id": account.ID}))
		if errors.Is(err, storage.ErrNotFound) {
			// Profile missing: recreate it so the account keeps exactly one.
			_, err = t.exec(ctx, t.sb.Insert("profiles").
				Columns("account_id", "max_daily_calories").
				Values(account.ID, account.Profile.MaxDailyCalories))
		}
		if err != nil {
			return fmt.Errorf("failed to update profile: %w", err)
		}
		return nil
	})
}

// DeleteAccount removes an account. Profile and token rows cascade; food
// records are left in place.
func (s *SQLStore) DeleteAccount(ctx context.Context, id string) error {
	err := s.execOne(ctx, s.sb.Delete("accounts").Where(sq.Eq{"id": id}))
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("account %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return nil
}
