// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/mmynk/calories/internal/models"
)

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique constraint is violated.
	ErrDuplicate = errors.New("duplicate value")
	// ErrConstraint is returned when a check or foreign key constraint is violated.
	ErrConstraint = errors.New("constraint violation")
)

// AccountQuery selects accounts for listing.
// Staff accounts are always excluded.
type AccountQuery struct {
	// AccountID limits the result to one account when set.
	AccountID string
}

// FoodOrdering is a supported sort order for food records.
type FoodOrdering string

const (
	OrderNewestFirst  FoodOrdering = "-timestamp"
	OrderOldestFirst  FoodOrdering = "timestamp"
	OrderCaloriesAsc  FoodOrdering = "calories"
	OrderCaloriesDesc FoodOrdering = "-calories"
)

// DefaultFoodOrdering lists the newest records first.
const DefaultFoodOrdering = OrderNewestFirst

// Valid reports whether o is a supported ordering.
func (o FoodOrdering) Valid() bool {
	switch o {
	case OrderNewestFirst, OrderOldestFirst, OrderCaloriesAsc, OrderCaloriesDesc:
		return true
	}
	return false
}

// FoodQuery selects food records for listing.
//
// OwnerID is the access scope and is applied before every other field.
type FoodQuery struct {
	// OwnerID limits records to one owner. Empty means every owner.
	OwnerID string

	// NameContains matches records whose name contains the text (case-insensitive).
	NameContains string

	// OwnerUsername matches records of the owner with this username.
	OwnerUsername string

	// From and To bound CreatedAt to [From, To) when non-zero.
	From time.Time
	To   time.Time

	// Exceeded filters on the exceeded flag when non-nil.
	Exceeded *bool

	OrderBy FoodOrdering
	Limit   uint64
	Offset  uint64
}

// Store defines the interface for account and food record storage.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL)
// without changing the service layer.
type Store interface {
	// CreateAccount persists an account and its profile atomically.
	// ID and CreatedAt are populated by the store when empty.
	// Returns ErrDuplicate when the username is taken.
	CreateAccount(ctx context.Context, account *models.Account) error

	// GetAccount retrieves an account with its profile.
	GetAccount(ctx context.Context, id string) (*models.Account, error)

	// GetAccountByUsername retrieves an account by username.
	GetAccountByUsername(ctx context.Context, username string) (*models.Account, error)

	// ListAccounts returns non-staff accounts matching q, ordered by username.
	ListAccounts(ctx context.Context, q AccountQuery) ([]*models.Account, error)

	// UpdateAccount saves every mutable account and profile field.
	UpdateAccount(ctx context.Context, account *models.Account) error

	// DeleteAccount removes an account with its profile and token.
	// Food records owned by the account are kept.
	DeleteAccount(ctx context.Context, id string) error

	// CreateFoodRecord persists a new food record.
	CreateFoodRecord(ctx context.Context, record *models.FoodRecord) error

	// GetFoodRecord retrieves a food record by ID.
	GetFoodRecord(ctx context.Context, id string) (*models.FoodRecord, error)

	// ListFoodRecords returns food records matching q.
	ListFoodRecords(ctx context.Context, q FoodQuery) ([]*models.FoodRecord, error)

	// UpdateFoodRecord saves the name and calories of a food record.
	UpdateFoodRecord(ctx context.Context, record *models.FoodRecord) error

	// DeleteFoodRecord removes a food record.
	DeleteFoodRecord(ctx context.Context, id string) error

	// SumCalories totals calories of ownerID's records created in [from, to).
	SumCalories(ctx context.Context, ownerID string, from, to time.Time) (int, error)

	// GetToken returns the session token key of an account.
	GetToken(ctx context.Context, accountID string) (string, error)

	// CreateToken stores key for the account unless it already has one, and
	// returns the key that ended up stored.
	CreateToken(ctx context.Context, accountID, key string) (string, error)

	// ReplaceToken overwrites the account's token key.
	ReplaceToken(ctx context.Context, accountID, key string) error

	// WithTx runs fn with a Store bound to a single transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(tx Store) error) error

	// Close releases any resources held by the store.
	Close() error
}
