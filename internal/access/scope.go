package access

import "github.com/mmynk/calories/internal/models"

// FoodScope restricts a food record query. It is applied before any
// caller-supplied filter, ordering or pagination.
type FoodScope struct {
	// All is true when every record is visible.
	All bool
	// OwnerID limits the query to one owner when All is false.
	OwnerID string
}

// FoodRecordScope returns the records caller may list: everything for an
// Administrator, its own records for anyone else.
func FoodRecordScope(caller *models.Account) (FoodScope, error) {
	if !hasRole(caller) {
		return FoodScope{}, ErrNoRole
	}
	if caller.Role == models.RoleAdministrator {
		return FoodScope{All: true}, nil
	}
	return FoodScope{OwnerID: caller.ID}, nil
}

// AccountScope restricts an account query.
type AccountScope struct {
	// All is true when every non-staff account is visible.
	All bool
	// AccountID limits the query to a single account when All is false.
	AccountID string
}

// AccountListScope returns the accounts caller may list. Staff accounts are
// never listed, not even to themselves.
func AccountListScope(caller *models.Account) (AccountScope, error) {
	if !hasRole(caller) {
		return AccountScope{}, ErrNoRole
	}
	if isManager(caller) {
		return AccountScope{All: true}, nil
	}
	return AccountScope{AccountID: caller.ID}, nil
}
