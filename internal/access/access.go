// Package access decides which accounts and food records a caller may see or change.
//
// Food records and accounts follow separate rule sets. Food records belong to
// their owner and to Administrators only; the User_Manager role has no say over
// them. Accounts are managed by Administrators and User_Managers, and every
// account may manage itself. Callers without a recognised role are denied
// everything.
package access

import (
	"errors"

	"github.com/mmynk/calories/internal/models"
)

// ErrNoRole is returned by the scope functions for callers without a role.
var ErrNoRole = errors.New("caller has no assigned role")

// Operation is an object-level action.
type Operation int

const (
	OpRead Operation = iota + 1
	OpUpdate
	OpDelete
)

func (op Operation) String() string {
	switch op {
	case OpRead:
		return "read"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Decision is the outcome of an authorization check.
type Decision int

const (
	Deny Decision = iota
	Allow
)

// Allowed reports whether d is Allow.
func (d Decision) Allowed() bool { return d == Allow }

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

// TargetKind tags the variant held by a Target.
type TargetKind int

const (
	TargetAccount TargetKind = iota + 1
	TargetFoodRecord
)

// Target is the resource an object-level check applies to.
// Build it with AccountTarget or FoodRecordTarget.
type Target struct {
	kind    TargetKind
	account *models.Account
	food    *models.FoodRecord
}

// AccountTarget wraps an account.
func AccountTarget(a *models.Account) Target {
	return Target{kind: TargetAccount, account: a}
}

// FoodRecordTarget wraps a food record.
func FoodRecordTarget(f *models.FoodRecord) Target {
	return Target{kind: TargetFoodRecord, food: f}
}

// Kind returns the variant tag.
func (t Target) Kind() TargetKind { return t.kind }

// Authorize decides whether caller may perform op on target.
// Callers are expected to report Deny as "not found".
func Authorize(caller *models.Account, op Operation, target Target) Decision {
	if !hasRole(caller) {
		return Deny
	}
	switch op {
	case OpRead, OpUpdate, OpDelete:
	default:
		return Deny
	}

	switch target.kind {
	case TargetFoodRecord:
		return authorizeFoodRecord(caller, target.food)
	case TargetAccount:
		return authorizeAccount(caller, target.account)
	default:
		return Deny
	}
}

func authorizeFoodRecord(caller *models.Account, record *models.FoodRecord) Decision {
	if record == nil {
		return Deny
	}
	if record.OwnerID == caller.ID || caller.Role == models.RoleAdministrator {
		return Allow
	}
	return Deny
}

func authorizeAccount(caller *models.Account, target *models.Account) Decision {
	if target == nil {
		return Deny
	}
	if target.ID == caller.ID {
		return Allow
	}
	// Bootstrap accounts sit outside account management.
	if target.Staff {
		return Deny
	}
	if isManager(caller) {
		return Allow
	}
	return Deny
}

// CanCreateAccount reports whether caller may register new accounts.
func CanCreateAccount(caller *models.Account) Decision {
	if hasRole(caller) && isManager(caller) {
		return Allow
	}
	return Deny
}

// CanCreateFoodRecord reports whether caller may log food. Records are always
// created for the caller itself.
func CanCreateFoodRecord(caller *models.Account) Decision {
	if hasRole(caller) {
		return Allow
	}
	return Deny
}

// CanAssignRole reports whether caller may give role to target.
// target is nil for an account that does not exist yet.
//
// A caller may hand out roles up to its own authority and may not change the
// role of an account that outranks it. Only managers may change roles at all;
// re-assigning an account's current role is a no-op and always allowed.
func CanAssignRole(caller *models.Account, target *models.Account, role models.Role) Decision {
	if !hasRole(caller) || !role.Valid() {
		return Deny
	}
	if target != nil && target.Role == role {
		return Allow
	}
	if !isManager(caller) || !caller.Role.AtLeast(role) {
		return Deny
	}
	if target != nil && target.Role.Authority() > caller.Role.Authority() {
		return Deny
	}
	return Allow
}

// CanChangeStatus reports whether caller may suspend or reactivate target.
func CanChangeStatus(caller *models.Account, target *models.Account) Decision {
	if !hasRole(caller) || !isManager(caller) || target == nil {
		return Deny
	}
	if target.Role.Authority() > caller.Role.Authority() {
		return Deny
	}
	return Allow
}

func hasRole(caller *models.Account) bool {
	return caller != nil && caller.Role.Valid()
}

func isManager(caller *models.Account) bool {
	return caller.Role == models.RoleAdministrator || caller.Role == models.RoleUserManager
}
