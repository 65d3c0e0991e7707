package models

import (
	"math"
	"time"
)

// Account represents a registered identity.
type Account struct {
	// ID is the unique identifier for the account (UUID format).
	ID string

	// Username is unique and non-empty. It is stored NFKC-normalised.
	Username string

	// PasswordHash is the bcrypt hash of the password. Never returned to callers.
	PasswordHash string

	// Role is the single role of the account. RoleNone denies everything.
	Role Role

	// Active is false for suspended accounts; they cannot log in or use tokens.
	Active bool

	// Staff marks bootstrap administrator accounts created from the command line.
	// Staff accounts are hidden from account listings.
	Staff bool

	// Profile is owned 1:1 by the account and deleted with it.
	Profile Profile

	// CreatedAt is when the account was created.
	CreatedAt time.Time
}

// Profile holds per-account settings.
type Profile struct {
	// MaxDailyCalories is the daily calorie ceiling. Always >= 1.
	MaxDailyCalories int
}

// MinDailyCalories is the smallest allowed MaxDailyCalories.
const MinDailyCalories = 1

// MaxCalories bounds every stored calorie amount, both food record calories
// and MaxDailyCalories. It fits the INTEGER columns of every backend.
const MaxCalories = math.MaxInt32
