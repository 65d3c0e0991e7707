package models

import "time"

// MaxFoodNameLength bounds FoodRecord.Name, in characters.
const MaxFoodNameLength = 200

// FoodRecord is a logged food item.
type FoodRecord struct {
	// ID is the unique identifier for the record (UUID format).
	ID string

	// OwnerID references the account that created the record. Immutable.
	// The account may have been deleted since; the record is kept.
	OwnerID string

	// OwnerUsername is resolved on read. Empty when the owner no longer exists.
	OwnerUsername string

	// Name is the free-text food name (non-empty, at most MaxFoodNameLength).
	Name string

	// Calories consumed. Filled from the calorie lookup when omitted at creation.
	Calories int

	// ExceededDailyLimit records whether this entry pushed the owner's daily
	// total over the limit when it was created. Never recomputed.
	ExceededDailyLimit bool

	// CreatedAt is assigned by the server at creation. Immutable.
	CreatedAt time.Time
}
