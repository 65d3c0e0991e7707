package calculator

import (
	"context"
	"fmt"
	"time"

	"github.com/mmynk/calories/internal/models"
)

// CalorieSummer sums the calories an owner logged in [from, to).
// Implementations must treat "no rows" as zero.
type CalorieSummer interface {
	SumCalories(ctx context.Context, ownerID string, from, to time.Time) (int, error)
}

// DailyLimit evaluates calorie totals against an account's daily maximum.
// Days start at local midnight in loc.
type DailyLimit struct {
	loc *time.Location
}

// NewDailyLimit creates a DailyLimit for the given time zone.
// A nil location means time.Local.
func NewDailyLimit(loc *time.Location) *DailyLimit {
	if loc == nil {
		loc = time.Local
	}
	return &DailyLimit{loc: loc}
}

// Location returns the time zone days are computed in.
func (d *DailyLimit) Location() *time.Location {
	return d.loc
}

// DayStart returns midnight of the day containing now.
func (d *DailyLimit) DayStart(now time.Time) time.Time {
	local := now.In(d.loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, d.loc)
}

// DayBounds returns [midnight, next midnight) for the day containing t.
func (d *DailyLimit) DayBounds(t time.Time) (time.Time, time.Time) {
	start := d.DayStart(t)
	return start, start.AddDate(0, 0, 1)
}

// ExceedsLimit reports whether adding calories to priorTotal goes strictly
// over max. The sum is never formed, so it cannot overflow.
func ExceedsLimit(priorTotal, calories, max int) bool {
	if priorTotal > max {
		return true
	}
	return calories > max-priorTotal
}

// Evaluate decides whether a new entry of calories, created at now, takes
// account over its daily maximum.
//
// Only records created in [start of day, now) count towards the prior total;
// the entry being evaluated is not persisted yet and is not part of it.
func (d *DailyLimit) Evaluate(ctx context.Context, records CalorieSummer, account *models.Account, calories int, now time.Time) (bool, error) {
	prior, err := records.SumCalories(ctx, account.ID, d.DayStart(now), now)
	if err != nil {
		return false, fmt.Errorf("failed to sum today's calories: %w", err)
	}
	return ExceedsLimit(prior, calories, account.Profile.MaxDailyCalories), nil
}

// Summary is an account's intake for the current day.
type Summary struct {
	Date      time.Time
	Consumed  int
	Max       int
	Remaining int
	Exceeded  bool
}

// Today summarises account's intake from midnight up to now.
func (d *DailyLimit) Today(ctx context.Context, records CalorieSummer, account *models.Account, now time.Time) (*Summary, error) {
	start := d.DayStart(now)
	// Include records stamped exactly at now.
	consumed, err := records.SumCalories(ctx, account.ID, start, now.Add(time.Nanosecond))
	if err != nil {
		return nil, fmt.Errorf("failed to sum today's calories: %w", err)
	}

	max := account.Profile.MaxDailyCalories
	remaining := max - consumed
	if remaining < 0 {
		remaining = 0
	}

	return &Summary{
		Date:      start,
		Consumed:  consumed,
		Max:       max,
		Remaining: remaining,
		Exceeded:  consumed > max,
	}, nil
}
