package calculator

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/mmynk/calories/internal/models"
)

type entry struct {
	owner    string
	at       time.Time
	calories int
}

// fakeLog is an in-memory CalorieSummer.
type fakeLog struct {
	entries []entry
	err     error
}

func (f *fakeLog) SumCalories(_ context.Context, ownerID string, from, to time.Time) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	total := 0
	for _, e := range f.entries {
		if e.owner == ownerID && !e.at.Before(from) && e.at.Before(to) {
			total += e.calories
		}
	}
	return total, nil
}

func TestExceedsLimit(t *testing.T) {
	tests := []struct {
		name     string
		prior    int
		calories int
		max      int
		want     bool
	}{
		{"first entry under max", 0, 1500, 2000, false},
		{"first entry over max", 0, 2500, 2000, true},
		{"first entry equal to max", 0, 2000, 2000, false},
		{"prior plus entry over max", 1800, 300, 2000, true},
		{"prior plus entry equal to max", 1800, 200, 2000, false},
		{"prior already over max", 2100, 1, 2000, true},
		{"entry near int max does not wrap", 5, math.MaxInt64 - 2, 2000, true},
		{"prior near int max does not wrap", math.MaxInt64 - 1, 10, 2000, true},
		{"max at int max", math.MaxInt32, math.MaxInt32, math.MaxInt64, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExceedsLimit(tt.prior, tt.calories, tt.max); got != tt.want {
				t.Errorf("ExceedsLimit(%d, %d, %d) = %v, want %v", tt.prior, tt.calories, tt.max, got, tt.want)
			}
		})
	}
}

func TestEvaluate(t *testing.T) {
	loc := time.UTC
	d := NewDailyLimit(loc)
	now := time.Date(2024, 3, 10, 18, 30, 0, 0, loc)
	user := &models.Account{ID: "u1", Profile: models.Profile{MaxDailyCalories: 2000}}

	tests := []struct {
		name     string
		entries  []entry
		calories int
		want     bool
	}{
		{
			name:     "no prior records, entry below max",
			calories: 1500,
			want:     false,
		},
		{
			name:     "no prior records, entry above max",
			calories: 2500,
			want:     true,
		},
		{
			name: "prior 1800 plus 300 exceeds",
			entries: []entry{
				{"u1", now.Add(-8 * time.Hour), 1000},
				{"u1", now.Add(-time.Hour), 800},
			},
			calories: 300,
			want:     true,
		},
		{
			name: "prior 1800 plus 200 reaches but does not exceed",
			entries: []entry{
				{"u1", now.Add(-8 * time.Hour), 1000},
				{"u1", now.Add(-time.Hour), 800},
			},
			calories: 200,
			want:     false,
		},
		{
			name: "yesterday does not count",
			entries: []entry{
				{"u1", time.Date(2024, 3, 9, 23, 59, 59, 999999999, loc), 5000},
			},
			calories: 100,
			want:     false,
		},
		{
			name: "other owners do not count",
			entries: []entry{
				{"u2", now.Add(-time.Hour), 5000},
			},
			calories: 100,
			want:     false,
		},
		{
			name: "record at midnight counts",
			entries: []entry{
				{"u1", time.Date(2024, 3, 10, 0, 0, 0, 0, loc), 1950},
			},
			calories: 100,
			want:     true,
		},
		{
			name: "record stamped exactly now is excluded",
			entries: []entry{
				{"u1", now, 1950},
			},
			calories: 100,
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.Evaluate(context.Background(), &fakeLog{entries: tt.entries}, user, tt.calories, now)
			if err != nil {
				t.Fatalf("Evaluate failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Evaluate = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluateSumError(t *testing.T) {
	d := NewDailyLimit(time.UTC)
	user := &models.Account{ID: "u1", Profile: models.Profile{MaxDailyCalories: 2000}}
	boom := errors.New("database is locked")

	_, err := d.Evaluate(context.Background(), &fakeLog{err: boom}, user, 10, time.Now())
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestDayStartUsesLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	d := NewDailyLimit(tokyo)

	// 2024-03-10 20:00 UTC is 2024-03-11 05:00 in Tokyo.
	now := time.Date(2024, 3, 10, 20, 0, 0, 0, time.UTC)
	start := d.DayStart(now)

	want := time.Date(2024, 3, 11, 0, 0, 0, 0, tokyo)
	if !start.Equal(want) {
		t.Errorf("DayStart = %v, want %v", start, want)
	}

	from, to := d.DayBounds(now)
	if !from.Equal(want) || !to.Equal(want.AddDate(0, 0, 1)) {
		t.Errorf("DayBounds = [%v, %v)", from, to)
	}
}

func TestNewDailyLimitDefaultsToLocal(t *testing.T) {
	if NewDailyLimit(nil).Location() != time.Local {
		t.Error("expected time.Local")
	}
}

func TestToday(t *testing.T) {
	loc := time.UTC
	d := NewDailyLimit(loc)
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, loc)
	user := &models.Account{ID: "u1", Profile: models.Profile{MaxDailyCalories: 2000}}

	log := &fakeLog{entries: []entry{
		{"u1", now.Add(-2 * time.Hour), 700},
		{"u1", now, 600},
		{"u1", now.AddDate(0, 0, -1), 900},
	}}

	summary, err := d.Today(context.Background(), log, user, now)
	if err != nil {
		t.Fatalf("Today failed: %v", err)
	}
	if summary.Consumed != 1300 {
		t.Errorf("Consumed = %d, want 1300", summary.Consumed)
	}
	if summary.Remaining != 700 {
		t.Errorf("Remaining = %d, want 700", summary.Remaining)
	}
	if summary.Exceeded {
		t.Error("expected not exceeded")
	}

	log.entries = append(log.entries, entry{"u1", now.Add(-time.Minute), 1000})
	summary, err = d.Today(context.Background(), log, user, now)
	if err != nil {
		t.Fatalf("Today failed: %v", err)
	}
	if !summary.Exceeded || summary.Remaining != 0 {
		t.Errorf("expected exceeded with nothing remaining, got %+v", summary)
	}
}
