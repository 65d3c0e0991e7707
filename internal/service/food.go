package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mmynk/calories/internal/access"
	"github.com/mmynk/calories/internal/calculator"
	"github.com/mmynk/calories/internal/lookup"
	"github.com/mmynk/calories/internal/models"
	"github.com/mmynk/calories/internal/storage"
)

// CalorieLookup resolves a food name to calories.
type CalorieLookup interface {
	Lookup(ctx context.Context, name string) (lookup.Result, error)
}

// FoodInput carries food record fields of a request. Nil fields were omitted
// or sent blank.
type FoodInput struct {
	Name     *string
	Calories *int
}

// FoodFilter narrows a food record listing. Zero values do not filter.
type FoodFilter struct {
	// Item matches records whose name contains it, ignoring case.
	Item string
	// Consumer matches records of the account with this username.
	Consumer string
	// Date selects records created on this calendar day.
	Date time.Time
	// Exceeded matches the stored exceeded_daily_limit flag when set.
	Exceeded *bool
	// Ordering is one of timestamp, -timestamp, calories, -calories.
	Ordering string
	Limit    uint64
	Offset   uint64
}

// FoodService implements food record logging.
type FoodService struct {
	store    storage.Store
	limits   *calculator.DailyLimit
	lookup   CalorieLookup
	observer Observer
	logger   *slog.Logger
	now      func() time.Time
}

// FoodOption configures a FoodService.
type FoodOption func(*FoodService)

// WithObserver reports service events to o.
func WithObserver(o Observer) FoodOption {
	return func(s *FoodService) { s.observer = o }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) FoodOption {
	return func(s *FoodService) { s.now = now }
}

// NewFoodService creates a new FoodService. calories may be nil, in which
// case records without calories are rejected.
func NewFoodService(store storage.Store, limits *calculator.DailyLimit, calories CalorieLookup, logger *slog.Logger, opts ...FoodOption) *FoodService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &FoodService{
		store:    store,
		limits:   limits,
		lookup:   calories,
		observer: nopObserver{},
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Location is the time zone calendar days are computed in.
func (s *FoodService) Location() *time.Location {
	return s.limits.Location()
}

// CreateFoodRecord logs food for the caller. Omitted or zero calories are
// looked up by name. The exceeded flag is computed against the caller's
// intake earlier the same day and stored with the record.
func (s *FoodService) CreateFoodRecord(ctx context.Context, caller *models.Account, in FoodInput) (*models.FoodRecord, error) {
	if !access.CanCreateFoodRecord(caller).Allowed() {
		return nil, ErrForbidden
	}

	verr := &ValidationError{}
	var name string
	if in.Name == nil {
		verr.Add("name", msgRequired)
	} else {
		name = validateFoodName(verr, *in.Name)
	}
	calories := 0
	if in.Calories != nil {
		calories = *in.Calories
		if calories < 0 {
			verr.Add("calories", "Ensure this value is greater than or equal to 0.")
		} else if calories > models.MaxCalories {
			verr.Addf("calories", msgTooLarge, models.MaxCalories)
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	lookedUp := false
	if calories == 0 {
		var err error
		if calories, err = s.lookupCalories(ctx, name); err != nil {
			return nil, err
		}
		lookedUp = true
	}

	record := &models.FoodRecord{
		OwnerID:       caller.ID,
		OwnerUsername: caller.Username,
		Name:          name,
		Calories:      calories,
		CreatedAt:     s.now(),
	}

	err := s.store.WithTx(ctx, func(tx storage.Store) error {
		owner, err := tx.GetAccount(ctx, caller.ID)
		if err != nil {
			return err
		}
		exceeded, err := s.limits.Evaluate(ctx, tx, owner, record.Calories, record.CreatedAt)
		if err != nil {
			return err
		}
		record.ExceededDailyLimit = exceeded
		return tx.CreateFoodRecord(ctx, record)
	})
	if errors.Is(err, storage.ErrConstraint) {
		return nil, fieldError(NonFieldErrors, msgFoodNotSaved)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create food record: %w", err)
	}

	s.observer.FoodRecordCreated(record.ExceededDailyLimit, lookedUp)
	s.logger.Info("Food record created",
		"record_id", record.ID,
		"account_id", caller.ID,
		"calories", record.Calories,
		"looked_up", lookedUp,
		"exceeded", record.ExceededDailyLimit,
	)
	return record, nil
}

func (s *FoodService) lookupCalories(ctx context.Context, name string) (int, error) {
	if s.lookup == nil {
		return 0, fieldError("calories", msgRequired)
	}
	res, err := s.lookup.Lookup(ctx, name)
	if err == nil && res.Calories > models.MaxCalories {
		err = fmt.Errorf("%w: %s answered %d calories", lookup.ErrNoResult, res.Provider, res.Calories)
	}
	s.observer.CalorieLookup(res.Provider, err)
	if err != nil {
		s.logger.Warn("Calorie lookup failed", "name", name, "error", err)
		return 0, fieldError("name", "Could not find the calories for this food. Please enter them manually.")
	}
	return res.Calories, nil
}

// ListFoodRecords returns the caller's visible records matching f.
// Normal users and user managers see their own records only.
func (s *FoodService) ListFoodRecords(ctx context.Context, caller *models.Account, f FoodFilter) ([]*models.FoodRecord, error) {
	scope, err := access.FoodRecordScope(caller)
	if errors.Is(err, access.ErrNoRole) {
		return nil, ErrForbidden
	}
	if err != nil {
		return nil, err
	}

	q := storage.FoodQuery{
		NameContains: strings.TrimSpace(f.Item),
		Exceeded:     f.Exceeded,
		OrderBy:      storage.DefaultFoodOrdering,
		Limit:        f.Limit,
		Offset:       f.Offset,
	}
	if !scope.All {
		q.OwnerID = scope.OwnerID
	}
	if f.Consumer != "" {
		q.OwnerUsername = models.NormalizeUsername(f.Consumer)
	}
	if f.Ordering != "" {
		q.OrderBy = storage.FoodOrdering(f.Ordering)
		if !q.OrderBy.Valid() {
			return nil, fieldError("ordering", fmt.Sprintf("Select a valid choice. %s is not one of the available choices.", f.Ordering))
		}
	}
	if !f.Date.IsZero() {
		q.From, q.To = s.limits.DayBounds(f.Date)
	}
	verr := &ValidationError{}
	if f.Limit > math.MaxInt64 {
		verr.Addf("limit", msgTooLarge, uint64(math.MaxInt64))
	}
	if f.Offset > math.MaxInt64 {
		verr.Addf("offset", msgTooLarge, uint64(math.MaxInt64))
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	records, err := s.store.ListFoodRecords(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list food records: %w", err)
	}
	return records, nil
}

// GetFoodRecord returns one record. Records the caller may not read are
// reported as ErrNotFound.
func (s *FoodService) GetFoodRecord(ctx context.Context, caller *models.Account, id string) (*models.FoodRecord, error) {
	return s.loadAuthorized(ctx, caller, access.OpRead, id)
}

// UpdateFoodRecord changes the name and calories of a record. The owner,
// timestamp and exceeded flag never change. Without partial, both fields
// are required.
func (s *FoodService) UpdateFoodRecord(ctx context.Context, caller *models.Account, id string, in FoodInput, partial bool) (*models.FoodRecord, error) {
	record, err := s.loadAuthorized(ctx, caller, access.OpUpdate, id)
	if err != nil {
		return nil, err
	}

	verr := &ValidationError{}
	updated := *record
	if in.Name != nil {
		updated.Name = validateFoodName(verr, *in.Name)
	} else if !partial {
		verr.Add("name", msgRequired)
	}
	if in.Calories != nil {
		updated.Calories = *in.Calories
		if updated.Calories < 1 {
			verr.Add("calories", "Ensure this value is greater than or equal to 1.")
		} else if updated.Calories > models.MaxCalories {
			verr.Addf("calories", msgTooLarge, models.MaxCalories)
		}
	} else if !partial {
		verr.Add("calories", msgRequired)
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	if err := s.store.UpdateFoodRecord(ctx, &updated); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		if errors.Is(err, storage.ErrConstraint) {
			return nil, fieldError(NonFieldErrors, msgFoodNotSaved)
		}
		return nil, fmt.Errorf("failed to update food record: %w", err)
	}

	s.logger.Info("Food record updated", "record_id", updated.ID, "updated_by", caller.ID)
	return &updated, nil
}

// DeleteFoodRecord removes a record.
func (s *FoodService) DeleteFoodRecord(ctx context.Context, caller *models.Account, id string) error {
	record, err := s.loadAuthorized(ctx, caller, access.OpDelete, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteFoodRecord(ctx, record.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete food record: %w", err)
	}

	s.logger.Info("Food record deleted", "record_id", record.ID, "deleted_by", caller.ID)
	return nil
}

// TodaySummary reports the caller's intake so far today.
func (s *FoodService) TodaySummary(ctx context.Context, caller *models.Account) (*calculator.Summary, error) {
	if !access.CanCreateFoodRecord(caller).Allowed() {
		return nil, ErrForbidden
	}
	summary, err := s.limits.Today(ctx, s.store, caller, s.now())
	if err != nil {
		return nil, err
	}
	return summary, nil
}

func (s *FoodService) loadAuthorized(ctx context.Context, caller *models.Account, op access.Operation, id string) (*models.FoodRecord, error) {
	record, err := s.store.GetFoodRecord(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load food record: %w", err)
	}
	if !access.Authorize(caller, op, access.FoodRecordTarget(record)).Allowed() {
		return nil, ErrNotFound
	}
	return record, nil
}

func validateFoodName(verr *ValidationError, raw string) string {
	name := strings.TrimSpace(raw)
	switch {
	case name == "":
		verr.Add("name", msgBlank)
	case utf8.RuneCountInString(name) > models.MaxFoodNameLength:
		verr.Addf("name", "Ensure this field has no more than %d characters.", models.MaxFoodNameLength)
	}
	return name
}
