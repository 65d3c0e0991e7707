package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/mmynk/calories/internal/models"
	"github.com/mmynk/calories/internal/storage"
)

type foodRow struct {
	ID                 string         `db:"id"`
	OwnerID            string         `db:"owner_id"`
	OwnerUsername      sql.NullString `db:"owner_username"`
	Name               string         `db:"name"`
	Calories           int64          `db:"calories"`
	ExceededDailyLimit bool           `db:"exceeded_daily_limit"`
	CreatedAt          int64          `db:"created_at"`
}

func (r *foodRow) toModel() *models.FoodRecord {
	return &models.FoodRecord{
		ID:                 r.ID,
		OwnerID:            r.OwnerID,
		OwnerUsername:      r.OwnerUsername.String,
		Name:               r.Name,
		Calories:           int(r.Calories),
		ExceededDailyLimit: r.ExceededDailyLimit,
		CreatedAt:          time.Unix(0, r.CreatedAt),
	}
}

func (s *SQLStore) selectFood() sq.SelectBuilder {
	return s.sb.Select(
		"f.id", "f.owner_id", "a.username AS owner_username", "f.name",
		"f.calories", "f.exceeded_daily_limit", "f.created_at",
	).
		From("food_records f").
		LeftJoin("accounts a ON a.id = f.owner_id")
}

var foodOrderings = map[storage.FoodOrdering][]string{
	storage.OrderNewestFirst:  {"f.created_at DESC", "f.id"},
	storage.OrderOldestFirst:  {"f.created_at ASC", "f.id"},
	storage.OrderCaloriesAsc:  {"f.calories ASC", "f.created_at DESC", "f.id"},
	storage.OrderCaloriesDesc: {"f.calories DESC", "f.created_at DESC", "f.id"},
}

// CreateFoodRecord persists a new food record.
func (s *SQLStore) CreateFoodRecord(ctx context.Context, record *models.FoodRecord) error {
	// Generate ID if not set
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	_, err := s.exec(ctx, s.sb.Insert("food_records").
		Columns("id", "owner_id", "name", "calories", "exceeded_daily_limit", "created_at").
		Values(record.ID, record.OwnerID, record.Name, record.Calories,
			record.ExceededDailyLimit, record.CreatedAt.UnixNano()))
	if err != nil {
		return fmt.Errorf("failed to insert food record: %w", err)
	}
	return nil
}

// GetFoodRecord retrieves a food record by ID.
func (s *SQLStore) GetFoodRecord(ctx context.Context, id string) (*models.FoodRecord, error) {
	var row foodRow
	err := s.get(ctx, &row, s.selectFood().Where(sq.Eq{"f.id": id}))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("food record %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get food record: %w", err)
	}
	return row.toModel(), nil
}

// ListFoodRecords returns food records matching q. The owner scope is the
// first condition of the query.
func (s *SQLStore) ListFoodRecords(ctx context.Context, q storage.FoodQuery) ([]*models.FoodRecord, error) {
	b := s.selectFood()
	if q.OwnerID != "" {
		b = b.Where(sq.Eq{"f.owner_id": q.OwnerID})
	}

	if q.NameContains != "" {
		b = b.Where(sq.Expr(`LOWER(f.name) LIKE ? ESCAPE '\'`, likePattern(q.NameContains)))
	}
	if q.OwnerUsername != "" {
		b = b.Where(sq.Eq{"a.username": q.OwnerUsername})
	}
	if !q.From.IsZero() {
		b = b.Where(sq.GtOrEq{"f.created_at": q.From.UnixNano()})
	}
	if !q.To.IsZero() {
		b = b.Where(sq.Lt{"f.created_at": q.To.UnixNano()})
	}
	if q.Exceeded != nil {
		b = b.Where(sq.Eq{"f.exceeded_daily_limit": *q.Exceeded})
	}

	order := q.OrderBy
	if order == "" {
		order = storage.DefaultFoodOrdering
	}
	columns, ok := foodOrderings[order]
	if !ok {
		return nil, fmt.Errorf("unsupported ordering %q", order)
	}
	b = b.OrderBy(columns...)

	if q.Limit > 0 {
		b = b.Limit(q.Limit)
	} else if q.Offset > 0 {
		// SQLite only accepts OFFSET together with LIMIT.
		b = b.Limit(math.MaxInt64)
	}
	if q.Offset > 0 {
		b = b.Offset(q.Offset)
	}

	var rows []foodRow
	if err := s.selectAll(ctx, &rows, b); err != nil {
		return nil, fmt.Errorf("failed to list food records: %w", err)
	}

	records := make([]*models.FoodRecord, 0, len(rows))
	for i := range rows {
		records = append(records, rows[i].toModel())
	}
	return records, nil
}

// UpdateFoodRecord saves the name and calories of a record. Owner, timestamp
// and the exceeded flag never change.
func (s *SQLStore) UpdateFoodRecord(ctx context.Context, record *models.FoodRecord) error {
	err := s.execOne(ctx, s.sb.Update("food_records").
		Set("name", record.Name).
		Set("calories", record.Calories).
		Where(sq.Eq{"id": record.ID}))
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("food record %s: %w", record.ID, storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to update food record: %w", err)
	}
	return nil
}

// DeleteFoodRecord removes a food record by ID.
func (s *SQLStore) DeleteFoodRecord(ctx context.Context, id string) error {
	err := s.execOne(ctx, s.sb.Delete("food_records").Where(sq.Eq{"id": id}))
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("food record %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to delete food record: %w", err)
	}
	return nil
}

// SumCalories totals ownerID's calories for records created in [from, to).
func (s *SQLStore) SumCalories(ctx context.Context, ownerID string, from, to time.Time) (int, error) {
	var total int64
	err := s.get(ctx, &total, s.sb.Select("COALESCE(SUM(calories), 0)").
		From("food_records").
		Where(sq.Eq{"owner_id": ownerID}).
		Where(sq.GtOrEq{"created_at": from.UnixNano()}).
		Where(sq.Lt{"created_at": to.UnixNano()}))
	if err != nil {
		return 0, fmt.Errorf("failed to sum calories: %w", err)
	}
	return int(total), nil
}

// likePattern builds a lower-case LIKE pattern matching s anywhere, with
// wildcards in s escaped.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(s)) + "%"
}
