// Package sqlstore provides a SQL implementation of the storage.Store
// interface for SQLite and PostgreSQL.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver "pgx"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"  // PostgreSQL driver "postgres"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/calories/internal/storage"
)

// Dialect is the SQL flavour spoken by the underlying database.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// drivers maps supported database/sql driver names to their dialect.
var drivers = map[string]Dialect{
	"sqlite":   DialectSQLite,
	"pgx":      DialectPostgres,
	"postgres": DialectPostgres,
}

// DialectFor returns the dialect of a driver name.
func DialectFor(driver string) (Dialect, error) {
	d, ok := drivers[driver]
	if !ok {
		return "", fmt.Errorf("unsupported database driver %q", driver)
	}
	return d, nil
}

// Ensure SQLStore implements storage.Store
var _ storage.Store = (*SQLStore)(nil)

// SQLStore implements storage.Store on top of database/sql.
type SQLStore struct {
	db      *sqlx.DB
	q       sqlx.ExtContext // db, or the transaction of a WithTx store
	dialect Dialect
	sb      sq.StatementBuilderType
}

// New opens a database with the given driver and DSN and runs migrations.
// For SQLite the DSN may be a plain file path; parent directories are created
// and foreign keys are enabled.
func New(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	dialect, err := DialectFor(driver)
	if err != nil {
		return nil, err
	}

	if dialect == DialectSQLite {
		dsn, err = sqliteDSN(dsn)
		if err != nil {
			return nil, err
		}
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dialect == DialectSQLite {
		// SQLite allows one writer; keep every statement on one connection.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := runMigrations(ctx, db, dialect); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return newStore(db, dialect), nil
}

// NewWithDB wraps an already opened database without running migrations.
func NewWithDB(db *sqlx.DB, dialect Dialect) *SQLStore {
	return newStore(db, dialect)
}

func newStore(db *sqlx.DB, dialect Dialect) *SQLStore {
	var placeholder sq.PlaceholderFormat = sq.Question
	if dialect == DialectPostgres {
		placeholder = sq.Dollar
	}
	return &SQLStore{
		db:      db,
		q:       db,
		dialect: dialect,
		sb:      sq.StatementBuilder.PlaceholderFormat(placeholder),
	}
}

// sqliteDSN turns a file path into a modernc DSN with foreign keys enabled.
func sqliteDSN(dsn string) (string, error) {
	if strings.HasPrefix(dsn, "file:") {
		return dsn, nil
	}
	if dsn != ":memory:" {
		// Create parent directory if it doesn't exist
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return "", fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	return "file:" + dsn + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", nil
}

// Dialect returns the SQL dialect of the store.
func (s *SQLStore) Dialect() Dialect {
	return s.dialect
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// WithTx runs fn inside a transaction. Nested calls reuse the outer transaction.
func (s *SQLStore) WithTx(ctx context.Context, fn func(tx storage.Store) error) error {
	if _, ok := s.q.(*sqlx.Tx); ok {
		return fn(s)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	txStore := &SQLStore{db: s.db, q: tx, dialect: s.dialect, sb: s.sb}
	if err := fn(txStore); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", translate(err))
	}
	return nil
}

func (s *SQLStore) get(ctx context.Context, dest any, b sq.Sqlizer) error {
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}
	err = sqlx.GetContext(ctx, s.q, dest, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	return err
}

func (s *SQLStore) selectAll(ctx context.Context, dest any, b sq.Sqlizer) error {
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}
	return sqlx.SelectContext(ctx, s.q, dest, query, args...)
}

func (s *SQLStore) exec(ctx context.Context, b sq.Sqlizer) (sql.Result, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build statement: %w", err)
	}
	res, err := s.q.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, translate(err)
	}
	return res, nil
}

// execOne runs b and returns storage.ErrNotFound when it touched no rows.
func (s *SQLStore) execOne(ctx context.Context, b sq.Sqlizer) error {
	res, err := s.exec(ctx, b)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
