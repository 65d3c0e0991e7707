package sqlstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// sqliteSchema sets up the database schema on SQLite.
// These run on startup to ensure tables exist.
// food_records.owner_id deliberately has no foreign key: records outlive
// their owner.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS accounts (
    id TEXT PRIMARY KEY,
    username TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    role TEXT NOT NULL DEFAULT '',
    is_active INTEGER NOT NULL DEFAULT 1,
    is_staff INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS profiles (
    account_id TEXT PRIMARY KEY,
    max_daily_calories INTEGER NOT NULL CHECK (max_daily_calories >= 1),
    FOREIGN KEY (account_id) REFERENCES accounts(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS food_records (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    name TEXT NOT NULL,
    calories INTEGER NOT NULL,
    exceeded_daily_limit INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS tokens (
    account_id TEXT PRIMARY KEY,
    token TEXT NOT NULL UNIQUE,
    created_at INTEGER NOT NULL,
    FOREIGN KEY (account_id) REFERENCES accounts(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_food_records_owner_created ON food_records(owner_id, created_at);
CREATE INDEX IF NOT EXISTS idx_food_records_created ON food_records(created_at);
`

// postgresSchema is sqliteSchema for PostgreSQL.
const postgresSchema = `
CREATE TABLE IF NOT EXISTS accounts (
    id TEXT PRIMARY KEY,
    username TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    role TEXT NOT NULL DEFAULT '',
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    is_staff BOOLEAN NOT NULL DEFAULT FALSE,
    created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS profiles (
    account_id TEXT PRIMARY KEY REFERENCES accounts(id) ON DELETE CASCADE,
    max_daily_calories INTEGER NOT NULL CHECK (max_daily_calories >= 1)
);

CREATE TABLE IF NOT EXISTS food_records (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    name TEXT NOT NULL,
    calories INTEGER NOT NULL,
    exceeded_daily_limit BOOLEAN NOT NULL DEFAULT FALSE,
    created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS tokens (
    account_id TEXT PRIMARY KEY REFERENCES accounts(id) ON DELETE CASCADE,
    token TEXT NOT NULL UNIQUE,
    created_at BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_food_records_owner_created ON food_records(owner_id, created_at);
CREATE INDEX IF NOT EXISTS idx_food_records_created ON food_records(created_at);
`

func schemaFor(d Dialect) string {
	if d == DialectPostgres {
		return postgresSchema
	}
	return sqliteSchema
}

// runMigrations executes the schema setup one statement at a time.
func runMigrations(ctx context.Context, db *sqlx.DB, d Dialect) error {
	for _, stmt := range strings.Split(schemaFor(d), ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply %q: %w", firstLine(stmt), err)
		}
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
