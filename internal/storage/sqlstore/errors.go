package sqlstore

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mmynk/calories/internal/storage"
)

// PostgreSQL SQLSTATE codes for integrity violations.
const (
	pgUniqueViolation     = "23505"
	pgCheckViolation      = "23514"
	pgForeignKeyViolation = "23503"
	pgNotNullViolation    = "23502"
	pgNumericOutOfRange   = "22003"
)

// translate maps driver constraint errors onto the storage sentinels.
// Other errors are returned unchanged.
func translate(err error) error {
	if err == nil {
		return nil
	}
	switch classify(err) {
	case storage.ErrDuplicate:
		return fmt.Errorf("%w: %v", storage.ErrDuplicate, err)
	case storage.ErrConstraint:
		return fmt.Errorf("%w: %v", storage.ErrConstraint, err)
	default:
		return err
	}
}

func classify(err error) error {
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return storage.ErrDuplicate
		case sqlite3.SQLITE_CONSTRAINT_CHECK, sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY, sqlite3.SQLITE_CONSTRAINT_NOTNULL:
			return storage.ErrConstraint
		}
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return classifySQLState(pgErr.Code)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return classifySQLState(string(pqErr.Code))
	}

	return nil
}

func classifySQLState(code string) error {
	switch code {
	case pgUniqueViolation:
		return storage.ErrDuplicate
	case pgCheckViolation, pgForeignKeyViolation, pgNotNullViolation, pgNumericOutOfRange:
		return storage.ErrConstraint
	}
	return nil
}
