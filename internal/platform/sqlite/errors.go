package sqlite

import (
	"database/sql"
	"errors"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"bizflow/internal/shared"
)

// Classify помечает ошибку драйвера видом из shared:
// sql.ErrNoRows -> NotFound, нарушение UNIQUE/PRIMARY KEY -> Conflict,
// отмена и таймаут контекста остаются как есть, всё остальное -> DependencyFailure.
func Classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return shared.MarkKind(err, shared.KindNotFound)
	case shared.IsCanceled(err), shared.IsTimeout(err):
		return err
	case IsUniqueViolation(err):
		return shared.MarkKind(err, shared.KindConflict)
	default:
		return shared.MarkKind(err, shared.KindDependencyFailure)
	}
}

// IsUniqueViolation сообщает о нарушении UNIQUE или PRIMARY KEY.
func IsUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		c := se.Code()
		return c == sqlite3.SQLITE_CONSTRAINT_UNIQUE || c == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}

// IsBusy сообщает о SQLITE_BUSY / SQLITE_LOCKED.
func IsBusy(err error) bool {
	if err == nil {
		return false
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		primary := se.Code() & 0xff
		return primary == sqlite3.SQLITE_BUSY || primary == sqlite3.SQLITE_LOCKED
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
}
