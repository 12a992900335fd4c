package errors

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// pgUniqueViolation is the SQLSTATE Postgres reports for a unique index clash.
const pgUniqueViolation = "23505"

// IsDuplicateKeyError reports whether err is a unique constraint violation from
// Postgres, SQLite or GORM's translated form.
func IsDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}

	// The sqlite driver only exposes the violation through its message.
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
