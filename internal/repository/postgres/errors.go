package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes the repositories translate into domain errors
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
)

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsPgDuplicateError reports a unique constraint violation
func IsPgDuplicateError(err error) bool { return pgErrorCode(err) == codeUniqueViolation }

// IsPgForeignKeyError reports a foreign key violation
func IsPgForeignKeyError(err error) bool { return pgErrorCode(err) == codeForeignKeyViolation }

// IsPgCheckError reports a CHECK constraint violation
func IsPgCheckError(err error) bool { return pgErrorCode(err) == codeCheckViolation }

// IsPgNoRowsError reports a query that matched no row
func IsPgNoRowsError(err error) bool { return errors.Is(err, pgx.ErrNoRows) }
