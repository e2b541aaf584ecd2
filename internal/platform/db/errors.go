package db

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/swarnabindu/prashan/internal/platform/apperr"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
)

// Classify maps driver errors onto apperr values so handlers can pick a status
// without knowing about Postgres.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return fmt.Errorf("%s: %w", pgErr.ConstraintName, apperr.ErrDuplicate)
		case codeForeignKeyViolation:
			return apperr.Invalid("referenced record does not exist", pgErr.ColumnName)
		case codeCheckViolation:
			return apperr.Invalid("value rejected by constraint "+pgErr.ConstraintName, pgErr.ColumnName)
		}
	}
	return err
}
