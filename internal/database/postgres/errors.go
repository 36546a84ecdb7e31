package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/koustreak/colsuggest/internal/errs"
)

// PostgreSQL SQLSTATE codes relevant to reads.
// Full list: https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pgErrQueryCanceled     = "57014"
	pgErrUndefinedTable    = "42P01"
	pgErrUndefinedColumn   = "42703"
	pgErrInsufficientPriv  = "42501"
	pgErrInvalidTextRepr   = "22P02"
	pgClassConnection      = "08"
	pgClassInvalidAuthSpec = "28"
)

// mapError translates pgx / pgconn native errors into *errs.Error.
func mapError(err error, msg string) *errs.Error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return errs.Wrap(errs.ErrKindNotFound, msg, err)
	}

	// Postgres server-side error (SQLSTATE codes)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return errs.Wrap(classifySQLState(pgErr.Code), fmt.Sprintf("%s: %s", msg, pgErr.Message), err)
	}

	// Fallthrough: connection-level errors (TLS, network, auth)
	return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
}

func classifySQLState(code string) errs.ErrKind {
	switch {
	case code == pgErrQueryCanceled:
		return errs.ErrKindTimeout
	case code == pgErrUndefinedTable:
		return errs.ErrKindNotFound
	case code == pgErrUndefinedColumn, code == pgErrInvalidTextRepr:
		return errs.ErrKindInvalidInput
	case code == pgErrInsufficientPriv, strings.HasPrefix(code, pgClassInvalidAuthSpec):
		return errs.ErrKindPermissionDenied
	case strings.HasPrefix(code, pgClassConnection):
		return errs.ErrKindConnectionFailed
	default:
		return errs.ErrKindQueryFailed
	}
}
