package repository

import (
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("duplicate record")
	// ErrMissingReference is returned when a write points at a row that does
	// not exist, such as an unknown group or teacher id.
	ErrMissingReference = errors.New("referenced record does not exist")
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case uniqueViolation:
		return ErrDuplicate
	case foreignKeyViolation:
		return ErrMissingReference
	}
	return err
}

// validIDs reports whether every id parses as a uuid. Postgres rejects
// malformed uuids with a syntax error, so callers short-circuit instead.
func validIDs(ids ...string) bool {
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return false
		}
	}
	return true
}
