package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"clubevents/internal/domain"

	"github.com/lib/pq"
)

const (
	pqUniqueViolation = "23505"
	pqCheckViolation  = "23514"

	activeRegistrationIndex = "registrations_active_event_user_key"
)

// mapError translates driver errors into the domain taxonomy. notFound is returned for
// sql.ErrNoRows.
func mapError(err error, notFound error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) && notFound != nil {
		return notFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			if pqErr.Constraint == activeRegistrationIndex {
				return domain.ErrAlreadyRegistered
			}
			return fmt.Errorf("%w: %s", domain.ErrConflict, pqErr.Constraint)
		case pqCheckViolation:
			return domain.NewValidationError(pqErr.Constraint, "violates check constraint")
		}
	}
	return err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}
