package calendar

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrConflict is returned when a write would bind a Google event id that
// another live event of the same user already holds.
var ErrConflict = errors.New("event conflict")

func mapError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if strings.TrimSpace(pgErr.Code) == "23505" { // unique_violation
			return errors.Join(ErrConflict, err)
		}
		return err
	}
	// SQLite reports constraint failures only as text.
	if strings.Contains(strings.ToLower(err.Error()), "unique constraint failed") {
		return errors.Join(ErrConflict, err)
	}
	return err
}
