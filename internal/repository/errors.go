// Package repository persists users, courses, orders, notifications and
// layouts in MySQL through database/sql. Repositories translate driver
// errors into the apperr sentinels so higher layers never inspect
// sql.ErrNoRows or MySQL error numbers: a missing row becomes
// apperr.ErrNotFound, a unique-key violation apperr.ErrAlreadyExists and a
// lost version race apperr.ErrConflict.
package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/lms-backend/internal/apperr"
	"github.com/iliyamo/lms-backend/internal/database"
)

// translate maps driver errors onto the shared taxonomy and adds what
// the repository was doing.
func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	case database.IsDuplicate(err):
		return fmt.Errorf("%s: %w", op, apperr.ErrAlreadyExists)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// affectedOne returns ErrNotFound when an UPDATE or DELETE touched no row.
func affectedOne(op string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	}
	return nil
}
