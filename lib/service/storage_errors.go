package service

import (
	"errors"
	"strings"

	"github.com/uptrace/bun/driver/pgdriver"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// IsUniqueViolation reports whether err comes from a unique constraint, on
// Postgres or SQLite.
func IsUniqueViolation(err error) bool {
	return hasCode(err, pgUniqueViolation) || hasMessage(err, "UNIQUE constraint failed")
}

// IsForeignKeyViolation reports whether err comes from a foreign key constraint.
func IsForeignKeyViolation(err error) bool {
	return hasCode(err, pgForeignKeyViolation) || hasMessage(err, "FOREIGN KEY constraint failed")
}

func hasCode(err error, code string) bool {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C') == code
	}
	return false
}

func hasMessage(err error, msg string) bool {
	return err != nil && strings.Contains(err.Error(), msg)
}
