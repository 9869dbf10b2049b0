package database

import (
	"errors"

	"github.com/lib/pq"
)

// Postgres error codes of interest.
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// IsUniqueViolation reports whether err is a Postgres unique-constraint
// violation. Services translate this into a conflict response so uniqueness
// stays race-safe at the store boundary instead of a read-then-write check.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// IsForeignKeyViolation reports whether err is a Postgres foreign-key
// violation, e.g. a protocol-zone link referencing a zone that is gone.
func IsForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation
}
