package repository

import (
	"errors"

	"github.com/lib/pq"
)

var (
	// ErrParentNotFound is returned when a position mutation targets a missing course or chapter.
	ErrParentNotFound = errors.New("parent not found")
	// ErrDuplicate is returned on unique constraint violations.
	ErrDuplicate = errors.New("duplicate record")
)

const pqUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}
