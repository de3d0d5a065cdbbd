package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"clinica/pkg/platform/sentinel"
)

// Postgres error classes the isolation core cares about.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeInsufficientPriv    = "42501" // also raised for row security violations
	codeInvalidTextRepr     = "22P02" // e.g. malformed uuid in a scope cast
)

// MapError translates driver-level failures into infrastructure sentinels so
// stores never leak pq details upward. The mapping is deliberately coarse:
//
//   - unique violations become ErrConflict (scoped uniqueness)
//   - foreign key violations become ErrForeignTenant; with composite
//     (tenant_id, id) references, "belongs to another tenant" and "does not
//     exist" are the same failure, which is exactly the ambiguity the error
//     taxonomy requires
//   - row security rejections and malformed scope casts become
//     ErrScopeRejected
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel.ErrNotFound
	}

	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch string(pqErr.Code) {
	case codeUniqueViolation:
		return fmt.Errorf("%w: %s", sentinel.ErrConflict, pqErr.Constraint)
	case codeForeignKeyViolation:
		return fmt.Errorf("%w: %s", sentinel.ErrForeignTenant, pqErr.Constraint)
	case codeInsufficientPriv, codeInvalidTextRepr:
		return fmt.Errorf("%w: %s", sentinel.ErrScopeRejected, pqErr.Code)
	default:
		return err
	}
}
