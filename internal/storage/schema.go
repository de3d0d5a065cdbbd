// Package storage holds the shared-schema DDL and the translation of driver
// errors into infrastructure sentinels. The row security policies declared in
// schema.sql are the last line of defense: they make isolation correct even
// when a query forgets its filter.
package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// ApplySchema creates tables, row security policies, and scoped uniqueness
// indexes. Idempotent; used by deployments and by the test containers.
func ApplySchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// SchemaSQL exposes the DDL for tooling (migration dumps, the self-check
// test fixtures).
func SchemaSQL() string { return schemaSQL }
