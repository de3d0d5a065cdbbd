package registry

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// SelfCheck verifies the live schema against the declared isolation
// contract. Run at process startup; any violation is fatal to boot. The
// checks are deliberately read-only and run outside any tenant scope
// (pg_catalog is not subject to the row policies).
//
// Verified per entity:
//   - row security is both enabled and forced (forced matters because the
//     application role owns the tables)
//   - read and write policies exist
//   - every scoped unique is backed by a unique index led by the tenant
//     column
//   - every declared tenant FK exists with exactly the declared column list
func SelfCheck(ctx context.Context, db *sql.DB, entities []Entity) error {
	if err := Validate(entities); err != nil {
		return err
	}

	var violations []string
	for _, e := range entities {
		vs, err := checkEntity(ctx, db, e)
		if err != nil {
			return fmt.Errorf("schema self-check: %s: %w", e.Table, err)
		}
		violations = append(violations, vs...)
	}
	if len(violations) > 0 {
		return fmt.Errorf("schema self-check failed:\n  %s", strings.Join(violations, "\n  "))
	}
	return nil
}

func checkEntity(ctx context.Context, db *sql.DB, e Entity) ([]string, error) {
	var violations []string

	var enabled, forced bool
	err := db.QueryRowContext(ctx,
		`SELECT relrowsecurity, relforcerowsecurity FROM pg_class WHERE relname = $1 AND relkind = 'r'`,
		e.Table).Scan(&enabled, &forced)
	if err == sql.ErrNoRows {
		return []string{fmt.Sprintf("%s: table does not exist", e.Table)}, nil
	}
	if err != nil {
		return nil, err
	}
	if !enabled {
		violations = append(violations, fmt.Sprintf("%s: row security is not enabled", e.Table))
	}
	if !forced {
		violations = append(violations, fmt.Sprintf("%s: row security is not forced for the table owner", e.Table))
	}

	readCovered, writeCovered, err := policyCoverage(ctx, db, e.Table)
	if err != nil {
		return nil, err
	}
	if !readCovered {
		violations = append(violations, fmt.Sprintf("%s: no policy covers reads", e.Table))
	}
	if !writeCovered {
		violations = append(violations, fmt.Sprintf("%s: no policy covers writes", e.Table))
	}

	for _, uq := range e.ScopedUniques {
		ok, err := scopedUniqueExists(ctx, db, e, uq)
		if err != nil {
			return nil, err
		}
		if !ok {
			violations = append(violations,
				fmt.Sprintf("%s: uniqueness of (%s) is not scoped by %s", e.Table, strings.Join(uq, ", "), e.TenantColumn))
		}
	}

	for _, fk := range e.TenantFKs {
		ok, err := tenantFKExists(ctx, db, e.Table, fk)
		if err != nil {
			return nil, err
		}
		if !ok {
			violations = append(violations,
				fmt.Sprintf("%s: missing tenant-composite reference (%s) -> %s", e.Table, strings.Join(fk.Columns, ", "), fk.RefTable))
		}
	}

	return violations, nil
}

func policyCoverage(ctx context.Context, db *sql.DB, table string) (read, write bool, err error) {
	rows, err := db.QueryContext(ctx,
		`SELECT cmd FROM pg_policies WHERE schemaname = 'public' AND tablename = $1`, table)
	if err != nil {
		return false, false, err
	}
	defer rows.Close()

	for rows.Next() {
		var cmd string
		if err := rows.Scan(&cmd); err != nil {
			return false, false, err
		}
		switch cmd {
		case "ALL":
			read, write = true, true
		case "SELECT":
			read = true
		case "INSERT", "UPDATE", "DELETE":
			write = true
		}
	}
	return read, write, rows.Err()
}

// scopedUniqueExists looks for a unique index whose definition leads with the
// tenant column followed by the declared expressions. Matching on the
// normalized indexdef keeps expression indexes (lower(email)) checkable.
func scopedUniqueExists(ctx context.Context, db *sql.DB, e Entity, uq []string) (bool, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT indexdef FROM pg_indexes WHERE schemaname = 'public' AND tablename = $1 AND indexdef LIKE 'CREATE UNIQUE INDEX%'`,
		e.Table)
	if err != nil {
		return false, err
	}
	defer rows.Close()

	want := "(" + e.TenantColumn + ", " + strings.Join(uq, ", ")
	for rows.Next() {
		var def string
		if err := rows.Scan(&def); err != nil {
			return false, err
		}
		if strings.Contains(normalizeDef(def), want) {
			return true, nil
		}
	}
	return false, rows.Err()
}

// normalizeDef strips the noise pg_get_indexdef adds so substring matching
// against the registry's declared expressions is stable.
func normalizeDef(def string) string {
	def = strings.ReplaceAll(def, "::text", "")
	def = strings.ReplaceAll(def, "  ", " ")
	return def
}

func tenantFKExists(ctx context.Context, db *sql.DB, table string, fk ForeignKey) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx, `
		SELECT count(*)
		FROM pg_constraint c
		JOIN pg_class t ON c.conrelid = t.oid
		JOIN pg_class rt ON c.confrelid = rt.oid
		WHERE c.contype = 'f'
		  AND t.relname = $1
		  AND rt.relname = $2
		  AND (
			SELECT array_agg(a.attname ORDER BY k.ord)
			FROM unnest(c.conkey) WITH ORDINALITY AS k(attnum, ord)
			JOIN pg_attribute a ON a.attrelid = c.conrelid AND a.attnum = k.attnum
		  ) = $3::name[]`,
		table, fk.RefTable, pq.Array(fk.Columns)).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
