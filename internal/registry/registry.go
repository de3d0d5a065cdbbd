// Package registry is the single source of truth for how each entity
// participates in tenant isolation: whether it is tenant-scoped (strictly or
// nullably), which uniqueness constraints are defined per tenant rather than
// globally, and which foreign keys must carry tenant identity.
//
// Schema setup derives its DDL obligations from these declarations, and the
// startup self-check refuses to boot when the live schema drifts from them.
// Historically this class of drift (a globally-unique license number, a
// detail table without its own tenant column) surfaced as production
// duplicate-key collisions between unrelated tenants; here it is a boot-time
// assertion failure instead.
package registry

import "fmt"

// Mode describes how an entity participates in tenant scoping.
type Mode string

const (
	// ModeStrict: the row belongs to exactly one tenant and is visible only
	// inside that tenant's scope.
	ModeStrict Mode = "strict"

	// ModeNullable: an absent tenant attribute means "visible to every
	// tenant"; a present one behaves like ModeStrict.
	ModeNullable Mode = "nullable"

	// ModeSelf: the tenants table itself. Scoped to its own primary key,
	// with an unscoped insert carve-out for the bootstrap sequence.
	ModeSelf Mode = "self"
)

// ForeignKey declares a reference that must carry tenant identity: the
// column set includes the tenant column, and the referenced side exposes the
// matching composite key. This is what makes a cross-tenant link
// unrepresentable at write time.
type ForeignKey struct {
	Columns    []string
	RefTable   string
	RefColumns []string
}

// Entity declares one table's isolation contract.
type Entity struct {
	Table        string
	Mode         Mode
	TenantColumn string

	// ScopedUniques lists column expressions whose uniqueness is defined
	// within (tenant, value), never globally. Each entry corresponds to a
	// unique index led by the tenant column.
	ScopedUniques [][]string

	// TenantFKs lists the composite references enforcing same-tenant links.
	TenantFKs []ForeignKey
}

// Entities returns the full isolation contract, in dependency order.
func Entities() []Entity {
	return []Entity{
		{
			Table: "tenants",
			Mode:  ModeSelf,
		},
		{
			Table:         "users",
			Mode:          ModeStrict,
			TenantColumn:  "tenant_id",
			ScopedUniques: [][]string{{"lower(email)"}},
		},
		{
			Table:         "doctors",
			Mode:          ModeStrict,
			TenantColumn:  "tenant_id",
			ScopedUniques: [][]string{{"license_number"}},
		},
		{
			Table:         "patients",
			Mode:          ModeStrict,
			TenantColumn:  "tenant_id",
			ScopedUniques: [][]string{{"medical_record_number"}},
		},
		{
			Table:        "appointments",
			Mode:         ModeStrict,
			TenantColumn: "tenant_id",
			TenantFKs: []ForeignKey{
				{Columns: []string{"tenant_id", "doctor_id"}, RefTable: "doctors", RefColumns: []string{"tenant_id", "id"}},
				{Columns: []string{"tenant_id", "patient_id"}, RefTable: "patients", RefColumns: []string{"tenant_id", "id"}},
			},
		},
		{
			Table:         "catalog_items",
			Mode:          ModeNullable,
			TenantColumn:  "tenant_id",
			ScopedUniques: [][]string{{"code"}},
		},
	}
}

// Validate checks the declarations themselves for internal consistency.
// Called from tests and from the self-check before it touches the database.
func Validate(entities []Entity) error {
	seen := make(map[string]bool, len(entities))
	for _, e := range entities {
		if e.Table == "" {
			return fmt.Errorf("registry: entity with empty table name")
		}
		if seen[e.Table] {
			return fmt.Errorf("registry: duplicate entity %q", e.Table)
		}
		seen[e.Table] = true

		switch e.Mode {
		case ModeSelf:
			if e.TenantColumn != "" {
				return fmt.Errorf("registry: %s: self-scoped entity must not declare a tenant column", e.Table)
			}
		case ModeStrict, ModeNullable:
			if e.TenantColumn == "" {
				return fmt.Errorf("registry: %s: scoped entity must declare its tenant column", e.Table)
			}
		default:
			return fmt.Errorf("registry: %s: unknown mode %q", e.Table, e.Mode)
		}

		for _, uq := range e.ScopedUniques {
			if len(uq) == 0 {
				return fmt.Errorf("registry: %s: empty scoped unique declaration", e.Table)
			}
		}
		for _, fk := range e.TenantFKs {
			if len(fk.Columns) < 2 || fk.Columns[0] != e.TenantColumn {
				return fmt.Errorf("registry: %s: tenant FK must lead with %s", e.Table, e.TenantColumn)
			}
			if len(fk.Columns) != len(fk.RefColumns) || fk.RefTable == "" {
				return fmt.Errorf("registry: %s: malformed tenant FK to %q", e.Table, fk.RefTable)
			}
		}
	}
	return nil
}
