package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntities_AreValid(t *testing.T) {
	require.NoError(t, Validate(Entities()))
}

func TestEntities_CoverEveryScopedTable(t *testing.T) {
	byTable := make(map[string]Entity)
	for _, e := range Entities() {
		byTable[e.Table] = e
	}

	for _, table := range []string{"tenants", "users", "doctors", "patients", "appointments", "catalog_items"} {
		_, ok := byTable[table]
		assert.True(t, ok, "table %s missing from registry", table)
	}

	assert.Equal(t, ModeSelf, byTable["tenants"].Mode)
	assert.Equal(t, ModeNullable, byTable["catalog_items"].Mode)

	// Detail tables must carry their own tenant column and reference parents
	// with tenant-composite keys, never via a join.
	appts := byTable["appointments"]
	assert.Equal(t, ModeStrict, appts.Mode)
	require.Len(t, appts.TenantFKs, 2)
	for _, fk := range appts.TenantFKs {
		assert.Equal(t, "tenant_id", fk.Columns[0])
	}
}

func TestValidate_RejectsMalformedDeclarations(t *testing.T) {
	tests := []struct {
		name     string
		entities []Entity
	}{
		{"empty table name", []Entity{{Mode: ModeStrict, TenantColumn: "tenant_id"}}},
		{"duplicate table", []Entity{
			{Table: "doctors", Mode: ModeStrict, TenantColumn: "tenant_id"},
			{Table: "doctors", Mode: ModeStrict, TenantColumn: "tenant_id"},
		}},
		{"scoped entity without tenant column", []Entity{{Table: "doctors", Mode: ModeStrict}}},
		{"self entity with tenant column", []Entity{{Table: "tenants", Mode: ModeSelf, TenantColumn: "tenant_id"}}},
		{"unknown mode", []Entity{{Table: "doctors", Mode: Mode("magic"), TenantColumn: "tenant_id"}}},
		{"empty scoped unique", []Entity{{Table: "doctors", Mode: ModeStrict, TenantColumn: "tenant_id", ScopedUniques: [][]string{{}}}}},
		{"fk not led by tenant column", []Entity{{
			Table: "appointments", Mode: ModeStrict, TenantColumn: "tenant_id",
			TenantFKs: []ForeignKey{{Columns: []string{"doctor_id"}, RefTable: "doctors", RefColumns: []string{"id"}}},
		}}},
		{"fk column count mismatch", []Entity{{
			Table: "appointments", Mode: ModeStrict, TenantColumn: "tenant_id",
			TenantFKs: []ForeignKey{{Columns: []string{"tenant_id", "doctor_id"}, RefTable: "doctors", RefColumns: []string{"id"}}},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, Validate(tt.entities))
		})
	}
}
