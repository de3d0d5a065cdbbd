package models

import (
	"strings"
	"time"

	id "clinica/pkg/domain"
	dErrors "clinica/pkg/domain-errors"
)

// CatalogKind classifies billable catalog entries.
type CatalogKind string

const (
	CatalogKindService   CatalogKind = "service"
	CatalogKindProcedure CatalogKind = "procedure"
	CatalogKindSupply    CatalogKind = "supply"
)

func (k CatalogKind) IsValid() bool {
	switch k {
	case CatalogKindService, CatalogKindProcedure, CatalogKindSupply:
		return true
	}
	return false
}

// CatalogItem is a billable service or supply. A zero TenantID marks a
// shared item visible to every tenant; those are seeded by the operator
// surface only. Codes are unique within a tenant, and separately unique
// across the shared set.
type CatalogItem struct {
	ID        id.CatalogItemID `json:"id"`
	TenantID  id.TenantID      `json:"tenant_id,omitempty"`
	Code      string           `json:"code"`
	Name      string           `json:"name"`
	Kind      CatalogKind      `json:"kind"`
	CreatedAt time.Time        `json:"created_at"`
}

// IsShared reports whether the item is visible to every tenant.
func (c *CatalogItem) IsShared() bool {
	return c.TenantID.IsZero()
}

// NewCatalogItem builds a tenant-owned catalog entry.
func NewCatalogItem(itemID id.CatalogItemID, tenantID id.TenantID, code, name string, kind CatalogKind, now time.Time) (*CatalogItem, error) {
	if tenantID.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "catalog item must belong to a tenant")
	}
	return newCatalogItem(itemID, tenantID, code, name, kind, now)
}

// NewSharedCatalogItem builds a shared entry with no owning tenant.
func NewSharedCatalogItem(itemID id.CatalogItemID, code, name string, kind CatalogKind, now time.Time) (*CatalogItem, error) {
	return newCatalogItem(itemID, id.TenantID{}, code, name, kind, now)
}

func newCatalogItem(itemID id.CatalogItemID, tenantID id.TenantID, code, name string, kind CatalogKind, now time.Time) (*CatalogItem, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "catalog code cannot be empty")
	}
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "catalog name cannot be empty")
	}
	if kind == "" {
		kind = CatalogKindService
	}
	if !kind.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "unknown catalog kind")
	}
	return &CatalogItem{
		ID:        itemID,
		TenantID:  tenantID,
		Code:      code,
		Name:      name,
		Kind:      kind,
		CreatedAt: now,
	}, nil
}
