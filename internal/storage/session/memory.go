package session

import (
	"context"
	"strings"

	"clinica/internal/scope"
	id "clinica/pkg/domain"
	dErrors "clinica/pkg/domain-errors"
)

// Memory satisfies the session interfaces without a database, for unit
// tests against memory stores. Where the real manager binds the scope to the
// transaction's session, Memory attaches it to the context; the memory
// stores read it from there to emulate row-security visibility. It applies
// the same scope validation as the real manager, but offers none of its
// transactional guarantees.
type Memory struct{}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) WithTenantScope(ctx context.Context, sc scope.Scope, fn func(ctx context.Context) error) error {
	if sc.IsZero() {
		return dErrors.New(dErrors.CodeTenantNotResolved, "unit of work requires a tenant scope")
	}
	if sc.IsAllTenants() {
		return dErrors.New(dErrors.CodeInvariantViolation, "cross-tenant work must go through WithBypass")
	}
	return fn(scope.NewContext(ctx, sc))
}

func (m *Memory) WithBypass(ctx context.Context, sc scope.Scope, fn func(ctx context.Context) error) error {
	if !sc.IsAllTenants() {
		return dErrors.New(dErrors.CodeInvariantViolation, "WithBypass requires an all-tenants scope")
	}
	if strings.TrimSpace(sc.Reason()) == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "bypass scope requires a reason")
	}
	return fn(scope.NewContext(ctx, sc))
}

// Bootstrap runs fn with no scope attached. Adoption cannot be observed by
// the context-based emulation, so adopt only validates the tenant id; the
// memory stores accept scope-less creates on the bootstrap path.
func (m *Memory) Bootstrap(ctx context.Context, fn func(ctx context.Context, adopt func(id.TenantID) error) error) error {
	adopted := false
	adopt := func(tenantID id.TenantID) error {
		if tenantID.IsZero() {
			return dErrors.New(dErrors.CodeTenantNotResolved, "cannot adopt an empty tenant scope")
		}
		if adopted {
			return dErrors.New(dErrors.CodeInvariantViolation, "scope already adopted")
		}
		adopted = true
		return nil
	}
	return fn(ctx, adopt)
}
