// Package scope defines the tenant context: the immutable value naming which
// tenant a unit of work is allowed to touch.
//
// A Scope is constructed once per authenticated request from a verified
// credential, bound to exactly one database transaction by the session
// manager, and discarded when that transaction ends. It is never persisted,
// never reused across requests, and never mutated after construction.
//
// A unit of work with no Scope cannot reach tenant-scoped data: the session
// manager requires a Scope parameter, and the storage policies see no bound
// tenant and return nothing. Fail closed, not open.
package scope

import (
	"context"
	"fmt"

	id "clinica/pkg/domain"
	dErrors "clinica/pkg/domain-errors"
)

// Scope identifies the tenant a unit of work operates for. The zero value is
// unusable: every constructor either returns a valid Scope or an error.
type Scope struct {
	tenantID   id.TenantID
	allTenants bool
	system     bool
	reason     string
}

// ForTenant builds a scope restricted to a single tenant.
func ForTenant(tenantID id.TenantID) (Scope, error) {
	if tenantID.IsZero() {
		return Scope{}, dErrors.New(dErrors.CodeTenantNotResolved, "tenant id must not be zero")
	}
	return Scope{tenantID: tenantID}, nil
}

// AllTenants builds the cross-tenant bypass scope used by operator tooling
// and nothing else. The reason is mandatory and ends up in the audit trail;
// the session manager refuses an AllTenants scope without one.
func AllTenants(reason string) Scope {
	return Scope{allTenants: true, reason: reason}
}

// AllTenantsSystem builds a cross-tenant scope for internal machinery such as
// the tenant status gate. It carries the same mandatory reason and hits the
// same audited session path as AllTenants, but the session manager records it
// under a separate origin so routine lookups do not trip the operator-bypass
// alarm.
func AllTenantsSystem(reason string) Scope {
	return Scope{allTenants: true, system: true, reason: reason}
}

// TenantID returns the bound tenant. Zero for an all-tenants scope.
func (s Scope) TenantID() id.TenantID { return s.tenantID }

// IsAllTenants reports whether this is the audited cross-tenant bypass scope.
func (s Scope) IsAllTenants() bool { return s.allTenants }

// IsSystem reports whether a cross-tenant scope originates from internal
// machinery rather than an operator.
func (s Scope) IsSystem() bool { return s.system }

// Reason returns the operator-supplied justification for a bypass scope.
func (s Scope) Reason() string { return s.reason }

// IsZero reports whether the scope was never constructed properly.
func (s Scope) IsZero() bool { return !s.allTenants && s.tenantID.IsZero() }

func (s Scope) String() string {
	if s.allTenants {
		return fmt.Sprintf("all-tenants(%s)", s.reason)
	}
	return "tenant:" + s.tenantID.String()
}

type ctxKey struct{}

var scopeKey = ctxKey{}

// NewContext attaches a scope to ctx for the HTTP boundary handoff between
// middleware and handlers. Services never read the scope from context; they
// take it as an explicit parameter.
func NewContext(ctx context.Context, s Scope) context.Context {
	return context.WithValue(ctx, scopeKey, s)
}

// FromContext extracts the scope set by middleware. The second return is
// false when no scope was bound; callers must treat that as a hard failure.
func FromContext(ctx context.Context) (Scope, bool) {
	s, ok := ctx.Value(scopeKey).(Scope)
	if !ok || s.IsZero() {
		return Scope{}, false
	}
	return s, true
}
