package scope

import (
	id "clinica/pkg/domain"
	dErrors "clinica/pkg/domain-errors"
)

// Claims is the verified claim set handed over by the token validator. The
// signing scheme is the token package's concern; by the time claims reach
// this resolver they are authenticated.
type Claims struct {
	Subject  string
	TenantID string
}

// Resolve turns verified claims into a tenant scope and the acting user.
//
// A valid identity without a tenant claim is a hard authorization failure,
// never a default: silently resolving to "no tenant" would disable isolation
// for that request. The only code path that legitimately runs without a
// pre-existing tenant is clinic registration, which bypasses this resolver
// entirely (the lifecycle service adopts the new tenant's scope
// mid-transaction instead).
func Resolve(claims *Claims) (Scope, id.UserID, error) {
	if claims == nil {
		return Scope{}, id.UserID{}, dErrors.New(dErrors.CodeUnauthenticated, "no identity on request")
	}
	if claims.TenantID == "" {
		return Scope{}, id.UserID{}, dErrors.New(dErrors.CodeTenantNotResolved, "token carries no tenant claim")
	}
	tenantID, err := id.ParseTenantID(claims.TenantID)
	if err != nil {
		return Scope{}, id.UserID{}, dErrors.Wrap(err, dErrors.CodeTenantNotResolved, "tenant claim is not a valid id")
	}
	userID, err := id.ParseUserID(claims.Subject)
	if err != nil {
		return Scope{}, id.UserID{}, dErrors.Wrap(err, dErrors.CodeUnauthenticated, "subject claim is not a valid id")
	}
	s, err := ForTenant(tenantID)
	if err != nil {
		return Scope{}, id.UserID{}, err
	}
	return s, userID, nil
}
