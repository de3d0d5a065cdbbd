package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers
// return these (optionally wrapped) so services can translate them into domain
// errors.
//
// These represent factual states about resources, not validation failures:
//   - ErrNotFound: row does not exist within the bound scope (which is also
//     what an out-of-scope row looks like; the two are indistinguishable on
//     purpose)
//   - ErrConflict: unique constraint violated within the bound scope
//   - ErrForeignTenant: a referential write named a row the bound scope
//     cannot see (cross-tenant reference or nonexistent target)
//   - ErrScopeRejected: the storage engine refused the scope directive or a
//     write fell outside the bound scope's write policy
//   - ErrUnavailable: service or resource temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors
// directly.
var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrForeignTenant = errors.New("reference outside tenant scope")
	ErrScopeRejected = errors.New("scope rejected")
	ErrUnavailable   = errors.New("unavailable")
)
