package models

// TenantStatus models the clinic lifecycle. Suspension is reversible;
// cancellation is terminal.
type TenantStatus string

const (
	TenantStatusActive    TenantStatus = "active"
	TenantStatusSuspended TenantStatus = "suspended"
	TenantStatusCancelled TenantStatus = "cancelled"
)

var tenantTransitions = map[TenantStatus][]TenantStatus{
	TenantStatusActive:    {TenantStatusSuspended, TenantStatusCancelled},
	TenantStatusSuspended: {TenantStatusActive, TenantStatusCancelled},
	TenantStatusCancelled: {},
}

func (s TenantStatus) IsValid() bool {
	_, ok := tenantTransitions[s]
	return ok
}

func (s TenantStatus) CanTransitionTo(target TenantStatus) bool {
	for _, allowed := range tenantTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// Plan names the subscription tier. Each plan carries default capacity
// limits; the stored limits on the tenant row are authoritative so support
// can raise them per tenant without a plan change.
type Plan string

const (
	PlanTrial      Plan = "trial"
	PlanStandard   Plan = "standard"
	PlanEnterprise Plan = "enterprise"
)

func (p Plan) IsValid() bool {
	switch p {
	case PlanTrial, PlanStandard, PlanEnterprise:
		return true
	}
	return false
}

// Limits caps tenant capacity. Enforced inside the same transaction as the
// insert they guard, with the tenant row locked.
type Limits struct {
	MaxDoctors   int `json:"max_doctors"`
	MaxPatients  int `json:"max_patients"`
	MaxStorageMB int `json:"max_storage_mb"`
}

// DefaultLimits returns the capacity a fresh tenant gets on each plan.
func DefaultLimits(p Plan) Limits {
	switch p {
	case PlanStandard:
		return Limits{MaxDoctors: 10, MaxPatients: 5000, MaxStorageMB: 10240}
	case PlanEnterprise:
		return Limits{MaxDoctors: 100, MaxPatients: 100000, MaxStorageMB: 102400}
	default:
		return Limits{MaxDoctors: 2, MaxPatients: 100, MaxStorageMB: 512}
	}
}
