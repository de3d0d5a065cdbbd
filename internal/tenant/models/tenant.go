package models

import (
	"time"

	id "clinica/pkg/domain"
	dErrors "clinica/pkg/domain-errors"
)

// Tenant is the aggregate root for a clinic organization.
//
// Invariants:
//   - Name is non-empty and at most 128 characters
//   - Status transitions follow tenantTransitions (cancelled is terminal)
//   - Plan is one of the known tiers
//   - CreatedAt is immutable after construction
//
// # Suspension Invariant
//
// When a tenant is suspended, every request authenticated against it MUST be
// rejected before any data access, even though its rows remain in place.
// This is enforced at the request gate rather than by touching the tenant's
// records, so reactivation is a single status flip.
type Tenant struct {
	ID                 id.TenantID    `json:"id"`
	Name               string         `json:"name"`
	Status             TenantStatus   `json:"status"`
	Plan               Plan           `json:"plan"`
	Limits             Limits         `json:"limits"`
	TrialEndsAt        *time.Time     `json:"trial_ends_at,omitempty"`
	SubscriptionEndsAt *time.Time     `json:"subscription_ends_at,omitempty"`
	Settings           map[string]any `json:"settings"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// TrialPeriod is how long a trial tenant runs before billing review.
const TrialPeriod = 30 * 24 * time.Hour

func NewTenant(tenantID id.TenantID, name string, plan Plan, now time.Time) (*Tenant, error) {
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "tenant name cannot be empty")
	}
	if len(name) > 128 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "tenant name must be 128 characters or less")
	}
	if plan == "" {
		plan = PlanTrial
	}
	if !plan.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "unknown plan")
	}
	t := &Tenant{
		ID:        tenantID,
		Name:      name,
		Status:    TenantStatusActive,
		Plan:      plan,
		Limits:    DefaultLimits(plan),
		Settings:  map[string]any{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if plan == PlanTrial {
		ends := now.Add(TrialPeriod)
		t.TrialEndsAt = &ends
	}
	return t, nil
}

func (t *Tenant) IsActive() bool {
	return t.Status == TenantStatusActive
}

// CanSuspend checks if the tenant can transition to suspended status.
// Use with ApplySuspension in Execute callbacks for proper separation of concerns.
func (t *Tenant) CanSuspend() error {
	if !t.Status.CanTransitionTo(TenantStatusSuspended) {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "tenant is %s, cannot suspend", t.Status)
	}
	return nil
}

// ApplySuspension transitions the tenant to suspended status.
// Call CanSuspend first to validate the transition.
func (t *Tenant) ApplySuspension(now time.Time) {
	t.Status = TenantStatusSuspended
	t.UpdatedAt = now
}

// Suspend validates and applies suspension in one call.
func (t *Tenant) Suspend(now time.Time) error {
	if err := t.CanSuspend(); err != nil {
		return err
	}
	t.ApplySuspension(now)
	return nil
}

// CanReactivate checks if the tenant can transition back to active status.
func (t *Tenant) CanReactivate() error {
	if !t.Status.CanTransitionTo(TenantStatusActive) {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "tenant is %s, cannot reactivate", t.Status)
	}
	return nil
}

// ApplyReactivation transitions the tenant to active status.
// Call CanReactivate first to validate the transition.
func (t *Tenant) ApplyReactivation(now time.Time) {
	t.Status = TenantStatusActive
	t.UpdatedAt = now
}

// Reactivate validates and applies reactivation in one call.
func (t *Tenant) Reactivate(now time.Time) error {
	if err := t.CanReactivate(); err != nil {
		return err
	}
	t.ApplyReactivation(now)
	return nil
}

// CanCancel checks if the tenant can be cancelled. Cancellation is terminal.
func (t *Tenant) CanCancel() error {
	if !t.Status.CanTransitionTo(TenantStatusCancelled) {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "tenant is %s, cannot cancel", t.Status)
	}
	return nil
}

// ApplyCancellation transitions the tenant to cancelled status.
func (t *Tenant) ApplyCancellation(now time.Time) {
	t.Status = TenantStatusCancelled
	t.UpdatedAt = now
}

// Cancel validates and applies cancellation in one call.
func (t *Tenant) Cancel(now time.Time) error {
	if err := t.CanCancel(); err != nil {
		return err
	}
	t.ApplyCancellation(now)
	return nil
}
