package models

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "clinica/pkg/domain"
	dErrors "clinica/pkg/domain-errors"
)

func TestNewTenant(t *testing.T) {
	now := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	tenantID := id.TenantID(uuid.New())

	t.Run("trial tenant gets trial limits and an end date", func(t *testing.T) {
		tenant, err := NewTenant(tenantID, "North Clinic", PlanTrial, now)
		require.NoError(t, err)
		assert.Equal(t, TenantStatusActive, tenant.Status)
		assert.Equal(t, DefaultLimits(PlanTrial), tenant.Limits)
		require.NotNil(t, tenant.TrialEndsAt)
		assert.Equal(t, now.Add(TrialPeriod), *tenant.TrialEndsAt)
	})

	t.Run("empty plan defaults to trial", func(t *testing.T) {
		tenant, err := NewTenant(tenantID, "North Clinic", "", now)
		require.NoError(t, err)
		assert.Equal(t, PlanTrial, tenant.Plan)
	})

	t.Run("standard plan has no trial end", func(t *testing.T) {
		tenant, err := NewTenant(tenantID, "North Clinic", PlanStandard, now)
		require.NoError(t, err)
		assert.Nil(t, tenant.TrialEndsAt)
		assert.Equal(t, 10, tenant.Limits.MaxDoctors)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewTenant(tenantID, "", PlanTrial, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("rejects overlong name", func(t *testing.T) {
		_, err := NewTenant(tenantID, strings.Repeat("x", 129), PlanTrial, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("rejects unknown plan", func(t *testing.T) {
		_, err := NewTenant(tenantID, "North Clinic", Plan("gold"), now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func TestTenant_StatusTransitions(t *testing.T) {
	now := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	later := now.Add(time.Hour)

	newActive := func(t *testing.T) *Tenant {
		tenant, err := NewTenant(id.TenantID(uuid.New()), "Clinic", PlanStandard, now)
		require.NoError(t, err)
		return tenant
	}

	t.Run("suspend then reactivate", func(t *testing.T) {
		tenant := newActive(t)
		require.NoError(t, tenant.Suspend(later))
		assert.Equal(t, TenantStatusSuspended, tenant.Status)
		assert.False(t, tenant.IsActive())
		assert.Equal(t, later, tenant.UpdatedAt)

		require.NoError(t, tenant.Reactivate(later.Add(time.Hour)))
		assert.True(t, tenant.IsActive())
	})

	t.Run("cannot suspend twice", func(t *testing.T) {
		tenant := newActive(t)
		require.NoError(t, tenant.Suspend(later))
		err := tenant.Suspend(later)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("cannot reactivate an active tenant", func(t *testing.T) {
		tenant := newActive(t)
		err := tenant.Reactivate(later)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("cancellation is terminal", func(t *testing.T) {
		tenant := newActive(t)
		require.NoError(t, tenant.Cancel(later))
		assert.Equal(t, TenantStatusCancelled, tenant.Status)

		assert.Error(t, tenant.Reactivate(later))
		assert.Error(t, tenant.Suspend(later))
		assert.Error(t, tenant.Cancel(later))
	})

	t.Run("suspended tenant can be cancelled", func(t *testing.T) {
		tenant := newActive(t)
		require.NoError(t, tenant.Suspend(later))
		require.NoError(t, tenant.Cancel(later.Add(time.Hour)))
	})
}

func TestCanApplyPairsMatchCombinedCalls(t *testing.T) {
	now := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	tenant, err := NewTenant(id.TenantID(uuid.New()), "Clinic", PlanStandard, now)
	require.NoError(t, err)

	require.NoError(t, tenant.CanSuspend())
	tenant.ApplySuspension(now.Add(time.Minute))
	assert.Equal(t, TenantStatusSuspended, tenant.Status)

	require.NoError(t, tenant.CanReactivate())
	tenant.ApplyReactivation(now.Add(2 * time.Minute))
	assert.True(t, tenant.IsActive())
}
