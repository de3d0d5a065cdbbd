package cache

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinica/internal/tenant/models"
	id "clinica/pkg/domain"
	dErrors "clinica/pkg/domain-errors"
)

type fakeLoader struct {
	statuses map[id.TenantID]models.TenantStatus
	calls    int
}

func (f *fakeLoader) LoadStatus(_ context.Context, tenantID id.TenantID) (models.TenantStatus, error) {
	f.calls++
	status, ok := f.statuses[tenantID]
	if !ok {
		return "", dErrors.New(dErrors.CodeNotFound, "tenant not found")
	}
	return status, nil
}

func TestGate_AllowWithoutRedis(t *testing.T) {
	ctx := context.Background()
	active := id.TenantID(uuid.New())
	suspended := id.TenantID(uuid.New())

	loader := &fakeLoader{statuses: map[id.TenantID]models.TenantStatus{
		active:    models.TenantStatusActive,
		suspended: models.TenantStatusSuspended,
	}}
	gate := New(nil, loader)

	require.NoError(t, gate.Allow(ctx, active))

	err := gate.Allow(ctx, suspended)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTenantNotResolved))
}

func TestGate_UnknownTenantDenied(t *testing.T) {
	gate := New(nil, &fakeLoader{})

	err := gate.Allow(context.Background(), id.TenantID(uuid.New()))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTenantNotResolved))
}

func TestGate_LoadsOnEveryCallWithoutRedis(t *testing.T) {
	ctx := context.Background()
	tenantID := id.TenantID(uuid.New())
	loader := &fakeLoader{statuses: map[id.TenantID]models.TenantStatus{
		tenantID: models.TenantStatusActive,
	}}
	gate := New(nil, loader)

	require.NoError(t, gate.Allow(ctx, tenantID))
	require.NoError(t, gate.Allow(ctx, tenantID))
	assert.Equal(t, 2, loader.calls)
}

func TestGate_InvalidateWithoutRedisIsNoop(t *testing.T) {
	gate := New(nil, &fakeLoader{})
	gate.Invalidate(context.Background(), id.TenantID(uuid.New()))
}
