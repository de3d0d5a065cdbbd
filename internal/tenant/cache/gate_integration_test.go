//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"clinica/internal/tenant/models"
	id "clinica/pkg/domain"
	dErrors "clinica/pkg/domain-errors"
	"clinica/pkg/testutil/containers"
)

type GateSuite struct {
	suite.Suite
	redis *containers.RedisContainer
}

func TestGateSuite(t *testing.T) {
	suite.Run(t, new(GateSuite))
}

func (s *GateSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
}

func (s *GateSuite) SetupTest() {
	require.NoError(s.T(), s.redis.FlushAll(context.Background()))
}

func (s *GateSuite) TestCachesStatusAcrossCalls() {
	ctx := context.Background()
	tenantID := id.TenantID(uuid.New())
	loader := &fakeLoader{statuses: map[id.TenantID]models.TenantStatus{
		tenantID: models.TenantStatusActive,
	}}
	gate := New(s.redis.Client, loader)

	s.Require().NoError(gate.Allow(ctx, tenantID))
	s.Require().NoError(gate.Allow(ctx, tenantID))
	s.Equal(1, loader.calls)
}

func (s *GateSuite) TestInvalidateForcesReload() {
	ctx := context.Background()
	tenantID := id.TenantID(uuid.New())
	loader := &fakeLoader{statuses: map[id.TenantID]models.TenantStatus{
		tenantID: models.TenantStatusActive,
	}}
	gate := New(s.redis.Client, loader)

	s.Require().NoError(gate.Allow(ctx, tenantID))

	loader.statuses[tenantID] = models.TenantStatusSuspended
	gate.Invalidate(ctx, tenantID)

	err := gate.Allow(ctx, tenantID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeTenantNotResolved))
	s.Equal(2, loader.calls)
}

func (s *GateSuite) TestShortTTLExpires() {
	ctx := context.Background()
	tenantID := id.TenantID(uuid.New())
	loader := &fakeLoader{statuses: map[id.TenantID]models.TenantStatus{
		tenantID: models.TenantStatusActive,
	}}
	gate := New(s.redis.Client, loader, WithTTL(100*time.Millisecond))

	s.Require().NoError(gate.Allow(ctx, tenantID))
	time.Sleep(200 * time.Millisecond)
	s.Require().NoError(gate.Allow(ctx, tenantID))
	s.Equal(2, loader.calls)
}
