package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"clinica/internal/storage/session"
	"clinica/internal/tenant/models"
	catalogstore "clinica/internal/tenant/store/catalog"
	tenantstore "clinica/internal/tenant/store/tenant"
	id "clinica/pkg/domain"
	dErrors "clinica/pkg/domain-errors"
	"clinica/pkg/platform/audit"
)

type capturingAudit struct {
	events []audit.Event
}

func (c *capturingAudit) Emit(_ context.Context, event audit.Event) error {
	c.events = append(c.events, event)
	return nil
}

func (c *capturingAudit) actions() []string {
	var out []string
	for _, e := range c.events {
		out = append(out, e.Action)
	}
	return out
}

type capturingGate struct {
	invalidated []id.TenantID
}

func (c *capturingGate) Invalidate(_ context.Context, tenantID id.TenantID) {
	c.invalidated = append(c.invalidated, tenantID)
}

type OperatorSuite struct {
	suite.Suite
	ctx     context.Context
	svc     *Service
	tenants *tenantstore.Memory
	catalog *catalogstore.Memory
	audit   *capturingAudit
	gate    *capturingGate
}

func TestOperatorSuite(t *testing.T) {
	suite.Run(t, new(OperatorSuite))
}

func (s *OperatorSuite) SetupTest() {
	s.ctx = context.Background()
	s.tenants = tenantstore.NewMemory()
	s.catalog = catalogstore.NewMemory()
	s.audit = &capturingAudit{}
	s.gate = &capturingGate{}
	s.svc = New(s.tenants, s.catalog, session.NewMemory(),
		WithAuditPublisher(s.audit),
		WithGateInvalidator(s.gate),
	)
}

func (s *OperatorSuite) seedTenant(name string) *models.Tenant {
	t, err := models.NewTenant(id.TenantID(uuid.New()), name, models.PlanStandard, time.Now().UTC())
	s.Require().NoError(err)
	s.Require().NoError(s.tenants.Create(s.ctx, t))
	return t
}

func (s *OperatorSuite) TestSuspendAndReactivate() {
	t := s.seedTenant("north")

	suspended, err := s.svc.SuspendClinic(s.ctx, t.ID, "billing chargeback")
	s.Require().NoError(err)
	s.Equal(models.TenantStatusSuspended, suspended.Status)
	s.Contains(s.audit.actions(), string(audit.EventTenantSuspended))
	s.Contains(s.audit.actions(), string(audit.EventOperatorBypassUsed))
	s.Contains(s.gate.invalidated, t.ID)

	reactivated, err := s.svc.ReactivateClinic(s.ctx, t.ID, "payment received")
	s.Require().NoError(err)
	s.Equal(models.TenantStatusActive, reactivated.Status)
	s.Contains(s.audit.actions(), string(audit.EventTenantReactivated))
}

func (s *OperatorSuite) TestCancelIsTerminal() {
	t := s.seedTenant("south")

	cancelled, err := s.svc.CancelClinic(s.ctx, t.ID, "subscription ended")
	s.Require().NoError(err)
	s.Equal(models.TenantStatusCancelled, cancelled.Status)

	_, err = s.svc.ReactivateClinic(s.ctx, t.ID, "attempt revive")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func (s *OperatorSuite) TestSuspendRequiresReason() {
	t := s.seedTenant("east")

	_, err := s.svc.SuspendClinic(s.ctx, t.ID, "  ")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	s.Empty(s.audit.events)
}

func (s *OperatorSuite) TestSuspendUnknownClinic() {
	_, err := s.svc.SuspendClinic(s.ctx, id.TenantID(uuid.New()), "cleanup")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *OperatorSuite) TestListClinics() {
	s.seedTenant("one")
	s.seedTenant("two")

	tenants, err := s.svc.ListClinics(s.ctx, "monthly review")
	s.Require().NoError(err)
	s.Len(tenants, 2)
	s.Contains(s.audit.actions(), string(audit.EventOperatorBypassUsed))
}

func (s *OperatorSuite) TestSeedSharedCatalog() {
	items, err := s.svc.SeedSharedCatalog(s.ctx, []SeedItem{
		{Code: "consult", Name: "Consultation", Kind: models.CatalogKindService},
		{Code: "xr-chest", Name: "Chest X-Ray", Kind: models.CatalogKindProcedure},
	}, "initial platform seed")
	s.Require().NoError(err)
	s.Len(items, 2)
	for _, item := range items {
		s.True(item.IsShared())
	}
	s.Contains(s.audit.actions(), string(audit.EventSharedCatalogSeeded))

	s.Run("duplicate code conflicts", func() {
		_, err := s.svc.SeedSharedCatalog(s.ctx, []SeedItem{
			{Code: "consult", Name: "Consultation", Kind: models.CatalogKindService},
		}, "re-seed")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("empty seed rejected", func() {
		_, err := s.svc.SeedSharedCatalog(s.ctx, nil, "noop")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *OperatorSuite) TestLoadStatus() {
	t := s.seedTenant("gate")

	status, err := s.svc.LoadStatus(s.ctx, t.ID)
	s.Require().NoError(err)
	s.Equal(models.TenantStatusActive, status)

	_, err = s.svc.SuspendClinic(s.ctx, t.ID, "billing")
	s.Require().NoError(err)

	status, err = s.svc.LoadStatus(s.ctx, t.ID)
	s.Require().NoError(err)
	s.Equal(models.TenantStatusSuspended, status)
}
