// Package service implements the platform operator surface. Every operation
// here runs under the explicit cross-tenant bypass; each use is audited with
// the operator's stated reason.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"clinica/internal/scope"
	"clinica/internal/tenant/models"
	id "clinica/pkg/domain"
	dErrors "clinica/pkg/domain-errors"
	"clinica/pkg/platform/audit"
	"clinica/pkg/platform/sentinel"
	"clinica/pkg/requestcontext"
)

// Sessions runs functions inside bypass-bound database transactions.
type Sessions interface {
	WithBypass(ctx context.Context, sc scope.Scope, fn func(ctx context.Context) error) error
}

type TenantStore interface {
	FindByID(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error)
	Update(ctx context.Context, t *models.Tenant) error
	List(ctx context.Context) ([]*models.Tenant, error)
}

type CatalogStore interface {
	Create(ctx context.Context, item *models.CatalogItem) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// GateInvalidator drops a tenant's cached status after a lifecycle change so
// the suspension gate picks up the new state immediately.
type GateInvalidator interface {
	Invalidate(ctx context.Context, tenantID id.TenantID)
}

// Service executes operator actions across tenant boundaries.
type Service struct {
	tenants  TenantStore
	catalog  CatalogStore
	sessions Sessions
	logger   *slog.Logger
	audit    AuditPublisher
	gate     GateInvalidator
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.audit = publisher
	}
}

func WithGateInvalidator(gate GateInvalidator) Option {
	return func(s *Service) {
		s.gate = gate
	}
}

// New constructs an operator Service.
func New(tenants TenantStore, catalog CatalogStore, sessions Sessions, opts ...Option) *Service {
	s := &Service{
		tenants:  tenants,
		catalog:  catalog,
		sessions: sessions,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// bypass wraps a function in the all-tenants scope and audits the use. The
// reason is mandatory; the session manager rejects an empty one.
func (s *Service) bypass(ctx context.Context, reason string, fn func(ctx context.Context) error) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return dErrors.New(dErrors.CodeValidation, "a reason is required for cross-tenant access")
	}
	sc := scope.AllTenants(reason)

	err := s.sessions.WithBypass(ctx, sc, fn)
	s.emitAudit(ctx, sc, audit.EventOperatorBypassUsed, id.TenantID{}, "", reason)
	return err
}

// ListClinics returns every tenant regardless of status.
func (s *Service) ListClinics(ctx context.Context, reason string) ([]*models.Tenant, error) {
	var tenants []*models.Tenant
	err := s.bypass(ctx, reason, func(txCtx context.Context) error {
		var err error
		tenants, err = s.tenants.List(txCtx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return tenants, nil
}

// GetClinic returns one tenant by id.
func (s *Service) GetClinic(ctx context.Context, tenantID id.TenantID, reason string) (*models.Tenant, error) {
	var t *models.Tenant
	err := s.bypass(ctx, reason, func(txCtx context.Context) error {
		var err error
		t, err = s.tenants.FindByID(txCtx, tenantID)
		return translateStoreErr(err)
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// SuspendClinic moves a tenant out of service. In-flight requests finish;
// the gate turns new ones away once its cache entry is dropped.
func (s *Service) SuspendClinic(ctx context.Context, tenantID id.TenantID, reason string) (*models.Tenant, error) {
	t, err := s.transition(ctx, tenantID, reason, func(t *models.Tenant) error {
		return t.Suspend(requestcontext.Now(ctx))
	})
	if err != nil {
		return nil, err
	}
	s.emitAudit(ctx, scope.AllTenants(reason), audit.EventTenantSuspended, tenantID, "", reason)
	return t, nil
}

// ReactivateClinic returns a suspended tenant to service.
func (s *Service) ReactivateClinic(ctx context.Context, tenantID id.TenantID, reason string) (*models.Tenant, error) {
	t, err := s.transition(ctx, tenantID, reason, func(t *models.Tenant) error {
		return t.Reactivate(requestcontext.Now(ctx))
	})
	if err != nil {
		return nil, err
	}
	s.emitAudit(ctx, scope.AllTenants(reason), audit.EventTenantReactivated, tenantID, "", reason)
	return t, nil
}

// CancelClinic ends a tenant's subscription. Cancellation is terminal; the
// data stays in place for retention but no scope will ever serve it again.
func (s *Service) CancelClinic(ctx context.Context, tenantID id.TenantID, reason string) (*models.Tenant, error) {
	t, err := s.transition(ctx, tenantID, reason, func(t *models.Tenant) error {
		return t.Cancel(requestcontext.Now(ctx))
	})
	if err != nil {
		return nil, err
	}
	s.emitAudit(ctx, scope.AllTenants(reason), audit.EventTenantCancelled, tenantID, "", reason)
	return t, nil
}

func (s *Service) transition(ctx context.Context, tenantID id.TenantID, reason string, apply func(*models.Tenant) error) (*models.Tenant, error) {
	var t *models.Tenant
	err := s.bypass(ctx, reason, func(txCtx context.Context) error {
		var err error
		t, err = s.tenants.FindByID(txCtx, tenantID)
		if err != nil {
			return translateStoreErr(err)
		}
		if err := apply(t); err != nil {
			return err
		}
		return translateStoreErr(s.tenants.Update(txCtx, t))
	})
	if err != nil {
		return nil, err
	}
	if s.gate != nil {
		s.gate.Invalidate(ctx, tenantID)
	}
	return t, nil
}

// SeedItem describes one shared catalog entry to install.
type SeedItem struct {
	Code string
	Name string
	Kind models.CatalogKind
}

// SeedSharedCatalog installs platform-wide catalog entries visible to every
// clinic. Only the bypass can write rows that belong to no tenant.
func (s *Service) SeedSharedCatalog(ctx context.Context, items []SeedItem, reason string) ([]*models.CatalogItem, error) {
	if len(items) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "at least one item is required")
	}

	now := requestcontext.Now(ctx)
	created := make([]*models.CatalogItem, 0, len(items))
	err := s.bypass(ctx, reason, func(txCtx context.Context) error {
		for _, item := range items {
			ci, err := models.NewSharedCatalogItem(id.CatalogItemID(uuid.New()), item.Code, item.Name, item.Kind, now)
			if err != nil {
				return err
			}
			if err := s.catalog.Create(txCtx, ci); err != nil {
				if errors.Is(err, sentinel.ErrConflict) {
					return dErrors.Newf(dErrors.CodeConflict, "shared item %s already exists", ci.Code)
				}
				return translateStoreErr(err)
			}
			created = append(created, ci)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.emitAudit(ctx, scope.AllTenants(reason), audit.EventSharedCatalogSeeded, id.TenantID{}, "", reason)
	return created, nil
}

// LoadStatus resolves a tenant's status for the suspension gate. Runs under
// a system scope because gate checks happen before any request scope exists;
// the session manager keeps it out of the operator-bypass alarm.
func (s *Service) LoadStatus(ctx context.Context, tenantID id.TenantID) (models.TenantStatus, error) {
	var status models.TenantStatus
	err := s.sessions.WithBypass(ctx, scope.AllTenantsSystem("tenant status gate"), func(txCtx context.Context) error {
		t, err := s.tenants.FindByID(txCtx, tenantID)
		if err != nil {
			return translateStoreErr(err)
		}
		status = t.Status
		return nil
	})
	if err != nil {
		return "", err
	}
	return status, nil
}

func translateStoreErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "clinic not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "clinic already exists")
	default:
		var coded *dErrors.Error
		if errors.As(err, &coded) {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "storage failure")
	}
}

func (s *Service) emitAudit(ctx context.Context, sc scope.Scope, event audit.AuditEvent, tenantID id.TenantID, subject, reason string) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Emit(ctx, audit.Event{
		TenantID:  tenantID,
		Action:    string(event),
		Subject:   subject,
		Reason:    reason,
		RequestID: requestcontext.RequestID(ctx),
		ActorID:   requestcontext.UserID(ctx).String(),
		Scope:     sc.String(),
	})
}
