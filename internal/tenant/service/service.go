// Package service orchestrates clinic operations. Every data access runs
// inside a scope-bound transaction obtained from the session manager; the
// stores underneath rely on row security and never filter by tenant
// themselves.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"clinica/internal/scope"
	tenantmetrics "clinica/internal/tenant/metrics"
	"clinica/internal/tenant/models"
	id "clinica/pkg/domain"
	dErrors "clinica/pkg/domain-errors"
	"clinica/pkg/platform/audit"
	"clinica/pkg/platform/sentinel"
	"clinica/pkg/requestcontext"
)

// Sessions runs functions inside scope-bound database transactions.
type Sessions interface {
	WithTenantScope(ctx context.Context, sc scope.Scope, fn func(ctx context.Context) error) error
	Bootstrap(ctx context.Context, fn func(ctx context.Context, adopt func(id.TenantID) error) error) error
}

type TenantStore interface {
	Create(ctx context.Context, t *models.Tenant) error
	FindSelf(ctx context.Context) (*models.Tenant, error)
	LockSelf(ctx context.Context) (*models.Tenant, error)
	Update(ctx context.Context, t *models.Tenant) error
}

type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Count(ctx context.Context) (int, error)
}

type DoctorStore interface {
	Create(ctx context.Context, d *models.Doctor) error
	FindByID(ctx context.Context, doctorID id.DoctorID) (*models.Doctor, error)
	List(ctx context.Context) ([]*models.Doctor, error)
	Count(ctx context.Context) (int, error)
}

type PatientStore interface {
	Create(ctx context.Context, p *models.Patient) error
	FindByID(ctx context.Context, patientID id.PatientID) (*models.Patient, error)
	List(ctx context.Context) ([]*models.Patient, error)
	Count(ctx context.Context) (int, error)
}

type AppointmentStore interface {
	Create(ctx context.Context, a *models.Appointment) error
	FindByID(ctx context.Context, appointmentID id.AppointmentID) (*models.Appointment, error)
	ListByDoctor(ctx context.Context, doctorID id.DoctorID, from, to time.Time) ([]*models.Appointment, error)
	List(ctx context.Context) ([]*models.Appointment, error)
}

type CatalogStore interface {
	Create(ctx context.Context, item *models.CatalogItem) error
	List(ctx context.Context) ([]*models.CatalogItem, error)
}

// TokenIssuer mints access tokens after registration and login.
type TokenIssuer interface {
	Issue(userID id.UserID, tenantID id.TenantID) (string, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Stores bundles the per-entity stores the service composes.
type Stores struct {
	Tenants      TenantStore
	Users        UserStore
	Doctors      DoctorStore
	Patients     PatientStore
	Appointments AppointmentStore
	Catalog      CatalogStore
}

// Service orchestrates clinic registration, login, and record management.
type Service struct {
	stores   Stores
	sessions Sessions
	tokens   TokenIssuer
	logger   *slog.Logger
	audit    AuditPublisher
	metrics  *tenantmetrics.Metrics
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

func WithMetrics(m *tenantmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New constructs a Service.
func New(stores Stores, sessions Sessions, tokens TokenIssuer, opts ...Option) *Service {
	s := &Service{
		stores:   stores,
		sessions: sessions,
		tokens:   tokens,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// storeErr translates storage sentinels into coded domain errors. Absence
// and foreign ownership map to the same codes on purpose: responses must not
// reveal whether a row exists in another tenant.
func storeErr(err error, entity string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, entity+" not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, entity+" already exists")
	case errors.Is(err, sentinel.ErrForeignTenant):
		return dErrors.New(dErrors.CodeCrossTenantReference, "referenced record does not exist in this clinic")
	case errors.Is(err, sentinel.ErrScopeRejected):
		return dErrors.Wrap(err, dErrors.CodeInternal, "write rejected by isolation policy")
	default:
		var coded *dErrors.Error
		if errors.As(err, &coded) {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "storage failure")
	}
}

// invariantToValidation converts constructor invariant violations into
// validation errors for API responses.
func invariantToValidation(err error) error {
	if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
		return dErrors.New(dErrors.CodeValidation, err.Error())
	}
	return err
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
