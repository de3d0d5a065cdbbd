package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"clinica/internal/scope"
	"clinica/internal/tenant/models"
	id "clinica/pkg/domain"
	dErrors "clinica/pkg/domain-errors"
	"clinica/pkg/platform/audit"
	"clinica/pkg/requestcontext"
)

// RegisterClinicRequest carries the clinic registration payload.
type RegisterClinicRequest struct {
	ClinicName    string
	Plan          models.Plan
	AdminEmail    string
	AdminFullName string
	AdminPassword string
}

// Registration is the result of a successful clinic registration.
type Registration struct {
	Tenant *models.Tenant
	Admin  *models.User
	Token  string
}

const minPasswordLength = 10

// RegisterClinic creates a tenant and its first admin account in one
// transaction. The tenant row is inserted before any scope exists; the
// transaction then adopts the new tenant's scope, so the admin user insert
// already runs under full isolation enforcement. Either both rows commit or
// neither does.
func (s *Service) RegisterClinic(ctx context.Context, req RegisterClinicRequest) (*Registration, error) {
	start := time.Now()

	req.ClinicName = strings.TrimSpace(req.ClinicName)
	if len(req.AdminPassword) < minPasswordLength {
		return nil, dErrors.New(dErrors.CodeValidation, "admin password is too short")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	var (
		tenant *models.Tenant
		admin  *models.User
	)
	err = s.sessions.Bootstrap(ctx, func(txCtx context.Context, adopt func(id.TenantID) error) error {
		now := requestcontext.Now(txCtx)

		t, err := models.NewTenant(id.TenantID(uuid.New()), req.ClinicName, req.Plan, now)
		if err != nil {
			return invariantToValidation(err)
		}
		if err := s.stores.Tenants.Create(txCtx, t); err != nil {
			if dErrors.HasCode(storeErr(err, "clinic"), dErrors.CodeConflict) {
				return dErrors.New(dErrors.CodeConflict, "clinic name is already taken")
			}
			return storeErr(err, "clinic")
		}

		// From here on the transaction acts as the new tenant.
		if err := adopt(t.ID); err != nil {
			return err
		}

		u, err := models.NewUser(id.UserID(uuid.New()), t.ID, req.AdminEmail, req.AdminFullName, models.RoleAdmin, string(hash), now)
		if err != nil {
			return invariantToValidation(err)
		}
		if err := s.stores.Users.Create(txCtx, u); err != nil {
			return storeErr(err, "user")
		}

		tenant, admin = t, u
		return nil
	})
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(admin.ID, tenant.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}

	sc, err := scope.ForTenant(tenant.ID)
	if err != nil {
		return nil, err
	}
	s.emitAudit(ctx, sc, audit.EventTenantRegistered, tenant.ID, tenant.Name, "")
	if s.metrics != nil {
		s.metrics.IncrementTenantsRegistered()
		s.metrics.ObserveRegistration(start)
	}
	s.logger.InfoContext(ctx, "clinic registered",
		"tenant_id", tenant.ID,
		"plan", tenant.Plan,
	)

	return &Registration{Tenant: tenant, Admin: admin, Token: token}, nil
}

// Login authenticates a staff member against the claimed clinic. The lookup
// runs under that clinic's scope, so an email registered with a different
// clinic is simply not found. All failures collapse into one answer.
func (s *Service) Login(ctx context.Context, tenantID id.TenantID, email, password string) (string, *models.User, error) {
	sc, err := scope.ForTenant(tenantID)
	if err != nil {
		return "", nil, err
	}

	invalid := dErrors.New(dErrors.CodeUnauthenticated, "invalid credentials")

	var user *models.User
	err = s.sessions.WithTenantScope(ctx, sc, func(txCtx context.Context) error {
		t, err := s.stores.Tenants.FindSelf(txCtx)
		if err != nil {
			return invalid
		}
		if !t.IsActive() {
			return invalid
		}
		u, err := s.stores.Users.FindByEmail(txCtx, email)
		if err != nil {
			return invalid
		}
		if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
			return invalid
		}
		user = u
		return nil
	})
	if err != nil {
		return "", nil, err
	}

	token, err := s.tokens.Issue(user.ID, user.TenantID)
	if err != nil {
		return "", nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}
	return token, user, nil
}
