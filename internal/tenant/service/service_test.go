package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"clinica/internal/scope"
	"clinica/internal/storage/session"
	"clinica/internal/tenant/models"
	appointmentstore "clinica/internal/tenant/store/appointment"
	catalogstore "clinica/internal/tenant/store/catalog"
	doctorstore "clinica/internal/tenant/store/doctor"
	patientstore "clinica/internal/tenant/store/patient"
	tenantstore "clinica/internal/tenant/store/tenant"
	userstore "clinica/internal/tenant/store/user"
	id "clinica/pkg/domain"
	dErrors "clinica/pkg/domain-errors"
	"clinica/pkg/platform/audit"
)

type stubIssuer struct{}

func (stubIssuer) Issue(userID id.UserID, tenantID id.TenantID) (string, error) {
	return "token:" + userID.String(), nil
}

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

type participants struct {
	doctors  *doctorstore.Memory
	patients *patientstore.Memory
}

func (p participants) DoctorExists(ctx context.Context, doctorID id.DoctorID) bool {
	_, err := p.doctors.FindByID(ctx, doctorID)
	return err == nil
}

func (p participants) PatientExists(ctx context.Context, patientID id.PatientID) bool {
	_, err := p.patients.FindByID(ctx, patientID)
	return err == nil
}

type ServiceSuite struct {
	suite.Suite
	ctx     context.Context
	svc     *Service
	tenants *tenantstore.Memory
	audit   *capturingAudit
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.tenants = tenantstore.NewMemory()
	s.audit = &capturingAudit{}

	doctors := doctorstore.NewMemory()
	patients := patientstore.NewMemory()
	s.svc = New(
		Stores{
			Tenants:      s.tenants,
			Users:        userstore.NewMemory(),
			Doctors:      doctors,
			Patients:     patients,
			Appointments: appointmentstore.NewMemory(participants{doctors, patients}),
			Catalog:      catalogstore.NewMemory(),
		},
		session.NewMemory(),
		stubIssuer{},
		WithAuditPublisher(s.audit),
	)
}

func (s *ServiceSuite) register(name string) *Registration {
	reg, err := s.svc.RegisterClinic(s.ctx, RegisterClinicRequest{
		ClinicName:    name,
		Plan:          models.PlanTrial,
		AdminEmail:    "admin@" + name + ".example",
		AdminFullName: "Admin",
		AdminPassword: "correct-horse-battery",
	})
	s.Require().NoError(err)
	return reg
}

func (s *ServiceSuite) scopeOf(reg *Registration) scope.Scope {
	sc, err := scope.ForTenant(reg.Tenant.ID)
	s.Require().NoError(err)
	return sc
}

func (s *ServiceSuite) TestRegisterClinic() {
	s.Run("creates tenant and admin atomically", func() {
		reg := s.register("north")
		s.Equal(models.TenantStatusActive, reg.Tenant.Status)
		s.Equal(models.RoleAdmin, reg.Admin.Role)
		s.Equal(reg.Tenant.ID, reg.Admin.TenantID)
		s.NotEmpty(reg.Token)
		s.Contains(s.audit.actions(), string(audit.EventTenantRegistered))
	})

	s.Run("rejects duplicate clinic name", func() {
		s.register("south")
		_, err := s.svc.RegisterClinic(s.ctx, RegisterClinicRequest{
			ClinicName:    "south",
			AdminEmail:    "other@south.example",
			AdminFullName: "Other",
			AdminPassword: "correct-horse-battery",
		})
		s.Require().True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("rejects short password", func() {
		_, err := s.svc.RegisterClinic(s.ctx, RegisterClinicRequest{
			ClinicName:    "west",
			AdminEmail:    "admin@west.example",
			AdminFullName: "Admin",
			AdminPassword: "short",
		})
		s.Require().True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("rejects invalid admin email", func() {
		_, err := s.svc.RegisterClinic(s.ctx, RegisterClinicRequest{
			ClinicName:    "east",
			AdminEmail:    "not-an-email",
			AdminFullName: "Admin",
			AdminPassword: "correct-horse-battery",
		})
		s.Require().True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ServiceSuite) TestLogin() {
	reg := s.register("north")

	s.Run("valid credentials issue a token", func() {
		token, user, err := s.svc.Login(s.ctx, reg.Tenant.ID, reg.Admin.Email, "correct-horse-battery")
		s.Require().NoError(err)
		s.NotEmpty(token)
		s.Equal(reg.Admin.ID, user.ID)
	})

	s.Run("wrong password fails", func() {
		_, _, err := s.svc.Login(s.ctx, reg.Tenant.ID, reg.Admin.Email, "wrong-password-here")
		s.Require().True(dErrors.HasCode(err, dErrors.CodeUnauthenticated))
	})

	s.Run("valid email against the wrong clinic fails identically", func() {
		other := s.register("south")
		_, _, err := s.svc.Login(s.ctx, other.Tenant.ID, reg.Admin.Email, "correct-horse-battery")
		s.Require().True(dErrors.HasCode(err, dErrors.CodeUnauthenticated))
	})

	s.Run("suspended clinic cannot log in", func() {
		reg2 := s.register("west")
		t, err := s.tenants.FindByID(scope.NewContext(s.ctx, scope.AllTenants("test")), reg2.Tenant.ID)
		s.Require().NoError(err)
		s.Require().NoError(t.Suspend(time.Now()))
		s.Require().NoError(s.tenants.Update(scope.NewContext(s.ctx, scope.AllTenants("test")), t))

		_, _, err = s.svc.Login(s.ctx, reg2.Tenant.ID, reg2.Admin.Email, "correct-horse-battery")
		s.Require().True(dErrors.HasCode(err, dErrors.CodeUnauthenticated))
	})
}

func (s *ServiceSuite) TestCreateDoctor() {
	reg := s.register("north")
	sc := s.scopeOf(reg)

	s.Run("creates up to the plan limit", func() {
		for i, name := range []string{"Dr. A", "Dr. B"} {
			_, err := s.svc.CreateDoctor(s.ctx, sc, CreateDoctorRequest{
				FullName:      name,
				LicenseNumber: "LIC-" + string(rune('0'+i)),
			})
			s.Require().NoError(err)
		}
	})

	s.Run("limit rejects the next create", func() {
		_, err := s.svc.CreateDoctor(s.ctx, sc, CreateDoctorRequest{
			FullName:      "Dr. C",
			LicenseNumber: "LIC-9",
		})
		s.Require().True(dErrors.HasCode(err, dErrors.CodeLimitExceeded))
		s.Contains(s.audit.actions(), string(audit.EventPlanLimitExceeded))
	})

	s.Run("duplicate license within the clinic conflicts", func() {
		other := s.register("south")
		otherScope := s.scopeOf(other)
		_, err := s.svc.CreateDoctor(s.ctx, otherScope, CreateDoctorRequest{
			FullName:      "Dr. D",
			LicenseNumber: "LIC-0",
		})
		s.Require().NoError(err, "same license in a different clinic is fine")

		_, err = s.svc.CreateDoctor(s.ctx, otherScope, CreateDoctorRequest{
			FullName:      "Dr. E",
			LicenseNumber: "LIC-0",
		})
		s.Require().True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func (s *ServiceSuite) TestIsolationBetweenClinics() {
	north := s.register("north")
	south := s.register("south")
	northScope := s.scopeOf(north)
	southScope := s.scopeOf(south)

	doc, err := s.svc.CreateDoctor(s.ctx, northScope, CreateDoctorRequest{
		FullName:      "Dr. North",
		LicenseNumber: "LIC-N",
	})
	s.Require().NoError(err)

	s.Run("foreign doctor reads as not found", func() {
		_, err := s.svc.GetDoctor(s.ctx, southScope, doc.ID)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("foreign doctor is absent from lists", func() {
		list, err := s.svc.ListDoctors(s.ctx, southScope)
		s.Require().NoError(err)
		s.Empty(list)
	})

	s.Run("appointment cannot reference a foreign doctor", func() {
		pat, err := s.svc.CreatePatient(s.ctx, southScope, CreatePatientRequest{
			FullName:            "Pat",
			MedicalRecordNumber: "MRN-1",
		})
		s.Require().NoError(err)

		_, err = s.svc.CreateAppointment(s.ctx, southScope, CreateAppointmentRequest{
			DoctorID:  doc.ID,
			PatientID: pat.ID,
			StartsAt:  time.Now().Add(24 * time.Hour),
		})
		s.Require().True(dErrors.HasCode(err, dErrors.CodeCrossTenantReference))
		s.Contains(s.audit.actions(), string(audit.EventCrossTenantRejected))
	})
}

func (s *ServiceSuite) TestAppointments() {
	reg := s.register("north")
	sc := s.scopeOf(reg)

	doc, err := s.svc.CreateDoctor(s.ctx, sc, CreateDoctorRequest{FullName: "Dr. A", LicenseNumber: "LIC-1"})
	s.Require().NoError(err)
	pat, err := s.svc.CreatePatient(s.ctx, sc, CreatePatientRequest{FullName: "Pat", MedicalRecordNumber: "MRN-1"})
	s.Require().NoError(err)

	starts := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	appt, err := s.svc.CreateAppointment(s.ctx, sc, CreateAppointmentRequest{
		DoctorID:  doc.ID,
		PatientID: pat.ID,
		StartsAt:  starts,
		Minutes:   45,
	})
	s.Require().NoError(err)

	found, err := s.svc.GetAppointment(s.ctx, sc, appt.ID)
	s.Require().NoError(err)
	s.Equal(45, found.Minutes)

	schedule, err := s.svc.ListDoctorSchedule(s.ctx, sc, doc.ID, starts.Add(-time.Hour), starts.Add(time.Hour))
	s.Require().NoError(err)
	s.Len(schedule, 1)
}

func (s *ServiceSuite) TestGetProfile() {
	reg := s.register("north")
	sc := s.scopeOf(reg)

	_, err := s.svc.CreateDoctor(s.ctx, sc, CreateDoctorRequest{FullName: "Dr. A", LicenseNumber: "LIC-1"})
	s.Require().NoError(err)

	profile, err := s.svc.GetProfile(s.ctx, sc)
	s.Require().NoError(err)
	s.Equal(reg.Tenant.ID, profile.Tenant.ID)
	s.Equal(1, profile.DoctorCount)
	s.Equal(1, profile.UserCount)
	s.Equal(0, profile.PatientCount)
}

func (s *ServiceSuite) TestCatalog() {
	reg := s.register("north")
	sc := s.scopeOf(reg)

	item, err := s.svc.CreateCatalogItem(s.ctx, sc, CreateCatalogItemRequest{
		Code: "gp-30",
		Name: "GP consult",
		Kind: models.CatalogKindService,
	})
	s.Require().NoError(err)
	s.Equal("GP-30", item.Code)

	_, err = s.svc.CreateCatalogItem(s.ctx, sc, CreateCatalogItemRequest{
		Code: "GP-30",
		Name: "Duplicate",
	})
	s.Require().True(dErrors.HasCode(err, dErrors.CodeConflict))

	list, err := s.svc.ListCatalog(s.ctx, sc)
	s.Require().NoError(err)
	s.Len(list, 1)
}
