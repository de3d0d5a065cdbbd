package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"clinica/internal/scope"
	"clinica/internal/tenant/models"
	id "clinica/pkg/domain"
	dErrors "clinica/pkg/domain-errors"
	"clinica/pkg/platform/audit"
	"clinica/pkg/requestcontext"
)

type CreateDoctorRequest struct {
	FullName      string
	Specialty     string
	LicenseNumber string
}

// CreateDoctor adds a practitioner, enforcing the plan's doctor limit. The
// tenant row is locked before counting so two concurrent creates against the
// last free slot serialize; exactly one wins.
func (s *Service) CreateDoctor(ctx context.Context, sc scope.Scope, req CreateDoctorRequest) (*models.Doctor, error) {
	var doctor *models.Doctor
	err := s.sessions.WithTenantScope(ctx, sc, func(txCtx context.Context) error {
		t, err := s.stores.Tenants.LockSelf(txCtx)
		if err != nil {
			return storeErr(err, "clinic")
		}
		n, err := s.stores.Doctors.Count(txCtx)
		if err != nil {
			return storeErr(err, "doctor")
		}
		if n >= t.Limits.MaxDoctors {
			if s.metrics != nil {
				s.metrics.IncrementLimitRejections("doctor")
			}
			s.emitAudit(txCtx, sc, audit.EventPlanLimitExceeded, t.ID, "doctors", "")
			return dErrors.Newf(dErrors.CodeLimitExceeded, "plan allows at most %d doctors", t.Limits.MaxDoctors)
		}

		d, err := models.NewDoctor(id.DoctorID(uuid.New()), sc.TenantID(), req.FullName, req.Specialty, req.LicenseNumber, requestcontext.Now(txCtx))
		if err != nil {
			return invariantToValidation(err)
		}
		if err := s.stores.Doctors.Create(txCtx, d); err != nil {
			if dErrors.HasCode(storeErr(err, "doctor"), dErrors.CodeConflict) {
				return dErrors.New(dErrors.CodeConflict, "license number is already registered in this clinic")
			}
			return storeErr(err, "doctor")
		}
		doctor = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emitAudit(ctx, sc, audit.EventDoctorCreated, sc.TenantID(), doctor.ID.String(), "")
	if s.metrics != nil {
		s.metrics.IncrementRecordsCreated("doctor")
	}
	return doctor, nil
}

func (s *Service) GetDoctor(ctx context.Context, sc scope.Scope, doctorID id.DoctorID) (*models.Doctor, error) {
	var doctor *models.Doctor
	err := s.sessions.WithTenantScope(ctx, sc, func(txCtx context.Context) error {
		d, err := s.stores.Doctors.FindByID(txCtx, doctorID)
		if err != nil {
			return storeErr(err, "doctor")
		}
		doctor = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doctor, nil
}

func (s *Service) ListDoctors(ctx context.Context, sc scope.Scope) ([]*models.Doctor, error) {
	var doctors []*models.Doctor
	err := s.sessions.WithTenantScope(ctx, sc, func(txCtx context.Context) error {
		list, err := s.stores.Doctors.List(txCtx)
		if err != nil {
			return storeErr(err, "doctor")
		}
		doctors = list
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doctors, nil
}

type CreatePatientRequest struct {
	FullName            string
	MedicalRecordNumber string
	BornOn              *time.Time
}

// CreatePatient adds a clinical record, enforcing the plan's patient limit
// the same way CreateDoctor does.
func (s *Service) CreatePatient(ctx context.Context, sc scope.Scope, req CreatePatientRequest) (*models.Patient, error) {
	var patient *models.Patient
	err := s.sessions.WithTenantScope(ctx, sc, func(txCtx context.Context) error {
		t, err := s.stores.Tenants.LockSelf(txCtx)
		if err != nil {
			return storeErr(err, "clinic")
		}
		n, err := s.stores.Patients.Count(txCtx)
		if err != nil {
			return storeErr(err, "patient")
		}
		if n >= t.Limits.MaxPatients {
			if s.metrics != nil {
				s.metrics.IncrementLimitRejections("patient")
			}
			s.emitAudit(txCtx, sc, audit.EventPlanLimitExceeded, t.ID, "patients", "")
			return dErrors.Newf(dErrors.CodeLimitExceeded, "plan allows at most %d patients", t.Limits.MaxPatients)
		}

		p, err := models.NewPatient(id.PatientID(uuid.New()), sc.TenantID(), req.FullName, req.MedicalRecordNumber, req.BornOn, requestcontext.Now(txCtx))
		if err != nil {
			return invariantToValidation(err)
		}
		if err := s.stores.Patients.Create(txCtx, p); err != nil {
			if dErrors.HasCode(storeErr(err, "patient"), dErrors.CodeConflict) {
				return dErrors.New(dErrors.CodeConflict, "medical record number is already used in this clinic")
			}
			return storeErr(err, "patient")
		}
		patient = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emitAudit(ctx, sc, audit.EventPatientCreated, sc.TenantID(), patient.ID.String(), "")
	if s.metrics != nil {
		s.metrics.IncrementRecordsCreated("patient")
	}
	return patient, nil
}

func (s *Service) GetPatient(ctx context.Context, sc scope.Scope, patientID id.PatientID) (*models.Patient, error) {
	var patient *models.Patient
	err := s.sessions.WithTenantScope(ctx, sc, func(txCtx context.Context) error {
		p, err := s.stores.Patients.FindByID(txCtx, patientID)
		if err != nil {
			return storeErr(err, "patient")
		}
		patient = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return patient, nil
}

func (s *Service) ListPatients(ctx context.Context, sc scope.Scope) ([]*models.Patient, error) {
	var patients []*models.Patient
	err := s.sessions.WithTenantScope(ctx, sc, func(txCtx context.Context) error {
		list, err := s.stores.Patients.List(txCtx)
		if err != nil {
			return storeErr(err, "patient")
		}
		patients = list
		return nil
	})
	if err != nil {
		return nil, err
	}
	return patients, nil
}

type CreateAppointmentRequest struct {
	DoctorID  id.DoctorID
	PatientID id.PatientID
	StartsAt  time.Time
	Minutes   int
	Notes     string
}

// CreateAppointment books a doctor and patient. The referenced records must
// belong to the caller's clinic; a reference into another clinic fails
// identically to a reference to nothing.
func (s *Service) CreateAppointment(ctx context.Context, sc scope.Scope, req CreateAppointmentRequest) (*models.Appointment, error) {
	var appointment *models.Appointment
	err := s.sessions.WithTenantScope(ctx, sc, func(txCtx context.Context) error {
		a, err := models.NewAppointment(
			id.AppointmentID(uuid.New()), sc.TenantID(),
			req.DoctorID, req.PatientID,
			req.StartsAt, req.Minutes, req.Notes,
			requestcontext.Now(txCtx),
		)
		if err != nil {
			return invariantToValidation(err)
		}
		if err := s.stores.Appointments.Create(txCtx, a); err != nil {
			translated := storeErr(err, "appointment")
			if dErrors.HasCode(translated, dErrors.CodeCrossTenantReference) {
				s.emitAudit(txCtx, sc, audit.EventCrossTenantRejected, sc.TenantID(), a.ID.String(), "appointment reference")
			}
			return translated
		}
		appointment = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emitAudit(ctx, sc, audit.EventAppointmentCreated, sc.TenantID(), appointment.ID.String(), "")
	if s.metrics != nil {
		s.metrics.IncrementRecordsCreated("appointment")
	}
	return appointment, nil
}

func (s *Service) GetAppointment(ctx context.Context, sc scope.Scope, appointmentID id.AppointmentID) (*models.Appointment, error) {
	var appointment *models.Appointment
	err := s.sessions.WithTenantScope(ctx, sc, func(txCtx context.Context) error {
		a, err := s.stores.Appointments.FindByID(txCtx, appointmentID)
		if err != nil {
			return storeErr(err, "appointment")
		}
		appointment = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return appointment, nil
}

// ListDoctorSchedule returns a doctor's bookings inside [from, to).
func (s *Service) ListDoctorSchedule(ctx context.Context, sc scope.Scope, doctorID id.DoctorID, from, to time.Time) ([]*models.Appointment, error) {
	var appointments []*models.Appointment
	err := s.sessions.WithTenantScope(ctx, sc, func(txCtx context.Context) error {
		list, err := s.stores.Appointments.ListByDoctor(txCtx, doctorID, from, to)
		if err != nil {
			return storeErr(err, "appointment")
		}
		appointments = list
		return nil
	})
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

func (s *Service) ListAppointments(ctx context.Context, sc scope.Scope) ([]*models.Appointment, error) {
	var appointments []*models.Appointment
	err := s.sessions.WithTenantScope(ctx, sc, func(txCtx context.Context) error {
		list, err := s.stores.Appointments.List(txCtx)
		if err != nil {
			return storeErr(err, "appointment")
		}
		appointments = list
		return nil
	})
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

type CreateCatalogItemRequest struct {
	Code string
	Name string
	Kind models.CatalogKind
}

// CreateCatalogItem adds a clinic-owned billable item. The code may shadow a
// shared item with the same code; it must be unique among the clinic's own.
func (s *Service) CreateCatalogItem(ctx context.Context, sc scope.Scope, req CreateCatalogItemRequest) (*models.CatalogItem, error) {
	var item *models.CatalogItem
	err := s.sessions.WithTenantScope(ctx, sc, func(txCtx context.Context) error {
		ci, err := models.NewCatalogItem(id.CatalogItemID(uuid.New()), sc.TenantID(), req.Code, req.Name, req.Kind, requestcontext.Now(txCtx))
		if err != nil {
			return invariantToValidation(err)
		}
		if err := s.stores.Catalog.Create(txCtx, ci); err != nil {
			if dErrors.HasCode(storeErr(err, "catalog item"), dErrors.CodeConflict) {
				return dErrors.New(dErrors.CodeConflict, "catalog code is already used in this clinic")
			}
			return storeErr(err, "catalog item")
		}
		item = ci
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emitAudit(ctx, sc, audit.EventCatalogItemCreated, sc.TenantID(), item.Code, "")
	if s.metrics != nil {
		s.metrics.IncrementRecordsCreated("catalog_item")
	}
	return item, nil
}

// ListCatalog returns the clinic's own items plus the shared set.
func (s *Service) ListCatalog(ctx context.Context, sc scope.Scope) ([]*models.CatalogItem, error) {
	var items []*models.CatalogItem
	err := s.sessions.WithTenantScope(ctx, sc, func(txCtx context.Context) error {
		list, err := s.stores.Catalog.List(txCtx)
		if err != nil {
			return storeErr(err, "catalog item")
		}
		items = list
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// TenantProfile is the clinic's own view of itself, with usage counts.
type TenantProfile struct {
	Tenant       *models.Tenant `json:"tenant"`
	DoctorCount  int            `json:"doctor_count"`
	PatientCount int            `json:"patient_count"`
	UserCount    int            `json:"user_count"`
}

// GetProfile returns the current clinic with usage against its limits.
func (s *Service) GetProfile(ctx context.Context, sc scope.Scope) (*TenantProfile, error) {
	var profile TenantProfile
	err := s.sessions.WithTenantScope(ctx, sc, func(txCtx context.Context) error {
		t, err := s.stores.Tenants.FindSelf(txCtx)
		if err != nil {
			return storeErr(err, "clinic")
		}
		profile.Tenant = t
		if profile.DoctorCount, err = s.stores.Doctors.Count(txCtx); err != nil {
			return storeErr(err, "doctor")
		}
		if profile.PatientCount, err = s.stores.Patients.Count(txCtx); err != nil {
			return storeErr(err, "patient")
		}
		if profile.UserCount, err = s.stores.Users.Count(txCtx); err != nil {
			return storeErr(err, "user")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}
