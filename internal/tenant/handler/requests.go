package handler

import (
	"strings"
	"time"

	"clinica/internal/tenant/models"
	"clinica/internal/tenant/service"
	id "clinica/pkg/domain"
	dErrors "clinica/pkg/domain-errors"
)

// RegisterRequest is the HTTP request body for POST /register.
type RegisterRequest struct {
	ClinicName    string `json:"clinic_name"`
	Plan          string `json:"plan"`
	AdminEmail    string `json:"admin_email"`
	AdminFullName string `json:"admin_full_name"`
	AdminPassword string `json:"admin_password"`
}

// Validate validates the registration request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *RegisterRequest) Validate() error {
	r.ClinicName = strings.TrimSpace(r.ClinicName)
	if r.ClinicName == "" {
		return dErrors.New(dErrors.CodeValidation, "clinic_name is required")
	}
	if len(r.ClinicName) > 200 {
		return dErrors.New(dErrors.CodeValidation, "clinic_name must be at most 200 characters")
	}
	r.Plan = strings.TrimSpace(strings.ToLower(r.Plan))
	if r.Plan != "" && !models.Plan(r.Plan).IsValid() {
		return dErrors.Newf(dErrors.CodeValidation, "unknown plan %q", r.Plan)
	}
	r.AdminEmail = strings.TrimSpace(r.AdminEmail)
	if r.AdminEmail == "" {
		return dErrors.New(dErrors.CodeValidation, "admin_email is required")
	}
	r.AdminFullName = strings.TrimSpace(r.AdminFullName)
	if r.AdminFullName == "" {
		return dErrors.New(dErrors.CodeValidation, "admin_full_name is required")
	}
	if r.AdminPassword == "" {
		return dErrors.New(dErrors.CodeValidation, "admin_password is required")
	}
	return nil
}

// ToService converts the request to the service form.
func (r *RegisterRequest) ToService() service.RegisterClinicRequest {
	return service.RegisterClinicRequest{
		ClinicName:    r.ClinicName,
		Plan:          models.Plan(r.Plan),
		AdminEmail:    r.AdminEmail,
		AdminFullName: r.AdminFullName,
		AdminPassword: r.AdminPassword,
	}
}

// LoginRequest is the HTTP request body for POST /login. The clinic is part
// of the credentials: the same email may exist independently in several
// clinics.
type LoginRequest struct {
	TenantID string `json:"tenant_id"`
	Email    string `json:"email"`
	Password string `json:"password"`

	parsedTenantID id.TenantID
}

func (r *LoginRequest) Validate() error {
	r.TenantID = strings.TrimSpace(r.TenantID)
	if r.TenantID == "" {
		return dErrors.New(dErrors.CodeValidation, "tenant_id is required")
	}
	tenantID, err := id.ParseTenantID(r.TenantID)
	if err != nil {
		return err
	}
	r.parsedTenantID = tenantID

	r.Email = strings.TrimSpace(r.Email)
	if r.Email == "" {
		return dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if r.Password == "" {
		return dErrors.New(dErrors.CodeValidation, "password is required")
	}
	return nil
}

// ParsedTenantID returns the validated tenant ID.
func (r *LoginRequest) ParsedTenantID() id.TenantID {
	return r.parsedTenantID
}

// CreateDoctorRequest is the HTTP request body for POST /doctors.
type CreateDoctorRequest struct {
	FullName      string `json:"full_name"`
	Specialty     string `json:"specialty"`
	LicenseNumber string `json:"license_number"`
}

func (r *CreateDoctorRequest) Validate() error {
	r.FullName = strings.TrimSpace(r.FullName)
	if r.FullName == "" {
		return dErrors.New(dErrors.CodeValidation, "full_name is required")
	}
	r.LicenseNumber = strings.TrimSpace(r.LicenseNumber)
	if r.LicenseNumber == "" {
		return dErrors.New(dErrors.CodeValidation, "license_number is required")
	}
	r.Specialty = strings.TrimSpace(r.Specialty)
	return nil
}

func (r *CreateDoctorRequest) ToService() service.CreateDoctorRequest {
	return service.CreateDoctorRequest{
		FullName:      r.FullName,
		Specialty:     r.Specialty,
		LicenseNumber: r.LicenseNumber,
	}
}

// CreatePatientRequest is the HTTP request body for POST /patients.
type CreatePatientRequest struct {
	FullName            string `json:"full_name"`
	MedicalRecordNumber string `json:"medical_record_number"`
	BornOn              string `json:"born_on,omitempty"`

	parsedBornOn *time.Time
}

func (r *CreatePatientRequest) Validate() error {
	r.FullName = strings.TrimSpace(r.FullName)
	if r.FullName == "" {
		return dErrors.New(dErrors.CodeValidation, "full_name is required")
	}
	r.MedicalRecordNumber = strings.TrimSpace(r.MedicalRecordNumber)
	if r.MedicalRecordNumber == "" {
		return dErrors.New(dErrors.CodeValidation, "medical_record_number is required")
	}
	if r.BornOn != "" {
		bornOn, err := time.Parse("2006-01-02", r.BornOn)
		if err != nil {
			return dErrors.New(dErrors.CodeValidation, "born_on must be a date in YYYY-MM-DD form")
		}
		r.parsedBornOn = &bornOn
	}
	return nil
}

func (r *CreatePatientRequest) ToService() service.CreatePatientRequest {
	return service.CreatePatientRequest{
		FullName:            r.FullName,
		MedicalRecordNumber: r.MedicalRecordNumber,
		BornOn:              r.parsedBornOn,
	}
}

// CreateAppointmentRequest is the HTTP request body for POST /appointments.
type CreateAppointmentRequest struct {
	DoctorID  string `json:"doctor_id"`
	PatientID string `json:"patient_id"`
	StartsAt  string `json:"starts_at"`
	Minutes   int    `json:"minutes,omitempty"`
	Notes     string `json:"notes,omitempty"`

	parsedDoctorID  id.DoctorID
	parsedPatientID id.PatientID
	parsedStartsAt  time.Time
}

func (r *CreateAppointmentRequest) Validate() error {
	doctorID, err := id.ParseDoctorID(strings.TrimSpace(r.DoctorID))
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "doctor_id must be a valid id")
	}
	r.parsedDoctorID = doctorID

	patientID, err := id.ParsePatientID(strings.TrimSpace(r.PatientID))
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "patient_id must be a valid id")
	}
	r.parsedPatientID = patientID

	startsAt, err := time.Parse(time.RFC3339, strings.TrimSpace(r.StartsAt))
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "starts_at must be an RFC3339 timestamp")
	}
	r.parsedStartsAt = startsAt

	if r.Minutes < 0 {
		return dErrors.New(dErrors.CodeValidation, "minutes must not be negative")
	}
	return nil
}

func (r *CreateAppointmentRequest) ToService() service.CreateAppointmentRequest {
	return service.CreateAppointmentRequest{
		DoctorID:  r.parsedDoctorID,
		PatientID: r.parsedPatientID,
		StartsAt:  r.parsedStartsAt,
		Minutes:   r.Minutes,
		Notes:     strings.TrimSpace(r.Notes),
	}
}

// CreateCatalogItemRequest is the HTTP request body for POST /catalog.
type CreateCatalogItemRequest struct {
	Code string `json:"code"`
	Name string `json:"name"`
	Kind string `json:"kind"`
}

func (r *CreateCatalogItemRequest) Validate() error {
	r.Code = strings.TrimSpace(r.Code)
	if r.Code == "" {
		return dErrors.New(dErrors.CodeValidation, "code is required")
	}
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	r.Kind = strings.TrimSpace(strings.ToLower(r.Kind))
	if r.Kind != "" && !models.CatalogKind(r.Kind).IsValid() {
		return dErrors.Newf(dErrors.CodeValidation, "unknown catalog kind %q", r.Kind)
	}
	return nil
}

func (r *CreateCatalogItemRequest) ToService() service.CreateCatalogItemRequest {
	return service.CreateCatalogItemRequest{
		Code: r.Code,
		Name: r.Name,
		Kind: models.CatalogKind(r.Kind),
	}
}
