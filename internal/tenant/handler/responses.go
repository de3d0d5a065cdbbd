package handler

import (
	"clinica/internal/tenant/models"
	"clinica/internal/tenant/service"
)

// RegisterResponse is the HTTP response body for POST /register.
type RegisterResponse struct {
	Tenant *models.Tenant `json:"tenant"`
	Admin  *models.User   `json:"admin"`
	Token  string         `json:"token"`
}

// FromRegistration converts a registration result to the HTTP response.
func FromRegistration(reg *service.Registration) RegisterResponse {
	return RegisterResponse{
		Tenant: reg.Tenant,
		Admin:  reg.Admin,
		Token:  reg.Token,
	}
}

// LoginResponse is the HTTP response body for POST /login.
type LoginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// DoctorListResponse is the HTTP response body for GET /doctors.
type DoctorListResponse struct {
	Doctors []*models.Doctor `json:"doctors"`
}

// PatientListResponse is the HTTP response body for GET /patients.
type PatientListResponse struct {
	Patients []*models.Patient `json:"patients"`
}

// AppointmentListResponse is the HTTP response body for GET /appointments
// and GET /doctors/{doctorID}/schedule.
type AppointmentListResponse struct {
	Appointments []*models.Appointment `json:"appointments"`
}

// CatalogListResponse is the HTTP response body for GET /catalog.
type CatalogListResponse struct {
	Items []*models.CatalogItem `json:"items"`
}
