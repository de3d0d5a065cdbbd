package models

import (
	"time"

	id "clinica/pkg/domain"
	dErrors "clinica/pkg/domain-errors"
)

// Doctor is a practitioner record. License numbers are unique within the
// tenant only; unrelated clinics may legitimately share one.
type Doctor struct {
	ID            id.DoctorID `json:"id"`
	TenantID      id.TenantID `json:"tenant_id"`
	FullName      string      `json:"full_name"`
	Specialty     string      `json:"specialty"`
	LicenseNumber string      `json:"license_number"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

func NewDoctor(doctorID id.DoctorID, tenantID id.TenantID, fullName, specialty, licenseNumber string, now time.Time) (*Doctor, error) {
	if fullName == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "doctor full name cannot be empty")
	}
	if licenseNumber == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "doctor license number cannot be empty")
	}
	if tenantID.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "doctor must belong to a tenant")
	}
	return &Doctor{
		ID:            doctorID,
		TenantID:      tenantID,
		FullName:      fullName,
		Specialty:     specialty,
		LicenseNumber: licenseNumber,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}
