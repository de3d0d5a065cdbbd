package models

import (
	"time"

	id "clinica/pkg/domain"
	dErrors "clinica/pkg/domain-errors"
)

// Patient is a clinical record. The medical record number is assigned by the
// clinic and unique within the tenant only.
type Patient struct {
	ID                  id.PatientID `json:"id"`
	TenantID            id.TenantID  `json:"tenant_id"`
	FullName            string       `json:"full_name"`
	MedicalRecordNumber string       `json:"medical_record_number"`
	BornOn              *time.Time   `json:"born_on,omitempty"`
	CreatedAt           time.Time    `json:"created_at"`
	UpdatedAt           time.Time    `json:"updated_at"`
}

func NewPatient(patientID id.PatientID, tenantID id.TenantID, fullName, mrn string, bornOn *time.Time, now time.Time) (*Patient, error) {
	if fullName == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "patient full name cannot be empty")
	}
	if mrn == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "medical record number cannot be empty")
	}
	if tenantID.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "patient must belong to a tenant")
	}
	if bornOn != nil && bornOn.After(now) {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "patient birth date is in the future")
	}
	return &Patient{
		ID:                  patientID,
		TenantID:            tenantID,
		FullName:            fullName,
		MedicalRecordNumber: mrn,
		BornOn:              bornOn,
		CreatedAt:           now,
		UpdatedAt:           now,
	}, nil
}
