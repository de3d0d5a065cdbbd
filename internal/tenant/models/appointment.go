package models

import (
	"time"

	id "clinica/pkg/domain"
	dErrors "clinica/pkg/domain-errors"
)

// Appointment links a doctor and a patient. It carries its own tenant
// identity; the storage layer refuses any link to a doctor or patient from
// another tenant.
type Appointment struct {
	ID        id.AppointmentID `json:"id"`
	TenantID  id.TenantID      `json:"tenant_id"`
	DoctorID  id.DoctorID      `json:"doctor_id"`
	PatientID id.PatientID     `json:"patient_id"`
	StartsAt  time.Time        `json:"starts_at"`
	Minutes   int              `json:"minutes"`
	Notes     string           `json:"notes"`
	CreatedAt time.Time        `json:"created_at"`
}

func NewAppointment(
	appointmentID id.AppointmentID,
	tenantID id.TenantID,
	doctorID id.DoctorID,
	patientID id.PatientID,
	startsAt time.Time,
	minutes int,
	notes string,
	now time.Time,
) (*Appointment, error) {
	if tenantID.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "appointment must belong to a tenant")
	}
	if doctorID.IsZero() || patientID.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "appointment requires a doctor and a patient")
	}
	if startsAt.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "appointment start time is required")
	}
	if minutes <= 0 {
		minutes = 30
	}
	if minutes > 8*60 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "appointment cannot exceed eight hours")
	}
	return &Appointment{
		ID:        appointmentID,
		TenantID:  tenantID,
		DoctorID:  doctorID,
		PatientID: patientID,
		StartsAt:  startsAt,
		Minutes:   minutes,
		Notes:     notes,
		CreatedAt: now,
	}, nil
}
