// Package domain defines typed identifiers for all aggregates.
//
// Every ID is a distinct uuid newtype so the compiler rejects cross-type
// assignment: a DoctorID can never be passed where a TenantID is expected.
// Parsing happens once, at trust boundaries; interior code only sees typed IDs.
package domain

import (
	"github.com/google/uuid"

	dErrors "clinica/pkg/domain-errors"
)

type (
	// TenantID identifies one isolation unit (a clinic organization).
	TenantID uuid.UUID

	// UserID identifies a staff account. An account belongs to exactly one
	// tenant for its whole lifetime.
	UserID uuid.UUID

	// DoctorID identifies a doctor profile within a tenant.
	DoctorID uuid.UUID

	// PatientID identifies a patient record within a tenant.
	PatientID uuid.UUID

	// AppointmentID identifies an appointment within a tenant.
	AppointmentID uuid.UUID

	// CatalogItemID identifies a catalog entry (shared or tenant-owned).
	CatalogItemID uuid.UUID
)

func (id TenantID) String() string      { return uuid.UUID(id).String() }
func (id UserID) String() string        { return uuid.UUID(id).String() }
func (id DoctorID) String() string      { return uuid.UUID(id).String() }
func (id PatientID) String() string     { return uuid.UUID(id).String() }
func (id AppointmentID) String() string { return uuid.UUID(id).String() }
func (id CatalogItemID) String() string { return uuid.UUID(id).String() }

func (id TenantID) IsZero() bool      { return uuid.UUID(id) == uuid.Nil }
func (id UserID) IsZero() bool        { return uuid.UUID(id) == uuid.Nil }
func (id DoctorID) IsZero() bool      { return uuid.UUID(id) == uuid.Nil }
func (id PatientID) IsZero() bool     { return uuid.UUID(id) == uuid.Nil }
func (id AppointmentID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }
func (id CatalogItemID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }

// IDs travel as canonical uuid strings in JSON and logs.
func (id TenantID) MarshalText() ([]byte, error)      { return []byte(id.String()), nil }
func (id UserID) MarshalText() ([]byte, error)        { return []byte(id.String()), nil }
func (id DoctorID) MarshalText() ([]byte, error)      { return []byte(id.String()), nil }
func (id PatientID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }
func (id AppointmentID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id CatalogItemID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *TenantID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	*id = TenantID(u)
	return err
}

func (id *UserID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	*id = UserID(u)
	return err
}

func (id *DoctorID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	*id = DoctorID(u)
	return err
}

func (id *PatientID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	*id = PatientID(u)
	return err
}

func (id *AppointmentID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	*id = AppointmentID(u)
	return err
}

func (id *CatalogItemID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	*id = CatalogItemID(u)
	return err
}

// parseUUID enforces the shared invariant: IDs must be valid, non-nil UUIDs.
func parseUUID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be empty")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must be a valid uuid")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be the nil uuid")
	}
	return parsed, nil
}

func ParseTenantID(raw string) (TenantID, error) {
	u, err := parseUUID(raw)
	return TenantID(u), err
}

func ParseUserID(raw string) (UserID, error) {
	u, err := parseUUID(raw)
	return UserID(u), err
}

func ParseDoctorID(raw string) (DoctorID, error) {
	u, err := parseUUID(raw)
	return DoctorID(u), err
}

func ParsePatientID(raw string) (PatientID, error) {
	u, err := parseUUID(raw)
	return PatientID(u), err
}

func ParseAppointmentID(raw string) (AppointmentID, error) {
	u, err := parseUUID(raw)
	return AppointmentID(u), err
}

func ParseCatalogItemID(raw string) (CatalogItemID, error) {
	u, err := parseUUID(raw)
	return CatalogItemID(u), err
}
