// Package appointment persists bookings. The composite references on the
// table make a cross-tenant doctor or patient link fail at insert time; the
// store surfaces that as sentinel.ErrForeignTenant.
package appointment

import (
	"context"
	"database/sql"
	"time"

	"clinica/internal/storage"
	"clinica/internal/tenant/models"
	id "clinica/pkg/domain"
	"clinica/pkg/platform/tx"
)

const appointmentColumns = `id, tenant_id, doctor_id, patient_id, starts_at, minutes, notes, created_at`

type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Create(ctx context.Context, a *models.Appointment) error {
	q := tx.QuerierFrom(ctx, s.db)
	_, err := q.ExecContext(ctx, `
		INSERT INTO appointments (`+appointmentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID.String(), a.TenantID.String(), a.DoctorID.String(), a.PatientID.String(),
		a.StartsAt, a.Minutes, a.Notes, a.CreatedAt,
	)
	return storage.MapError(err)
}

func (s *Postgres) FindByID(ctx context.Context, appointmentID id.AppointmentID) (*models.Appointment, error) {
	q := tx.QuerierFrom(ctx, s.db)
	row := q.QueryRowContext(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, appointmentID.String())
	return scanAppointment(row)
}

// ListByDoctor returns a doctor's bookings in start order.
func (s *Postgres) ListByDoctor(ctx context.Context, doctorID id.DoctorID, from, to time.Time) ([]*models.Appointment, error) {
	q := tx.QuerierFrom(ctx, s.db)
	rows, err := q.QueryContext(ctx, `
		SELECT `+appointmentColumns+` FROM appointments
		WHERE doctor_id = $1 AND starts_at >= $2 AND starts_at < $3
		ORDER BY starts_at`,
		doctorID.String(), from, to)
	if err != nil {
		return nil, storage.MapError(err)
	}
	return collect(rows)
}

func (s *Postgres) List(ctx context.Context) ([]*models.Appointment, error) {
	q := tx.QuerierFrom(ctx, s.db)
	rows, err := q.QueryContext(ctx,
		`SELECT `+appointmentColumns+` FROM appointments ORDER BY starts_at`)
	if err != nil {
		return nil, storage.MapError(err)
	}
	return collect(rows)
}

func collect(rows *sql.Rows) ([]*models.Appointment, error) {
	defer rows.Close()
	var out []*models.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row rowScanner) (*models.Appointment, error) {
	var (
		a          models.Appointment
		rawID      string
		rawTenant  string
		rawDoctor  string
		rawPatient string
	)
	err := row.Scan(&rawID, &rawTenant, &rawDoctor, &rawPatient,
		&a.StartsAt, &a.Minutes, &a.Notes, &a.CreatedAt)
	if err != nil {
		return nil, storage.MapError(err)
	}
	if a.ID, err = id.ParseAppointmentID(rawID); err != nil {
		return nil, err
	}
	if a.TenantID, err = id.ParseTenantID(rawTenant); err != nil {
		return nil, err
	}
	if a.DoctorID, err = id.ParseDoctorID(rawDoctor); err != nil {
		return nil, err
	}
	if a.PatientID, err = id.ParsePatientID(rawPatient); err != nil {
		return nil, err
	}
	return &a, nil
}
