// Package patient persists clinical records.
package patient

import (
	"context"
	"database/sql"

	"clinica/internal/storage"
	"clinica/internal/tenant/models"
	id "clinica/pkg/domain"
	"clinica/pkg/platform/tx"
)

const patientColumns = `id, tenant_id, full_name, medical_record_number, born_on, created_at, updated_at`

type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Create(ctx context.Context, p *models.Patient) error {
	q := tx.QuerierFrom(ctx, s.db)
	_, err := q.ExecContext(ctx, `
		INSERT INTO patients (`+patientColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID.String(), p.TenantID.String(), p.FullName, p.MedicalRecordNumber,
		p.BornOn, p.CreatedAt, p.UpdatedAt,
	)
	return storage.MapError(err)
}

func (s *Postgres) FindByID(ctx context.Context, patientID id.PatientID) (*models.Patient, error) {
	q := tx.QuerierFrom(ctx, s.db)
	row := q.QueryRowContext(ctx, `SELECT `+patientColumns+` FROM patients WHERE id = $1`, patientID.String())
	return scanPatient(row)
}

// FindByMRN looks a patient up by the clinic-assigned record number.
func (s *Postgres) FindByMRN(ctx context.Context, mrn string) (*models.Patient, error) {
	q := tx.QuerierFrom(ctx, s.db)
	row := q.QueryRowContext(ctx, `SELECT `+patientColumns+` FROM patients WHERE medical_record_number = $1`, mrn)
	return scanPatient(row)
}

func (s *Postgres) List(ctx context.Context) ([]*models.Patient, error) {
	q := tx.QuerierFrom(ctx, s.db)
	rows, err := q.QueryContext(ctx, `SELECT `+patientColumns+` FROM patients ORDER BY full_name`)
	if err != nil {
		return nil, storage.MapError(err)
	}
	defer rows.Close()

	var patients []*models.Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		patients = append(patients, p)
	}
	return patients, rows.Err()
}

func (s *Postgres) Count(ctx context.Context) (int, error) {
	q := tx.QuerierFrom(ctx, s.db)
	var n int
	if err := q.QueryRowContext(ctx, `SELECT count(*) FROM patients`).Scan(&n); err != nil {
		return 0, storage.MapError(err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPatient(row rowScanner) (*models.Patient, error) {
	var (
		p         models.Patient
		rawID     string
		rawTenant string
		bornOn    sql.NullTime
	)
	err := row.Scan(&rawID, &rawTenant, &p.FullName, &p.MedicalRecordNumber,
		&bornOn, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, storage.MapError(err)
	}
	if p.ID, err = id.ParsePatientID(rawID); err != nil {
		return nil, err
	}
	if p.TenantID, err = id.ParseTenantID(rawTenant); err != nil {
		return nil, err
	}
	if bornOn.Valid {
		at := bornOn.Time
		p.BornOn = &at
	}
	return &p, nil
}
