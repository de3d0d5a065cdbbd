// Package doctor persists practitioner records. Every query relies on row
// security for tenant visibility; no query filters by tenant_id itself.
package doctor

import (
	"context"
	"database/sql"

	"clinica/internal/storage"
	"clinica/internal/tenant/models"
	id "clinica/pkg/domain"
	"clinica/pkg/platform/tx"
)

const doctorColumns = `id, tenant_id, full_name, specialty, license_number, created_at, updated_at`

type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Create(ctx context.Context, d *models.Doctor) error {
	q := tx.QuerierFrom(ctx, s.db)
	_, err := q.ExecContext(ctx, `
		INSERT INTO doctors (`+doctorColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		d.ID.String(), d.TenantID.String(), d.FullName, d.Specialty,
		d.LicenseNumber, d.CreatedAt, d.UpdatedAt,
	)
	return storage.MapError(err)
}

func (s *Postgres) FindByID(ctx context.Context, doctorID id.DoctorID) (*models.Doctor, error) {
	q := tx.QuerierFrom(ctx, s.db)
	row := q.QueryRowContext(ctx, `SELECT `+doctorColumns+` FROM doctors WHERE id = $1`, doctorID.String())
	return scanDoctor(row)
}

func (s *Postgres) List(ctx context.Context) ([]*models.Doctor, error) {
	q := tx.QuerierFrom(ctx, s.db)
	rows, err := q.QueryContext(ctx, `SELECT `+doctorColumns+` FROM doctors ORDER BY full_name`)
	if err != nil {
		return nil, storage.MapError(err)
	}
	defer rows.Close()

	var doctors []*models.Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		doctors = append(doctors, d)
	}
	return doctors, rows.Err()
}

func (s *Postgres) Count(ctx context.Context) (int, error) {
	q := tx.QuerierFrom(ctx, s.db)
	var n int
	if err := q.QueryRowContext(ctx, `SELECT count(*) FROM doctors`).Scan(&n); err != nil {
		return 0, storage.MapError(err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDoctor(row rowScanner) (*models.Doctor, error) {
	var (
		d         models.Doctor
		rawID     string
		rawTenant string
	)
	err := row.Scan(&rawID, &rawTenant, &d.FullName, &d.Specialty,
		&d.LicenseNumber, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, storage.MapError(err)
	}
	if d.ID, err = id.ParseDoctorID(rawID); err != nil {
		return nil, err
	}
	if d.TenantID, err = id.ParseTenantID(rawTenant); err != nil {
		return nil, err
	}
	return &d, nil
}
