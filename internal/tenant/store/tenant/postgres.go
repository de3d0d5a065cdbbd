// Package tenant persists the tenant aggregate. Reads run under row
// security: a scoped transaction sees exactly one row (its own), the
// operator bypass sees all of them.
package tenant

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"clinica/internal/storage"
	"clinica/internal/tenant/models"
	id "clinica/pkg/domain"
	"clinica/pkg/platform/tx"
)

const tenantColumns = `id, name, status, plan, max_doctors, max_patients, max_storage_mb,
	trial_ends_at, subscription_ends_at, settings, created_at, updated_at`

// Postgres is the production tenant store.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Create inserts the tenant row. This is the one write that runs before any
// scope is bound; the bootstrap insert policy admits it.
func (s *Postgres) Create(ctx context.Context, t *models.Tenant) error {
	settings, err := json.Marshal(t.Settings)
	if err != nil {
		return fmt.Errorf("marshal tenant settings: %w", err)
	}
	q := tx.QuerierFrom(ctx, s.db)
	_, err = q.ExecContext(ctx, `
		INSERT INTO tenants (`+tenantColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		t.ID.String(), t.Name, t.Status, t.Plan,
		t.Limits.MaxDoctors, t.Limits.MaxPatients, t.Limits.MaxStorageMB,
		t.TrialEndsAt, t.SubscriptionEndsAt, settings, t.CreatedAt, t.UpdatedAt,
	)
	return storage.MapError(err)
}

// FindSelf returns the tenant the current scope belongs to. Under a scoped
// transaction row security exposes exactly that row.
func (s *Postgres) FindSelf(ctx context.Context) (*models.Tenant, error) {
	q := tx.QuerierFrom(ctx, s.db)
	row := q.QueryRowContext(ctx, `SELECT `+tenantColumns+` FROM tenants LIMIT 1`)
	return scanTenant(row)
}

// LockSelf returns the tenant row locked FOR UPDATE. Capacity checks lock
// the row first so concurrent inserts against the same limit serialize.
func (s *Postgres) LockSelf(ctx context.Context) (*models.Tenant, error) {
	q := tx.QuerierFrom(ctx, s.db)
	row := q.QueryRowContext(ctx, `SELECT `+tenantColumns+` FROM tenants LIMIT 1 FOR UPDATE`)
	return scanTenant(row)
}

// FindByID looks a tenant up by id. Only useful under the operator bypass;
// a tenant-scoped call can at most find itself.
func (s *Postgres) FindByID(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error) {
	q := tx.QuerierFrom(ctx, s.db)
	row := q.QueryRowContext(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, tenantID.String())
	return scanTenant(row)
}

// Update persists mutable aggregate state.
func (s *Postgres) Update(ctx context.Context, t *models.Tenant) error {
	settings, err := json.Marshal(t.Settings)
	if err != nil {
		return fmt.Errorf("marshal tenant settings: %w", err)
	}
	q := tx.QuerierFrom(ctx, s.db)
	res, err := q.ExecContext(ctx, `
		UPDATE tenants
		SET name = $2, status = $3, plan = $4, max_doctors = $5, max_patients = $6,
		    max_storage_mb = $7, trial_ends_at = $8, subscription_ends_at = $9,
		    settings = $10, updated_at = $11
		WHERE id = $1`,
		t.ID.String(), t.Name, t.Status, t.Plan,
		t.Limits.MaxDoctors, t.Limits.MaxPatients, t.Limits.MaxStorageMB,
		t.TrialEndsAt, t.SubscriptionEndsAt, settings, t.UpdatedAt,
	)
	if err != nil {
		return storage.MapError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return storage.MapError(sql.ErrNoRows)
	}
	return nil
}

// List returns every tenant. Row security makes this the operator's view;
// a tenant-scoped caller gets a single-element slice.
func (s *Postgres) List(ctx context.Context) ([]*models.Tenant, error) {
	q := tx.QuerierFrom(ctx, s.db)
	rows, err := q.QueryContext(ctx, `SELECT `+tenantColumns+` FROM tenants ORDER BY created_at`)
	if err != nil {
		return nil, storage.MapError(err)
	}
	defer rows.Close()

	var tenants []*models.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTenant(row rowScanner) (*models.Tenant, error) {
	var (
		t        models.Tenant
		rawID    string
		trialEnd sql.NullTime
		subEnd   sql.NullTime
		settings []byte
	)
	err := row.Scan(
		&rawID, &t.Name, &t.Status, &t.Plan,
		&t.Limits.MaxDoctors, &t.Limits.MaxPatients, &t.Limits.MaxStorageMB,
		&trialEnd, &subEnd, &settings, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, storage.MapError(err)
	}
	t.ID, err = id.ParseTenantID(rawID)
	if err != nil {
		return nil, err
	}
	if trialEnd.Valid {
		at := trialEnd.Time
		t.TrialEndsAt = &at
	}
	if subEnd.Valid {
		at := subEnd.Time
		t.SubscriptionEndsAt = &at
	}
	if len(settings) > 0 {
		if err := json.Unmarshal(settings, &t.Settings); err != nil {
			return nil, fmt.Errorf("unmarshal tenant settings: %w", err)
		}
	}
	if t.Settings == nil {
		t.Settings = map[string]any{}
	}
	return &t, nil
}
