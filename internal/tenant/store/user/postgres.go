// Package user persists clinic staff accounts.
package user

import (
	"context"
	"database/sql"
	"strings"

	"clinica/internal/storage"
	"clinica/internal/tenant/models"
	id "clinica/pkg/domain"
	"clinica/pkg/platform/tx"
)

const userColumns = `id, tenant_id, email, full_name, role, password_hash, created_at, updated_at`

type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Create(ctx context.Context, u *models.User) error {
	q := tx.QuerierFrom(ctx, s.db)
	_, err := q.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID.String(), u.TenantID.String(), u.Email, u.FullName, u.Role,
		u.PasswordHash, u.CreatedAt, u.UpdatedAt,
	)
	return storage.MapError(err)
}

// FindByEmail resolves a login attempt. The query carries no tenant filter;
// row security already narrows it to the bound tenant.
func (s *Postgres) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	q := tx.QuerierFrom(ctx, s.db)
	row := q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`,
		strings.TrimSpace(email))
	return scanUser(row)
}

func (s *Postgres) FindByID(ctx context.Context, userID id.UserID) (*models.User, error) {
	q := tx.QuerierFrom(ctx, s.db)
	row := q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID.String())
	return scanUser(row)
}

func (s *Postgres) Count(ctx context.Context) (int, error) {
	q := tx.QuerierFrom(ctx, s.db)
	var n int
	if err := q.QueryRowContext(ctx, `SELECT count(*) FROM users`).Scan(&n); err != nil {
		return 0, storage.MapError(err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u         models.User
		rawID     string
		rawTenant string
	)
	err := row.Scan(&rawID, &rawTenant, &u.Email, &u.FullName, &u.Role,
		&u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, storage.MapError(err)
	}
	if u.ID, err = id.ParseUserID(rawID); err != nil {
		return nil, err
	}
	if u.TenantID, err = id.ParseTenantID(rawTenant); err != nil {
		return nil, err
	}
	return &u, nil
}
