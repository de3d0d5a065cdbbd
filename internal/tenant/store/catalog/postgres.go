// Package catalog persists billable items. Tenant-owned rows behave like any
// scoped entity; shared rows (tenant_id NULL) are readable by everyone and
// writable only through the operator bypass.
package catalog

import (
	"context"
	"database/sql"

	"clinica/internal/storage"
	"clinica/internal/tenant/models"
	id "clinica/pkg/domain"
	"clinica/pkg/platform/tx"
)

const catalogColumns = `id, tenant_id, code, name, kind, created_at`

type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Create(ctx context.Context, item *models.CatalogItem) error {
	q := tx.QuerierFrom(ctx, s.db)
	var tenantID any
	if !item.IsShared() {
		tenantID = item.TenantID.String()
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO catalog_items (`+catalogColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		item.ID.String(), tenantID, item.Code, item.Name, item.Kind, item.CreatedAt,
	)
	return storage.MapError(err)
}

func (s *Postgres) FindByCode(ctx context.Context, code string) (*models.CatalogItem, error) {
	q := tx.QuerierFrom(ctx, s.db)
	// Tenant-owned items shadow shared ones with the same code.
	row := q.QueryRowContext(ctx, `
		SELECT `+catalogColumns+` FROM catalog_items
		WHERE code = $1
		ORDER BY tenant_id NULLS LAST
		LIMIT 1`, code)
	return scanItem(row)
}

// List returns everything visible in the current scope: the tenant's own
// items plus the shared set.
func (s *Postgres) List(ctx context.Context) ([]*models.CatalogItem, error) {
	q := tx.QuerierFrom(ctx, s.db)
	rows, err := q.QueryContext(ctx,
		`SELECT `+catalogColumns+` FROM catalog_items ORDER BY code, tenant_id NULLS LAST`)
	if err != nil {
		return nil, storage.MapError(err)
	}
	defer rows.Close()

	var items []*models.CatalogItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*models.CatalogItem, error) {
	var (
		item      models.CatalogItem
		rawID     string
		rawTenant sql.NullString
	)
	err := row.Scan(&rawID, &rawTenant, &item.Code, &item.Name, &item.Kind, &item.CreatedAt)
	if err != nil {
		return nil, storage.MapError(err)
	}
	if item.ID, err = id.ParseCatalogItemID(rawID); err != nil {
		return nil, err
	}
	if rawTenant.Valid {
		if item.TenantID, err = id.ParseTenantID(rawTenant.String); err != nil {
			return nil, err
		}
	}
	return &item, nil
}
