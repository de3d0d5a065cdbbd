//go:build integration

package containers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"clinica/internal/storage"
)

const (
	appRole     = "clinica_app"
	appPassword = "clinica"
	dbName      = "clinica"
)

// PostgresContainer wraps a testcontainers Postgres instance.
//
// DB connects as a dedicated non-superuser role that owns the schema. That
// matters: superusers bypass row security entirely, so isolation tests run
// against a role subject to FORCE ROW LEVEL SECURITY, exactly like the
// production runtime role. AdminDB stays superuser for tests that need to
// sabotage the schema (the self-check suite).
type PostgresContainer struct {
	Container testcontainers.Container
	DB        *sql.DB
	AdminDB   *sql.DB
	DSN       string
}

// NewPostgresContainer starts a new Postgres container with the schema applied.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase(dbName),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	adminDSN, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	adminDB, err := sql.Open("postgres", adminDSN)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to open admin connection: %v", err)
	}

	// The application role owns the tables and holds neither SUPERUSER nor
	// BYPASSRLS, so the FORCE policies apply to every statement it runs.
	setup := fmt.Sprintf(
		`CREATE ROLE %s LOGIN PASSWORD '%s' NOSUPERUSER NOBYPASSRLS;
		 GRANT ALL ON SCHEMA public TO %s;`, appRole, appPassword, appRole)
	if _, err := adminDB.ExecContext(ctx, setup); err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to create application role: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to resolve container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to resolve container port: %v", err)
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		appRole, appPassword, host, port.Port(), dbName)
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to open application connection: %v", err)
	}

	if err := storage.ApplySchema(ctx, db); err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to apply schema: %v", err)
	}

	// Note: no t.Cleanup here; the container is shared through the singleton
	// Manager and Ryuk handles teardown.
	return &PostgresContainer{
		Container: container,
		DB:        db,
		AdminDB:   adminDB,
		DSN:       dsn,
	}
}

// TruncateTables clears the given tables between tests. CASCADE keeps the
// call order-insensitive despite the tenant foreign keys.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	if len(tables) == 0 {
		return nil
	}
	stmt := fmt.Sprintf("TRUNCATE TABLE %s CASCADE", strings.Join(tables, ", "))
	_, err := p.DB.ExecContext(ctx, stmt)
	return err
}
