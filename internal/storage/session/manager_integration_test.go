//go:build integration

package session_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"clinica/internal/scope"
	"clinica/internal/storage/session"
	id "clinica/pkg/domain"
	"clinica/pkg/platform/tx"
	"clinica/pkg/testutil/containers"
)

// ManagerSuite exercises scope binding against real row security policies.
// The pool is pinned to a single connection so consecutive transactions are
// guaranteed to reuse the same physical connection: any directive that
// survived a transaction boundary would show up as cross-tenant leakage here.
type ManagerSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	db       *sql.DB
	mgr      *session.Manager
}

func TestManagerSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(ManagerSuite))
}

func (s *ManagerSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())

	db, err := sql.Open("postgres", s.postgres.DSN)
	s.Require().NoError(err)
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	s.db = db
	s.mgr = session.New(db)
}

func (s *ManagerSuite) TearDownSuite() {
	if s.db != nil {
		_ = s.db.Close()
	}
}

func (s *ManagerSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "tenants"))
}

// newTenant bootstraps a tenant row and returns its scope.
func (s *ManagerSuite) newTenant(name string) (id.TenantID, scope.Scope) {
	ctx := context.Background()
	tenantID := id.TenantID(uuid.New())

	err := s.mgr.Bootstrap(ctx, func(txCtx context.Context, adopt func(id.TenantID) error) error {
		t, ok := tx.From(txCtx)
		s.Require().True(ok)
		now := time.Now()
		if _, err := t.ExecContext(txCtx,
			`INSERT INTO tenants (id, name, created_at, updated_at) VALUES ($1, $2, $3, $3)`,
			uuid.UUID(tenantID), name, now); err != nil {
			return err
		}
		return adopt(tenantID)
	})
	s.Require().NoError(err)

	sc, err := scope.ForTenant(tenantID)
	s.Require().NoError(err)
	return tenantID, sc
}

func (s *ManagerSuite) insertDoctor(sc scope.Scope, tenantID id.TenantID, license string) uuid.UUID {
	ctx := context.Background()
	doctorID := uuid.New()
	err := s.mgr.WithTenantScope(ctx, sc, func(txCtx context.Context) error {
		t, _ := tx.From(txCtx)
		now := time.Now()
		_, err := t.ExecContext(txCtx,
			`INSERT INTO doctors (id, tenant_id, full_name, license_number, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $5)`,
			doctorID, uuid.UUID(tenantID), "Dr. Test", license, now)
		return err
	})
	s.Require().NoError(err)
	return doctorID
}

func (s *ManagerSuite) countDoctors(sc scope.Scope) int {
	var count int
	err := s.mgr.WithTenantScope(context.Background(), sc, func(txCtx context.Context) error {
		t, _ := tx.From(txCtx)
		return t.QueryRowContext(txCtx, `SELECT count(*) FROM doctors`).Scan(&count)
	})
	s.Require().NoError(err)
	return count
}

// TestNoLeakageAcrossPooledConnection is the connection-reuse property:
// tenant A's transaction completes, the single pooled connection serves
// tenant B immediately after, and neither direction sees the other's rows.
func (s *ManagerSuite) TestNoLeakageAcrossPooledConnection() {
	tenantA, scopeA := s.newTenant("Clinic A")
	tenantB, scopeB := s.newTenant("Clinic B")

	doctorA := s.insertDoctor(scopeA, tenantA, "MED123")

	// Same physical connection, now bound to B: A's doctor must be invisible,
	// and looking it up by primary key reads as "does not exist".
	err := s.mgr.WithTenantScope(context.Background(), scopeB, func(txCtx context.Context) error {
		t, _ := tx.From(txCtx)
		var n int
		if err := t.QueryRowContext(txCtx, `SELECT count(*) FROM doctors`).Scan(&n); err != nil {
			return err
		}
		s.Equal(0, n, "tenant B must not see tenant A's doctors")

		var name string
		scanErr := t.QueryRowContext(txCtx,
			`SELECT full_name FROM doctors WHERE id = $1`, doctorA).Scan(&name)
		s.ErrorIs(scanErr, sql.ErrNoRows, "a foreign row must read as not-found, not as an error revealing existence")
		return nil
	})
	s.Require().NoError(err)

	s.insertDoctor(scopeB, tenantB, "MED456")

	// And back the other way on the same connection.
	s.Equal(1, s.countDoctors(scopeA))
	s.Equal(1, s.countDoctors(scopeB))
}

// TestUnscopedTransactionSeesNothing verifies fail-closed behavior: a
// transaction that never bound a scope reads zero tenant-scoped rows even
// though they exist.
func (s *ManagerSuite) TestUnscopedTransactionSeesNothing() {
	tenantA, scopeA := s.newTenant("Clinic A")
	s.insertDoctor(scopeA, tenantA, "MED123")

	err := s.mgr.Bootstrap(context.Background(), func(txCtx context.Context, adopt func(id.TenantID) error) error {
		t, _ := tx.From(txCtx)
		var n int
		if err := t.QueryRowContext(txCtx, `SELECT count(*) FROM doctors`).Scan(&n); err != nil {
			return err
		}
		s.Equal(0, n, "no scope bound means no rows visible")
		return nil
	})
	s.Require().NoError(err)
}

// TestCrossTenantWriteRejected verifies the policies reject writes whose
// tenant attribute does not match the bound scope.
func (s *ManagerSuite) TestCrossTenantWriteRejected() {
	_, scopeA := s.newTenant("Clinic A")
	tenantB, _ := s.newTenant("Clinic B")

	err := s.mgr.WithTenantScope(context.Background(), scopeA, func(txCtx context.Context) error {
		t, _ := tx.From(txCtx)
		now := time.Now()
		_, err := t.ExecContext(txCtx,
			`INSERT INTO doctors (id, tenant_id, full_name, license_number, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $5)`,
			uuid.New(), uuid.UUID(tenantB), "Dr. Sneaky", "MED999", now)
		return err
	})
	s.Require().Error(err, "writing a row for another tenant must be rejected by the policy")

	// Nothing persisted under either scope.
	scB, err := scope.ForTenant(tenantB)
	s.Require().NoError(err)
	s.Equal(0, s.countDoctors(scopeA))
	s.Equal(0, s.countDoctors(scB))
}

// TestErrorRollsBackScopedWrites verifies the guaranteed-release contract:
// any error out of the unit of work leaves no partial writes behind.
func (s *ManagerSuite) TestErrorRollsBackScopedWrites() {
	tenantA, scopeA := s.newTenant("Clinic A")

	boom := context.DeadlineExceeded
	err := s.mgr.WithTenantScope(context.Background(), scopeA, func(txCtx context.Context) error {
		t, _ := tx.From(txCtx)
		now := time.Now()
		if _, err := t.ExecContext(txCtx,
			`INSERT INTO doctors (id, tenant_id, full_name, license_number, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $5)`,
			uuid.New(), uuid.UUID(tenantA), "Dr. Partial", "MED777", now); err != nil {
			return err
		}
		return boom
	})
	s.Require().ErrorIs(err, boom)
	s.Equal(0, s.countDoctors(scopeA))
}

// TestBypassSeesAllTenants verifies the audited operator path.
func (s *ManagerSuite) TestBypassSeesAllTenants() {
	tenantA, scopeA := s.newTenant("Clinic A")
	tenantB, scopeB := s.newTenant("Clinic B")
	s.insertDoctor(scopeA, tenantA, "MED123")
	s.insertDoctor(scopeB, tenantB, "MED123")

	var n int
	err := s.mgr.WithBypass(context.Background(), scope.AllTenants("integration test sweep"), func(txCtx context.Context) error {
		t, _ := tx.From(txCtx)
		return t.QueryRowContext(txCtx, `SELECT count(*) FROM doctors`).Scan(&n)
	})
	s.Require().NoError(err)
	s.Equal(2, n)
}
