// Package session binds tenant scopes to database transactions.
//
// The manager is the only component that checks connections out of the pool.
// Every unit of work runs inside exactly one transaction; the tenant
// directive is issued with set_config(..., is_local := true) so it cannot
// outlive the transaction. That is the whole defense against connection
// reuse: a pooled connection that served tenant A returns to the pool
// tenant-neutral, and tenant B's transaction starts by binding its own
// directive, never by inheriting one.
//
// Values read inside a unit of work are valid until its transaction commits
// and no longer. Callers build response payloads from in-memory values held
// before the commit; re-reading a row after commit means a fresh scoped
// transaction, not a reuse of the old one.
package session

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"clinica/internal/platform/metrics"
	"clinica/internal/scope"
	"clinica/internal/storage"
	id "clinica/pkg/domain"
	dErrors "clinica/pkg/domain-errors"
	"clinica/pkg/platform/tx"
)

// Manager owns transaction lifecycles and scope binding.
type Manager struct {
	db      *sql.DB
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

// Option configures a Manager.
type Option func(*Manager)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

func WithMetrics(mx *metrics.Metrics) Option {
	return func(m *Manager) {
		m.metrics = mx
	}
}

// New constructs a session manager around the shared pool.
func New(db *sql.DB, opts ...Option) *Manager {
	m := &Manager{
		db:     db,
		logger: slog.Default(),
		tracer: otel.Tracer("clinica/internal/storage/session"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// WithTenantScope runs fn inside one transaction restricted to sc's tenant.
// Business logic inside fn issues plain queries; the bound directive plus the
// row security policies keep every statement inside the tenant.
//
// The transaction rolls back on error, panic, and context cancellation alike;
// it commits only when fn returns nil. A failed binding aborts the whole unit
// of work before any business statement runs.
func (m *Manager) WithTenantScope(ctx context.Context, sc scope.Scope, fn func(ctx context.Context) error) error {
	if sc.IsZero() {
		return dErrors.New(dErrors.CodeTenantNotResolved, "unit of work requires a tenant scope")
	}
	if sc.IsAllTenants() {
		return dErrors.New(dErrors.CodeInvariantViolation, "cross-tenant work must go through WithBypass")
	}
	return m.run(ctx, sc.String(), func(runCtx context.Context, t *sql.Tx) error {
		return m.bindTenant(runCtx, t, sc.TenantID())
	}, fn)
}

// WithBypass runs fn with cross-tenant visibility. Only operator tooling and
// shared-catalog seeding reach this; it is never on the normal request path.
// Every invocation is logged and counted, and the scope must carry a reason.
func (m *Manager) WithBypass(ctx context.Context, sc scope.Scope, fn func(ctx context.Context) error) error {
	if !sc.IsAllTenants() {
		return dErrors.New(dErrors.CodeInvariantViolation, "WithBypass requires an all-tenants scope")
	}
	if strings.TrimSpace(sc.Reason()) == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "bypass scope requires a reason")
	}

	if sc.IsSystem() {
		m.logger.InfoContext(ctx, "cross-tenant system scope engaged", "reason", sc.Reason())
		m.metrics.IncrementBypassInvocations("system")
	} else {
		m.logger.WarnContext(ctx, "cross-tenant bypass engaged", "reason", sc.Reason())
		m.metrics.IncrementBypassInvocations("operator")
	}

	return m.run(ctx, sc.String(), func(runCtx context.Context, t *sql.Tx) error {
		if _, err := t.ExecContext(runCtx, `SELECT set_config('app.bypass_scope', 'all', true)`); err != nil {
			m.alarmBindingFailure(runCtx, err)
			return dErrors.Wrap(storage.MapError(err), dErrors.CodeScopeBindingFailed, "bind bypass scope")
		}
		return nil
	}, fn)
}

// Bootstrap runs fn in a transaction that starts with no scope bound. fn
// receives an adopt callback to bind a freshly created tenant's scope
// mid-transaction, immediately after inserting the tenant row. Rows written
// after adoption go through the enforcement layer like any scoped write,
// which doubles as a correctness check on the bootstrap sequence itself.
func (m *Manager) Bootstrap(ctx context.Context, fn func(ctx context.Context, adopt func(id.TenantID) error) error) error {
	return m.run(ctx, "bootstrap", nil, func(txCtx context.Context) error {
		adopt := func(tenantID id.TenantID) error {
			t, ok := tx.From(txCtx)
			if !ok {
				return dErrors.New(dErrors.CodeScopeBindingFailed, "no transaction to adopt scope on")
			}
			return m.bindTenant(txCtx, t, tenantID)
		}
		return fn(txCtx, adopt)
	})
}

func (m *Manager) run(ctx context.Context, label string, bind func(context.Context, *sql.Tx) error, fn func(context.Context) error) (err error) {
	ctx, span := m.tracer.Start(ctx, "scoped_tx",
		trace.WithAttributes(attribute.String("db.tenant_scope", label)))
	start := time.Now()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
		}
		span.End()
		m.metrics.ObserveScopedTxDuration(float64(time.Since(start).Milliseconds()))
	}()

	t, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "begin scoped transaction")
	}

	committed := false
	defer func() {
		// Release runs on every exit path. Rollback after a successful
		// commit is a no-op (sql.ErrTxDone).
		if p := recover(); p != nil {
			_ = t.Rollback()
			panic(p)
		}
		if !committed {
			_ = t.Rollback()
		}
	}()

	if bind != nil {
		if bindErr := bind(ctx, t); bindErr != nil {
			return bindErr
		}
	}

	if runErr := fn(tx.WithTx(ctx, t)); runErr != nil {
		return runErr
	}

	if commitErr := t.Commit(); commitErr != nil {
		return dErrors.Wrap(storage.MapError(commitErr), dErrors.CodeInternal, "commit scoped transaction")
	}
	committed = true
	return nil
}

// bindTenant issues the scoping directive on t. is_local=true scopes the
// setting to the transaction, so neither commit nor rollback can leave it on
// the connection.
func (m *Manager) bindTenant(ctx context.Context, t *sql.Tx, tenantID id.TenantID) error {
	if tenantID.IsZero() {
		return dErrors.New(dErrors.CodeScopeBindingFailed, "refusing to bind a zero tenant id")
	}
	if _, err := t.ExecContext(ctx, `SELECT set_config('app.tenant_id', $1, true)`, tenantID.String()); err != nil {
		m.alarmBindingFailure(ctx, err)
		return dErrors.Wrap(storage.MapError(err), dErrors.CodeScopeBindingFailed, "bind tenant scope")
	}
	m.metrics.IncrementScopeBindings()
	return nil
}

func (m *Manager) alarmBindingFailure(ctx context.Context, err error) {
	// Binding can only fail when the storage layer is misconfigured, so this
	// is paged on, not merely counted.
	m.logger.ErrorContext(ctx, "scope binding failed", "error", err)
	m.metrics.IncrementScopeBindingFailures()
}
