// Package cache implements the suspension gate: a small tenant-status cache
// consulted on every authenticated request before any data access. Statuses
// live in Redis with a short TTL so a suspension propagates across instances
// within seconds without a database hit per request.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"clinica/internal/tenant/models"
	id "clinica/pkg/domain"
	dErrors "clinica/pkg/domain-errors"
)

const (
	keyPrefix  = "clinica:tenant:status:"
	defaultTTL = 30 * time.Second
)

// StatusLoader resolves a tenant's current status from the source of truth.
// Called on cache miss; implementations run under the operator bypass since
// no request scope exists at gate time.
type StatusLoader interface {
	LoadStatus(ctx context.Context, tenantID id.TenantID) (models.TenantStatus, error)
}

// Gate caches tenant statuses and refuses traffic for anything not active.
// Lookup failures deny: an unknown status must never admit a request.
type Gate struct {
	redis  *redis.Client
	loader StatusLoader
	ttl    time.Duration
	logger *slog.Logger
}

type Option func(*Gate)

func WithTTL(ttl time.Duration) Option {
	return func(g *Gate) {
		if ttl > 0 {
			g.ttl = ttl
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(g *Gate) {
		g.logger = logger
	}
}

// New constructs a Gate. A nil redis client disables caching; every check
// then falls through to the loader.
func New(client *redis.Client, loader StatusLoader, opts ...Option) *Gate {
	g := &Gate{
		redis:  client,
		loader: loader,
		ttl:    defaultTTL,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Allow admits the request when the tenant is active. Everything else,
// including load failures, denies.
func (g *Gate) Allow(ctx context.Context, tenantID id.TenantID) error {
	status, err := g.status(ctx, tenantID)
	if err != nil {
		return err
	}
	if status != models.TenantStatusActive {
		return dErrors.Newf(dErrors.CodeTenantNotResolved, "tenant is %s", status)
	}
	return nil
}

// Invalidate drops the cached status. Lifecycle writes call this so a
// suspension takes effect immediately on this instance's cache.
func (g *Gate) Invalidate(ctx context.Context, tenantID id.TenantID) {
	if g.redis == nil {
		return
	}
	if err := g.redis.Del(ctx, keyPrefix+tenantID.String()).Err(); err != nil {
		g.logger.WarnContext(ctx, "failed to invalidate tenant status cache",
			"tenant_id", tenantID.String(),
			"error", err,
		)
	}
}

func (g *Gate) status(ctx context.Context, tenantID id.TenantID) (models.TenantStatus, error) {
	key := keyPrefix + tenantID.String()

	if g.redis != nil {
		cached, err := g.redis.Get(ctx, key).Result()
		if err == nil {
			return models.TenantStatus(cached), nil
		}
		if !errors.Is(err, redis.Nil) {
			// Cache trouble is not an excuse to skip the gate; fall through
			// to the loader.
			g.logger.WarnContext(ctx, "tenant status cache read failed", "error", err)
		}
	}

	status, err := g.loader.LoadStatus(ctx, tenantID)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeTenantNotResolved, "tenant status unavailable")
	}

	if g.redis != nil {
		if err := g.redis.Set(ctx, key, string(status), g.ttl).Err(); err != nil {
			g.logger.WarnContext(ctx, "tenant status cache write failed", "error", err)
		}
	}
	return status, nil
}
