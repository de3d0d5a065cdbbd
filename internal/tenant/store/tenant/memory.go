package tenant

import (
	"context"
	"sort"
	"sync"

	"clinica/internal/scope"
	"clinica/internal/tenant/models"
	id "clinica/pkg/domain"
	"clinica/pkg/platform/sentinel"
)

// Memory mirrors the Postgres store for unit tests. Visibility follows the
// scope in the context the way row security would: a tenant scope sees its
// own row, the bypass scope sees everything, no scope sees nothing.
type Memory struct {
	mu      sync.RWMutex
	tenants map[id.TenantID]*models.Tenant
	byName  map[string]id.TenantID
}

func NewMemory() *Memory {
	return &Memory{
		tenants: make(map[id.TenantID]*models.Tenant),
		byName:  make(map[string]id.TenantID),
	}
}

// Create accepts any context: the bootstrap insert runs before a scope
// exists, exactly as the real insert policy allows.
func (s *Memory) Create(_ context.Context, t *models.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tenants[t.ID]; exists {
		return sentinel.ErrConflict
	}
	if _, exists := s.byName[t.Name]; exists {
		return sentinel.ErrConflict
	}
	cp := *t
	s.tenants[t.ID] = &cp
	s.byName[t.Name] = t.ID
	return nil
}

func (s *Memory) FindSelf(ctx context.Context) (*models.Tenant, error) {
	sc, ok := scope.FromContext(ctx)
	if !ok || sc.IsAllTenants() {
		return nil, sentinel.ErrNotFound
	}
	return s.findByID(sc.TenantID())
}

func (s *Memory) LockSelf(ctx context.Context) (*models.Tenant, error) {
	return s.FindSelf(ctx)
}

func (s *Memory) FindByID(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error) {
	sc, ok := scope.FromContext(ctx)
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if !sc.IsAllTenants() && sc.TenantID() != tenantID {
		return nil, sentinel.ErrNotFound
	}
	return s.findByID(tenantID)
}

func (s *Memory) findByID(tenantID id.TenantID) (*models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tenants[tenantID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *Memory) Update(ctx context.Context, t *models.Tenant) error {
	sc, ok := scope.FromContext(ctx)
	if !ok {
		return sentinel.ErrScopeRejected
	}
	if !sc.IsAllTenants() && sc.TenantID() != t.ID {
		return sentinel.ErrNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	current, exists := s.tenants[t.ID]
	if !exists {
		return sentinel.ErrNotFound
	}
	delete(s.byName, current.Name)
	cp := *t
	s.tenants[t.ID] = &cp
	s.byName[t.Name] = t.ID
	return nil
}

func (s *Memory) List(ctx context.Context) ([]*models.Tenant, error) {
	sc, ok := scope.FromContext(ctx)
	if !ok {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Tenant
	for _, t := range s.tenants {
		if !sc.IsAllTenants() && sc.TenantID() != t.ID {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
