package catalog

import (
	"context"
	"sort"
	"sync"

	"clinica/internal/scope"
	"clinica/internal/tenant/models"
	id "clinica/pkg/domain"
	"clinica/pkg/platform/sentinel"
)

// Memory mirrors the Postgres store for unit tests. Shared items are visible
// in every scope; writing one requires the all-tenants scope.
type Memory struct {
	mu    sync.RWMutex
	items map[id.CatalogItemID]*models.CatalogItem
}

func NewMemory() *Memory {
	return &Memory{items: make(map[id.CatalogItemID]*models.CatalogItem)}
}

func (s *Memory) Create(ctx context.Context, item *models.CatalogItem) error {
	sc, ok := scope.FromContext(ctx)
	if !ok {
		return sentinel.ErrScopeRejected
	}
	if item.IsShared() {
		if !sc.IsAllTenants() {
			return sentinel.ErrScopeRejected
		}
	} else if !sc.IsAllTenants() && sc.TenantID() != item.TenantID {
		return sentinel.ErrScopeRejected
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[item.ID]; exists {
		return sentinel.ErrConflict
	}
	for _, existing := range s.items {
		if existing.Code == item.Code && existing.TenantID == item.TenantID {
			return sentinel.ErrConflict
		}
	}
	cp := *item
	s.items[item.ID] = &cp
	return nil
}

func (s *Memory) FindByCode(ctx context.Context, code string) (*models.CatalogItem, error) {
	items, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if item.Code == code {
			return item, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *Memory) List(ctx context.Context) ([]*models.CatalogItem, error) {
	sc, ok := scope.FromContext(ctx)
	if !ok {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.CatalogItem
	for _, item := range s.items {
		if item.IsShared() || sc.IsAllTenants() || sc.TenantID() == item.TenantID {
			cp := *item
			out = append(out, &cp)
		}
	}
	// Tenant-owned items sort ahead of shared ones with the same code.
	sort.Slice(out, func(i, j int) bool {
		if out[i].Code != out[j].Code {
			return out[i].Code < out[j].Code
		}
		return !out[i].IsShared() && out[j].IsShared()
	})
	return out, nil
}
