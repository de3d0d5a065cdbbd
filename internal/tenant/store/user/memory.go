package user

import (
	"context"
	"strings"
	"sync"

	"clinica/internal/scope"
	"clinica/internal/tenant/models"
	id "clinica/pkg/domain"
	"clinica/pkg/platform/sentinel"
)

// Memory mirrors the Postgres store for unit tests, applying the same
// tenant visibility the row policies would.
type Memory struct {
	mu    sync.RWMutex
	users map[id.UserID]*models.User
}

func NewMemory() *Memory {
	return &Memory{users: make(map[id.UserID]*models.User)}
}

// Create rejects foreign-tenant writes. A context without a scope is
// accepted because the bootstrap path adopts its scope at the database
// session, which this double cannot observe.
func (s *Memory) Create(ctx context.Context, u *models.User) error {
	if sc, ok := scope.FromContext(ctx); ok {
		if !sc.IsAllTenants() && sc.TenantID() != u.TenantID {
			return sentinel.ErrScopeRejected
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[u.ID]; exists {
		return sentinel.ErrConflict
	}
	for _, existing := range s.users {
		if existing.TenantID == u.TenantID && existing.Email == u.Email {
			return sentinel.ErrConflict
		}
	}
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *Memory) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	sc, ok := scope.FromContext(ctx)
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	email = strings.ToLower(strings.TrimSpace(email))
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email != email {
			continue
		}
		if sc.IsAllTenants() || sc.TenantID() == u.TenantID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *Memory) FindByID(ctx context.Context, userID id.UserID) (*models.User, error) {
	sc, ok := scope.FromContext(ctx)
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, exists := s.users[userID]
	if !exists || (!sc.IsAllTenants() && sc.TenantID() != u.TenantID) {
		return nil, sentinel.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Memory) Count(ctx context.Context) (int, error) {
	sc, ok := scope.FromContext(ctx)
	if !ok {
		return 0, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, u := range s.users {
		if sc.IsAllTenants() || sc.TenantID() == u.TenantID {
			n++
		}
	}
	return n, nil
}
