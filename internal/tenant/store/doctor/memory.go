package doctor

import (
	"context"
	"sort"
	"sync"

	"clinica/internal/scope"
	"clinica/internal/tenant/models"
	id "clinica/pkg/domain"
	"clinica/pkg/platform/sentinel"
)

// Memory mirrors the Postgres store for unit tests, applying the same
// tenant visibility the row policies would.
type Memory struct {
	mu      sync.RWMutex
	doctors map[id.DoctorID]*models.Doctor
}

func NewMemory() *Memory {
	return &Memory{doctors: make(map[id.DoctorID]*models.Doctor)}
}

func (s *Memory) Create(ctx context.Context, d *models.Doctor) error {
	sc, ok := scope.FromContext(ctx)
	if !ok {
		return sentinel.ErrScopeRejected
	}
	if !sc.IsAllTenants() && sc.TenantID() != d.TenantID {
		return sentinel.ErrScopeRejected
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.doctors[d.ID]; exists {
		return sentinel.ErrConflict
	}
	for _, existing := range s.doctors {
		if existing.TenantID == d.TenantID && existing.LicenseNumber == d.LicenseNumber {
			return sentinel.ErrConflict
		}
	}
	cp := *d
	s.doctors[d.ID] = &cp
	return nil
}

func (s *Memory) FindByID(ctx context.Context, doctorID id.DoctorID) (*models.Doctor, error) {
	sc, ok := scope.FromContext(ctx)
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, exists := s.doctors[doctorID]
	if !exists || (!sc.IsAllTenants() && sc.TenantID() != d.TenantID) {
		return nil, sentinel.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (s *Memory) List(ctx context.Context) ([]*models.Doctor, error) {
	sc, ok := scope.FromContext(ctx)
	if !ok {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Doctor
	for _, d := range s.doctors {
		if sc.IsAllTenants() || sc.TenantID() == d.TenantID {
			cp := *d
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

func (s *Memory) Count(ctx context.Context) (int, error) {
	list, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	return len(list), nil
}
