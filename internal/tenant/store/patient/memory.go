package patient

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
	mu       sync.RWMutex
	patients map[id.PatientID]*models.Patient
}

func NewMemory() *Memory {
	return &Memory{patients: make(map[id.PatientID]*models.Patient)}
}

func (s *Memory) Create(ctx context.Context, p *models.Patient) error {
	sc, ok := scope.FromContext(ctx)
	if !ok {
		return sentinel.ErrScopeRejected
	}
	if !sc.IsAllTenants() && sc.TenantID() != p.TenantID {
		return sentinel.ErrScopeRejected
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.patients[p.ID]; exists {
		return sentinel.ErrConflict
	}
	for _, existing := range s.patients {
		if existing.TenantID == p.TenantID && existing.MedicalRecordNumber == p.MedicalRecordNumber {
			return sentinel.ErrConflict
		}
	}
	cp := *p
	s.patients[p.ID] = &cp
	return nil
}

func (s *Memory) FindByID(ctx context.Context, patientID id.PatientID) (*models.Patient, error) {
	sc, ok := scope.FromContext(ctx)
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, exists := s.patients[patientID]
	if !exists || (!sc.IsAllTenants() && sc.TenantID() != p.TenantID) {
		return nil, sentinel.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *Memory) FindByMRN(ctx context.Context, mrn string) (*models.Patient, error) {
	sc, ok := scope.FromContext(ctx)
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.patients {
		if p.MedicalRecordNumber != mrn {
			continue
		}
		if sc.IsAllTenants() || sc.TenantID() == p.TenantID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *Memory) List(ctx context.Context) ([]*models.Patient, error) {
	sc, ok := scope.FromContext(ctx)
	if !ok {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Patient
	for _, p := range s.patients {
		if sc.IsAllTenants() || sc.TenantID() == p.TenantID {
			cp := *p
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
