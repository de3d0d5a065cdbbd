package appointment

import (
	"context"
	"sort"
	"sync"
	"time"

	"clinica/internal/scope"
	"clinica/internal/tenant/models"
	id "clinica/pkg/domain"
	"clinica/pkg/platform/sentinel"
)

// participantCheck reports whether a referenced doctor or patient exists
// inside the caller's scope. The memory store uses it to emulate the
// tenant-composite references the real table enforces.
type participantCheck interface {
	DoctorExists(ctx context.Context, doctorID id.DoctorID) bool
	PatientExists(ctx context.Context, patientID id.PatientID) bool
}

// Memory mirrors the Postgres store for unit tests.
type Memory struct {
	mu           sync.RWMutex
	appointments map[id.AppointmentID]*models.Appointment
	participants participantCheck
}

func NewMemory(participants participantCheck) *Memory {
	return &Memory{
		appointments: make(map[id.AppointmentID]*models.Appointment),
		participants: participants,
	}
}

func (s *Memory) Create(ctx context.Context, a *models.Appointment) error {
	sc, ok := scope.FromContext(ctx)
	if !ok {
		return sentinel.ErrScopeRejected
	}
	if !sc.IsAllTenants() && sc.TenantID() != a.TenantID {
		return sentinel.ErrScopeRejected
	}
	if s.participants != nil {
		if !s.participants.DoctorExists(ctx, a.DoctorID) || !s.participants.PatientExists(ctx, a.PatientID) {
			return sentinel.ErrForeignTenant
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.appointments[a.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *a
	s.appointments[a.ID] = &cp
	return nil
}

func (s *Memory) FindByID(ctx context.Context, appointmentID id.AppointmentID) (*models.Appointment, error) {
	sc, ok := scope.FromContext(ctx)
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.appointments[appointmentID]
	if !ok || (!sc.IsAllTenants() && sc.TenantID() != a.TenantID) {
		return nil, sentinel.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *Memory) ListByDoctor(ctx context.Context, doctorID id.DoctorID, from, to time.Time) ([]*models.Appointment, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []*models.Appointment
	for _, a := range all {
		if a.DoctorID == doctorID && !a.StartsAt.Before(from) && a.StartsAt.Before(to) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *Memory) List(ctx context.Context) ([]*models.Appointment, error) {
	sc, ok := scope.FromContext(ctx)
	if !ok {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Appointment
	for _, a := range s.appointments {
		if sc.IsAllTenants() || sc.TenantID() == a.TenantID {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, nil
}
