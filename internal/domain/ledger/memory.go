package ledger

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/okian/staffing/internal/domain/model"
)

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu     sync.RWMutex
	byID   map[string]model.Allocation
	active map[pairKey]string // live pair -> allocation id
}

type pairKey struct {
	employeeID string
	projectID  string
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:   make(map[string]model.Allocation),
		active: make(map[pairKey]string),
	}
}

func (s *MemoryStore) Insert(_ context.Context, a model.Allocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[a.ID]; ok {
		return fmt.Errorf("allocation id %s already exists", a.ID)
	}
	k := pairKey{a.EmployeeID, a.ProjectID}
	if a.IsActive() {
		if _, ok := s.active[k]; ok {
			return fmt.Errorf("%w: employee %s on project %s", model.ErrDuplicateActive, a.EmployeeID, a.ProjectID)
		}
		s.active[k] = a.ID
	}
	s.byID[a.ID] = a
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (model.Allocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.byID[id]
	if !ok {
		return model.Allocation{}, fmt.Errorf("%w: allocation %s", model.ErrNotFound, id)
	}
	return a, nil
}

func (s *MemoryStore) FindActive(_ context.Context, employeeID, projectID string) (model.Allocation, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.active[pairKey{employeeID, projectID}]
	if !ok {
		return model.Allocation{}, false, nil
	}
	return s.byID[id], true, nil
}

func (s *MemoryStore) CountActive(_ context.Context, projectID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for k := range s.active {
		if k.projectID == projectID {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) Cancel(_ context.Context, id string, at time.Time) (model.Allocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.byID[id]
	if !ok || !a.IsActive() {
		return model.Allocation{}, fmt.Errorf("%w: active allocation %s", model.ErrNotFound, id)
	}
	a.Status = model.AllocationCancelled
	a.CancelledAt = &at
	s.byID[id] = a
	delete(s.active, pairKey{a.EmployeeID, a.ProjectID})
	return a, nil
}

func (s *MemoryStore) List(_ context.Context, f Filter) ([]model.Allocation, error) {
	s.mu.RLock()
	out := make([]model.Allocation, 0, len(s.byID))
	for _, a := range s.byID {
		if f.Match(a) {
			out = append(out, a)
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(out, CompareNewestFirst)
	return out, nil
}

var _ Store = (*MemoryStore)(nil)
