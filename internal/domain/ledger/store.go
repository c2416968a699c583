package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/okian/staffing/internal/domain/model"
)

// Filter selects allocations. Zero fields match anything.
type Filter struct {
	EmployeeID string
	ProjectID  string
	Status     model.AllocationStatus
}

// Match reports whether a satisfies the filter.
func (f Filter) Match(a model.Allocation) bool {
	if f.EmployeeID != "" && a.EmployeeID != f.EmployeeID {
		return false
	}
	if f.ProjectID != "" && a.ProjectID != f.ProjectID {
		return false
	}
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	return true
}

// Store persists allocations. The ledger serializes mutations per project;
// implementations only need to be safe for concurrent use.
type Store interface {
	// Insert adds a new allocation. Returns model.ErrDuplicateActive if an
	// Active allocation for the same pair already exists.
	Insert(ctx context.Context, a model.Allocation) error
	// Get returns model.ErrNotFound for unknown ids.
	Get(ctx context.Context, id string) (model.Allocation, error)
	// FindActive returns the Active allocation for the pair, if any.
	FindActive(ctx context.Context, employeeID, projectID string) (model.Allocation, bool, error)
	// CountActive returns the number of Active allocations of a project.
	CountActive(ctx context.Context, projectID string) (int, error)
	// Cancel moves an Active allocation to Cancelled. Returns
	// model.ErrNotFound when the id is unknown or not Active.
	Cancel(ctx context.Context, id string, at time.Time) (model.Allocation, error)
	// List returns the allocations matching f, newest first.
	List(ctx context.Context, f Filter) ([]model.Allocation, error)
}

// CompareNewestFirst orders allocations by AllocatedAt desc, then id asc.
func CompareNewestFirst(a, b model.Allocation) int {
	if c := b.AllocatedAt.Compare(a.AllocatedAt); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}
