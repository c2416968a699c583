// Package ledger owns allocation bookkeeping: it turns a chosen candidate
// into an Active allocation while enforcing per-pair uniqueness and project
// headcount, and cancels allocations.
//
// Every check-then-commit runs under the project's lock, so concurrent
// requests for the same project are serialized while different projects
// proceed in parallel.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/staffing/internal/domain/model"
	"github.com/okian/staffing/pkg/logger"
	"github.com/okian/staffing/pkg/metrics"
)

// EmployeeResolver looks up employees by id.
type EmployeeResolver interface {
	GetEmployee(ctx context.Context, id string) (model.Employee, error)
}

// ProjectResolver looks up projects by id.
type ProjectResolver interface {
	GetProject(ctx context.Context, id string) (model.Project, error)
}

// Publisher receives an event after each committed mutation.
type Publisher interface {
	Publish(ctx context.Context, ev model.AllocationEvent) error
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// WithIDGenerator overrides allocation and event id generation.
func WithIDGenerator(gen func() string) Option {
	return func(l *Ledger) {
		if gen != nil {
			l.newID = gen
		}
	}
}

// WithPublisher sets where audit events go.
func WithPublisher(p Publisher) Option {
	return func(l *Ledger) {
		if p != nil {
			l.publisher = p
		}
	}
}

// WithLogger sets the ledger logger.
func WithLogger(lg logger.Logger) Option {
	return func(l *Ledger) {
		if lg != nil {
			l.logger = lg
		}
	}
}

// Ledger is the allocation service.
type Ledger struct {
	store     Store
	employees EmployeeResolver
	projects  ProjectResolver
	publisher Publisher
	locks     *keyedMutex
	now       func() time.Time
	newID     func() string
	logger    logger.Logger
}

// New creates a ledger over the given store and resolvers.
func New(store Store, employees EmployeeResolver, projects ProjectResolver, opts ...Option) *Ledger {
	l := &Ledger{
		store:     store,
		employees: employees,
		projects:  projects,
		locks:     newKeyedMutex(),
		now:       time.Now,
		newID:     uuid.NewString,
		logger:    logger.Get().Named("ledger"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allocate assigns an employee to a project.
//
// Errors: model.ErrInvalidInput for empty ids, model.ErrNotFound when either
// id does not resolve, model.ErrDuplicateActive when the pair is already
// live and model.ErrHeadcountExceeded when the project is full. On error
// the ledger is unchanged.
func (l *Ledger) Allocate(ctx context.Context, employeeID, projectID string) (model.Allocation, error) {
	a, err := l.allocate(ctx, strings.TrimSpace(employeeID), strings.TrimSpace(projectID))
	metrics.RecordAllocationOp("allocate", outcome(err))
	if err != nil {
		return model.Allocation{}, err
	}
	metrics.AddActiveAllocations(1)
	l.publish(ctx, model.EventAllocated, a, a.AllocatedAt)
	return a, nil
}

func (l *Ledger) allocate(ctx context.Context, employeeID, projectID string) (model.Allocation, error) {
	if employeeID == "" || projectID == "" {
		return model.Allocation{}, fmt.Errorf("%w: employee_id and project_id are required", model.ErrInvalidInput)
	}

	emp, err := l.employees.GetEmployee(ctx, employeeID)
	if err != nil {
		return model.Allocation{}, fmt.Errorf("resolve employee %s: %w", employeeID, err)
	}
	proj, err := l.projects.GetProject(ctx, projectID)
	if err != nil {
		return model.Allocation{}, fmt.Errorf("resolve project %s: %w", projectID, err)
	}

	unlock := l.locks.Lock(projectID)
	defer unlock()

	if _, live, err := l.store.FindActive(ctx, employeeID, projectID); err != nil {
		return model.Allocation{}, fmt.Errorf("find active allocation: %w", err)
	} else if live {
		return model.Allocation{}, fmt.Errorf("%w: employee %s on project %s", model.ErrDuplicateActive, employeeID, projectID)
	}

	if limit, bounded := proj.HeadcountLimit(); bounded {
		n, err := l.store.CountActive(ctx, projectID)
		if err != nil {
			return model.Allocation{}, fmt.Errorf("count active allocations: %w", err)
		}
		if n >= limit {
			return model.Allocation{}, fmt.Errorf("%w: project %s has %d of %d", model.ErrHeadcountExceeded, projectID, n, limit)
		}
	}

	a := model.Allocation{
		ID:           l.newID(),
		EmployeeID:   emp.ID,
		EmployeeName: emp.Name,
		ProjectID:    proj.ID,
		ProjectName:  proj.Name,
		AllocatedAt:  l.now().UTC(),
		Status:       model.AllocationActive,
	}
	if err := l.store.Insert(ctx, a); err != nil {
		return model.Allocation{}, fmt.Errorf("insert allocation: %w", err)
	}
	return a, nil
}

// Remove cancels an Active allocation. Unknown or already cancelled ids
// return model.ErrNotFound and leave the ledger unchanged.
func (l *Ledger) Remove(ctx context.Context, allocationID string) (model.Allocation, error) {
	a, err := l.remove(ctx, strings.TrimSpace(allocationID))
	metrics.RecordAllocationOp("remove", outcome(err))
	if err != nil {
		return model.Allocation{}, err
	}
	metrics.AddActiveAllocations(-1)
	l.publish(ctx, model.EventCancelled, a, *a.CancelledAt)
	return a, nil
}

func (l *Ledger) remove(ctx context.Context, id string) (model.Allocation, error) {
	if id == "" {
		return model.Allocation{}, fmt.Errorf("%w: allocation id is required", model.ErrInvalidInput)
	}

	a, err := l.store.Get(ctx, id)
	if err != nil {
		return model.Allocation{}, err
	}
	if !a.IsActive() {
		return model.Allocation{}, fmt.Errorf("%w: allocation %s is %s", model.ErrNotFound, id, a.Status)
	}

	unlock := l.locks.Lock(a.ProjectID)
	defer unlock()

	cancelled, err := l.store.Cancel(ctx, id, l.now().UTC())
	if err != nil {
		return model.Allocation{}, fmt.Errorf("cancel allocation: %w", err)
	}
	return cancelled, nil
}

// Get returns one allocation by id.
func (l *Ledger) Get(ctx context.Context, id string) (model.Allocation, error) {
	return l.store.Get(ctx, strings.TrimSpace(id))
}

// List returns allocations matching f, newest first.
func (l *Ledger) List(ctx context.Context, f Filter) ([]model.Allocation, error) {
	out, err := l.store.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list allocations: %w", err)
	}
	return out, nil
}

func (l *Ledger) publish(ctx context.Context, typ model.EventType, a model.Allocation, at time.Time) {
	if l.publisher == nil {
		return
	}
	ev := model.AllocationEvent{
		ID:           l.newID(),
		Type:         typ,
		AllocationID: a.ID,
		EmployeeID:   a.EmployeeID,
		ProjectID:    a.ProjectID,
		At:           at,
	}
	if err := l.publisher.Publish(ctx, ev); err != nil {
		l.logger.Warn(ctx, "audit event dropped",
			logger.String("allocation_id", a.ID),
			logger.String("type", string(typ)),
			logger.Error(err),
		)
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, model.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, model.ErrNotFound):
		return "not_found"
	case errors.Is(err, model.ErrDuplicateActive):
		return "duplicate_active"
	case errors.Is(err, model.ErrHeadcountExceeded):
		return "headcount_exceeded"
	default:
		return "error"
	}
}
