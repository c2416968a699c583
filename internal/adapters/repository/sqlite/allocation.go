package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/okian/staffing/internal/domain/ledger"
	"github.com/okian/staffing/internal/domain/model"
)

// AllocationRepository implements ledger.Store for SQLite.
type AllocationRepository struct {
	db *DB
}

// NewAllocationRepository creates a new AllocationRepository
func NewAllocationRepository(db *DB) *AllocationRepository {
	return &AllocationRepository{db: db}
}

const allocationColumns = `id, employee_id, employee_name, project_id, project_name,
	allocated_at, status, cancelled_at`

// Insert adds an allocation. The partial unique index on live pairs backs
// the ledger's duplicate check.
func (r *AllocationRepository) Insert(ctx context.Context, a model.Allocation) error {
	query := `INSERT INTO allocations (` + allocationColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.EmployeeID, a.EmployeeName, a.ProjectID, a.ProjectName,
		formatTime(a.AllocatedAt), string(a.Status), nullTime(a.CancelledAt),
	)
	if isUniqueViolation(err) && strings.Contains(err.Error(), "employee_id") {
		return fmt.Errorf("%w: employee %s on project %s", model.ErrDuplicateActive, a.EmployeeID, a.ProjectID)
	}
	if err != nil {
		return fmt.Errorf("failed to insert allocation: %w", err)
	}
	return nil
}

// Get retrieves an allocation by ID
func (r *AllocationRepository) Get(ctx context.Context, id string) (model.Allocation, error) {
	query := `SELECT ` + allocationColumns + ` FROM allocations WHERE id = ?`

	a, err := scanAllocation(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Allocation{}, fmt.Errorf("%w: allocation %s", model.ErrNotFound, id)
	}
	if err != nil {
		return model.Allocation{}, fmt.Errorf("failed to get allocation: %w", err)
	}
	return a, nil
}

// FindActive returns the live allocation of the pair, if any.
func (r *AllocationRepository) FindActive(ctx context.Context, employeeID, projectID string) (model.Allocation, bool, error) {
	query := `SELECT ` + allocationColumns + ` FROM allocations
		WHERE employee_id = ? AND project_id = ? AND status = 'Active'`

	a, err := scanAllocation(r.db.QueryRowContext(ctx, query, employeeID, projectID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Allocation{}, false, nil
	}
	if err != nil {
		return model.Allocation{}, false, fmt.Errorf("failed to find active allocation: %w", err)
	}
	return a, true, nil
}

// CountActive returns the number of live allocations of a project.
func (r *AllocationRepository) CountActive(ctx context.Context, projectID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM allocations WHERE project_id = ? AND status = 'Active'`, projectID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count active allocations: %w", err)
	}
	return n, nil
}

// CountAllActive returns the number of live allocations across projects.
func (r *AllocationRepository) CountAllActive(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM allocations WHERE status = 'Active'`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count active allocations: %w", err)
	}
	return n, nil
}

// Cancel soft-cancels a live allocation.
func (r *AllocationRepository) Cancel(ctx context.Context, id string, at time.Time) (model.Allocation, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE allocations SET status = 'Cancelled', cancelled_at = ? WHERE id = ? AND status = 'Active'`,
		formatTime(at), id,
	)
	if err != nil {
		return model.Allocation{}, fmt.Errorf("failed to cancel allocation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.Allocation{}, fmt.Errorf("failed to cancel allocation: %w", err)
	}
	if n == 0 {
		return model.Allocation{}, fmt.Errorf("%w: active allocation %s", model.ErrNotFound, id)
	}
	return r.Get(ctx, id)
}

// List returns allocations matching f, newest first.
func (r *AllocationRepository) List(ctx context.Context, f ledger.Filter) ([]model.Allocation, error) {
	var (
		where []string
		args  []any
	)
	if f.EmployeeID != "" {
		where = append(where, `employee_id = ?`)
		args = append(args, f.EmployeeID)
	}
	if f.ProjectID != "" {
		where = append(where, `project_id = ?`)
		args = append(args, f.ProjectID)
	}
	if f.Status != "" {
		where = append(where, `status = ?`)
		args = append(args, string(f.Status))
	}

	query := `SELECT ` + allocationColumns + ` FROM allocations`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	query += ` ORDER BY allocated_at DESC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list allocations: %w", err)
	}
	defer rows.Close()

	out := []model.Allocation{}
	for rows.Next() {
		a, err := scanAllocation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan allocation: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list allocations: %w", err)
	}
	return out, nil
}

func scanAllocation(s scanner) (model.Allocation, error) {
	var (
		a         model.Allocation
		allocated string
		status    string
		cancelled sql.NullString
	)
	if err := s.Scan(&a.ID, &a.EmployeeID, &a.EmployeeName, &a.ProjectID, &a.ProjectName,
		&allocated, &status, &cancelled); err != nil {
		return model.Allocation{}, err
	}
	a.Status = model.AllocationStatus(status)

	var err error
	if a.AllocatedAt, err = parseTime(allocated); err != nil {
		return model.Allocation{}, err
	}
	if cancelled.Valid {
		t, err := parseTime(cancelled.String)
		if err != nil {
			return model.Allocation{}, err
		}
		a.CancelledAt = &t
	}
	return a, nil
}

var _ ledger.Store = (*AllocationRepository)(nil)
