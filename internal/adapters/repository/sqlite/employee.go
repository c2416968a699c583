package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/okian/staffing/internal/domain/model"
)

// EmployeeRepository is the employee directory.
type EmployeeRepository struct {
	db *DB
}

// NewEmployeeRepository creates a new EmployeeRepository
func NewEmployeeRepository(db *DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

const employeeColumns = `id, name, role, skills, availability_dates, availability, portfolio_url, cv_file_id`

// Upsert normalizes and stores an employee, replacing any existing record.
func (r *EmployeeRepository) Upsert(ctx context.Context, e model.Employee) error {
	e.Normalize()
	if err := e.Validate(); err != nil {
		return err
	}

	skills, err := json.Marshal(e.Skills)
	if err != nil {
		return fmt.Errorf("encode skills: %w", err)
	}
	dates, err := json.Marshal(e.AvailabilityDates)
	if err != nil {
		return fmt.Errorf("encode availability dates: %w", err)
	}

	query := `
		INSERT INTO employees (` + employeeColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			role = excluded.role,
			skills = excluded.skills,
			availability_dates = excluded.availability_dates,
			availability = excluded.availability,
			portfolio_url = excluded.portfolio_url,
			cv_file_id = excluded.cv_file_id
	`
	_, err = r.db.ExecContext(ctx, query,
		e.ID, e.Name, e.Role, string(skills), string(dates),
		e.Availability, e.PortfolioURL, e.ResumeRef,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert employee: %w", err)
	}
	return nil
}

// GetEmployee retrieves an employee by ID
func (r *EmployeeRepository) GetEmployee(ctx context.Context, id string) (model.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = ?`

	e, err := scanEmployee(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Employee{}, fmt.Errorf("%w: employee %s", model.ErrNotFound, id)
	}
	if err != nil {
		return model.Employee{}, fmt.Errorf("failed to get employee: %w", err)
	}
	return e, nil
}

// ListEmployees returns employees matching q ordered by name. The filter
// runs in Go through model.EmployeeQuery.Match: SQLite's lower() only folds
// ASCII.
func (r *EmployeeRepository) ListEmployees(ctx context.Context, q model.EmployeeQuery) ([]model.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees ORDER BY name ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	out := []model.Employee{}
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		if q.Match(e) {
			out = append(out, e)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	return out, nil
}

// Count returns the number of employees.
func (r *EmployeeRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM employees`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count employees: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEmployee(s scanner) (model.Employee, error) {
	var (
		e             model.Employee
		skills, dates string
	)
	if err := s.Scan(&e.ID, &e.Name, &e.Role, &skills, &dates,
		&e.Availability, &e.PortfolioURL, &e.ResumeRef); err != nil {
		return model.Employee{}, err
	}
	if err := json.Unmarshal([]byte(skills), &e.Skills); err != nil {
		return model.Employee{}, fmt.Errorf("decode skills of %s: %w", e.ID, err)
	}
	if err := json.Unmarshal([]byte(dates), &e.AvailabilityDates); err != nil {
		return model.Employee{}, fmt.Errorf("decode availability dates of %s: %w", e.ID, err)
	}
	return e, nil
}
