// Package sqlite persists the employee directory, project catalog,
// allocation ledger and audit log in SQLite.
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// timeLayout is how timestamps are stored. Fixed width keeps text order
// equal to time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// DB wraps a SQLite database connection
type DB struct {
	*sql.DB
}

// New creates a new SQLite database connection
func New(dataSourceName string) (*DB, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: ":memory:" databases are per connection and SQLite
	// allows a single writer anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &DB{db}, nil
}

// RunMigrations creates the schema if it does not exist.
func (db *DB) RunMigrations() error {
	migration := `
CREATE TABLE IF NOT EXISTS employees (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    role TEXT NOT NULL DEFAULT '',
    skills TEXT NOT NULL DEFAULT '[]',
    availability_dates TEXT NOT NULL DEFAULT '[]',
    availability TEXT NOT NULL DEFAULT '',
    portfolio_url TEXT NOT NULL DEFAULT '',
    cv_file_id TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_employees_name ON employees(name);

CREATE TABLE IF NOT EXISTS projects (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    required_skills TEXT NOT NULL DEFAULT '[]',
    description TEXT NOT NULL DEFAULT '',
    priority TEXT NOT NULL CHECK(priority IN ('Low', 'Medium', 'High')),
    status TEXT NOT NULL CHECK(status IN ('Open', 'Closed')),
    start_date TEXT,
    end_date TEXT,
    duration TEXT NOT NULL DEFAULT '',
    headcount INTEGER CHECK(headcount IS NULL OR headcount >= 0),
    created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS allocations (
    id TEXT PRIMARY KEY,
    employee_id TEXT NOT NULL,
    employee_name TEXT NOT NULL,
    project_id TEXT NOT NULL,
    project_name TEXT NOT NULL,
    allocated_at TEXT NOT NULL,
    status TEXT NOT NULL CHECK(status IN ('Active', 'Cancelled')),
    cancelled_at TEXT
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_allocations_active_pair
    ON allocations(employee_id, project_id) WHERE status = 'Active';
CREATE INDEX IF NOT EXISTS idx_allocations_project ON allocations(project_id, status);
CREATE INDEX IF NOT EXISTS idx_allocations_employee ON allocations(employee_id);
CREATE INDEX IF NOT EXISTS idx_allocations_allocated_at ON allocations(allocated_at);

CREATE TABLE IF NOT EXISTS allocation_events (
    id TEXT PRIMARY KEY,
    type TEXT NOT NULL CHECK(type IN ('allocated', 'cancelled')),
    allocation_id TEXT NOT NULL,
    employee_id TEXT NOT NULL,
    project_id TEXT NOT NULL,
    at TEXT NOT NULL,
    FOREIGN KEY (allocation_id) REFERENCES allocations(id)
);
CREATE INDEX IF NOT EXISTS idx_allocation_events_allocation ON allocation_events(allocation_id);
`

	if _, err := db.Exec(migration); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored time %q: %w", s, err)
	}
	return t, nil
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}
