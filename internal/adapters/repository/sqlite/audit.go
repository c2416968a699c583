package sqlite

import (
	"context"
	"fmt"

	"github.com/okian/staffing/internal/domain/model"
)

// AuditRepository stores the allocation event trail.
type AuditRepository struct {
	db *DB
}

// NewAuditRepository creates a new AuditRepository
func NewAuditRepository(db *DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Append stores one event. Re-appending the same event id is a no-op so
// redelivery is harmless.
func (r *AuditRepository) Append(ctx context.Context, ev model.AllocationEvent) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO allocation_events (id, type, allocation_id, employee_id, project_id, at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		ev.ID, string(ev.Type), ev.AllocationID, ev.EmployeeID, ev.ProjectID, formatTime(ev.At),
	)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("%w: allocation %s", model.ErrNotFound, ev.AllocationID)
	}
	if err != nil {
		return fmt.Errorf("failed to append audit event: %w", err)
	}
	return nil
}

// ListByAllocation returns the events of one allocation, oldest first.
func (r *AuditRepository) ListByAllocation(ctx context.Context, allocationID string) ([]model.AllocationEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, type, allocation_id, employee_id, project_id, at
		FROM allocation_events
		WHERE allocation_id = ?
		ORDER BY at ASC, id ASC`, allocationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit events: %w", err)
	}
	defer rows.Close()

	out := []model.AllocationEvent{}
	for rows.Next() {
		var (
			ev      model.AllocationEvent
			typ, at string
		)
		if err := rows.Scan(&ev.ID, &typ, &ev.AllocationID, &ev.EmployeeID, &ev.ProjectID, &at); err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		ev.Type = model.EventType(typ)
		if ev.At, err = parseTime(at); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list audit events: %w", err)
	}
	return out, nil
}
