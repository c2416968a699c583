package model

import (
	"fmt"
	"strings"
	"time"
)

// AllocationStatus is the lifecycle state of an allocation.
// Active -> Cancelled is the only transition; Cancelled is terminal.
type AllocationStatus string

const (
	AllocationActive    AllocationStatus = "Active"
	AllocationCancelled AllocationStatus = "Cancelled"
)

// ParseAllocationStatus accepts any casing. Empty input returns "" which
// filters match as "any status".
func ParseAllocationStatus(s string) (AllocationStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case "active":
		return AllocationActive, nil
	case "cancelled", "canceled":
		return AllocationCancelled, nil
	}
	return "", fmt.Errorf("%w: unknown allocation status %q", ErrInvalidInput, s)
}

// Allocation records that an employee is assigned to a project.
// Employee and project names are copied at creation for presentation.
type Allocation struct {
	ID           string           `json:"id"`
	EmployeeID   string           `json:"employee_id"`
	EmployeeName string           `json:"employee_name"`
	ProjectID    string           `json:"project_id"`
	ProjectName  string           `json:"project_name"`
	AllocatedAt  time.Time        `json:"allocated_on"`
	Status       AllocationStatus `json:"status"`
	CancelledAt  *time.Time       `json:"cancelled_on,omitempty"`
}

// IsActive reports whether the allocation is live.
func (a Allocation) IsActive() bool { return a.Status == AllocationActive }

// EventType names an allocation lifecycle transition.
type EventType string

const (
	EventAllocated EventType = "allocated"
	EventCancelled EventType = "cancelled"
)

// AllocationEvent is one entry of the allocation audit trail.
type AllocationEvent struct {
	ID           string    `json:"id"`
	Type         EventType `json:"type"`
	AllocationID string    `json:"allocation_id"`
	EmployeeID   string    `json:"employee_id"`
	ProjectID    string    `json:"project_id"`
	At           time.Time `json:"at"`
}
