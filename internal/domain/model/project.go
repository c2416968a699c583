package model

import (
	"fmt"
	"strings"
	"time"
)

// Priority ranks projects for display.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// ParsePriority accepts any casing; empty means Medium.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return PriorityLow, nil
	case "", "medium":
		return PriorityMedium, nil
	case "high":
		return PriorityHigh, nil
	}
	return "", fmt.Errorf("%w: unknown priority %q", ErrInvalidInput, s)
}

// ProjectStatus is Open or Closed.
type ProjectStatus string

const (
	ProjectOpen   ProjectStatus = "Open"
	ProjectClosed ProjectStatus = "Closed"
)

// ParseProjectStatus accepts any casing; empty means Open.
func ParseProjectStatus(s string) (ProjectStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "open":
		return ProjectOpen, nil
	case "closed":
		return ProjectClosed, nil
	}
	return "", fmt.Errorf("%w: unknown project status %q", ErrInvalidInput, s)
}

// Project is a catalog record with its staffing requirements.
type Project struct {
	ID             string        `json:"id"`
	Name           string        `json:"project_name"`
	RequiredSkills []string      `json:"required_skills"`
	Description    string        `json:"description,omitempty"`
	Priority       Priority      `json:"priority"`
	Status         ProjectStatus `json:"status"`
	StartDate      *Date         `json:"start_date,omitempty"`
	EndDate        *Date         `json:"end_date,omitempty"`
	Duration       string        `json:"duration,omitempty"`
	// Headcount caps simultaneously Active allocations. Nil means unbounded.
	Headcount *int      `json:"headcount,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Normalize trims fields, deduplicates required skills and fills defaults.
func (p *Project) Normalize() {
	p.ID = strings.TrimSpace(p.ID)
	p.Name = strings.TrimSpace(p.Name)
	p.RequiredSkills = NormalizeSkills(p.RequiredSkills)
	if p.Priority == "" {
		p.Priority = PriorityMedium
	}
	if p.Status == "" {
		p.Status = ProjectOpen
	}
}

// Validate enforces the catalog invariants.
func (p Project) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("%w: project id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: project %s: name is required", ErrInvalidInput, p.ID)
	}
	if p.StartDate != nil && p.EndDate != nil && p.EndDate.Before(*p.StartDate) {
		return fmt.Errorf("%w: project %s: start date %s is after end date %s",
			ErrInvalidInput, p.ID, p.StartDate, p.EndDate)
	}
	if p.Headcount != nil && *p.Headcount < 0 {
		return fmt.Errorf("%w: project %s: negative headcount", ErrInvalidInput, p.ID)
	}
	return nil
}

// HeadcountLimit returns the limit and whether one is set.
func (p Project) HeadcountLimit() (int, bool) {
	if p.Headcount == nil {
		return 0, false
	}
	return *p.Headcount, true
}
