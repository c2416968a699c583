// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
)

// Employee is a directory record as read by the matching core.
type Employee struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Role              string   `json:"role,omitempty"`
	Skills            []string `json:"skills"`
	AvailabilityDates []Date   `json:"availability_dates"`
	Availability      string   `json:"availability,omitempty"` // free-text note
	PortfolioURL      string   `json:"portfolio_url,omitempty"`
	ResumeRef         string   `json:"cv_file_id,omitempty"`
}

// Normalize applies the directory invariants in place: trimmed, deduplicated
// skills and ascending, unique availability dates.
func (e *Employee) Normalize() {
	e.ID = strings.TrimSpace(e.ID)
	e.Name = strings.TrimSpace(e.Name)
	e.Role = strings.TrimSpace(e.Role)
	e.Availability = strings.TrimSpace(e.Availability)
	e.Skills = NormalizeSkills(e.Skills)
	e.AvailabilityDates = NormalizeDates(e.AvailabilityDates)
}

// Validate checks the fields the matching core relies on.
func (e Employee) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return fmt.Errorf("%w: employee id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("%w: employee %s: name is required", ErrInvalidInput, e.ID)
	}
	for _, s := range e.Skills {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%w: employee %s: empty skill tag", ErrInvalidInput, e.ID)
		}
	}
	return nil
}

// HasAvailability reports whether at least one availability date is known.
func (e Employee) HasAvailability() bool {
	return len(e.AvailabilityDates) > 0
}

// EmployeeQuery filters a directory listing. Zero fields match anything.
type EmployeeQuery struct {
	Query string // case-insensitive substring of the name
	Role  string // case-insensitive exact role
	Skill string // case-insensitive skill tag
}

// Match reports whether e satisfies q.
func (q EmployeeQuery) Match(e Employee) bool {
	if s := strings.ToLower(strings.TrimSpace(q.Query)); s != "" &&
		!strings.Contains(strings.ToLower(e.Name), s) {
		return false
	}
	if r := strings.TrimSpace(q.Role); r != "" && !strings.EqualFold(strings.TrimSpace(e.Role), r) {
		return false
	}
	if k := SkillKey(q.Skill); k != "" {
		for _, s := range e.Skills {
			if SkillKey(s) == k {
				return true
			}
		}
		return false
	}
	return true
}
