// Package seed loads employees and projects from a YAML file so the service
// can run without an external directory.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/okian/staffing/internal/domain/model"
)

// ErrInvalidSeed is returned for unreadable or inconsistent seed files.
var ErrInvalidSeed = errors.New("invalid seed file")

// List is a string list written either as a YAML sequence or as one
// comma separated scalar.
type List []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *List) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		*l = model.SplitCSV(n.Value)
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := n.Decode(&items); err != nil {
			return err
		}
		*l = items
		return nil
	}
	return fmt.Errorf("line %d: expected a list or a comma separated string", n.Line)
}

// Employee is the seed form of a directory record.
type Employee struct {
	ID                string `yaml:"id"`
	Name              string `yaml:"name"`
	Role              string `yaml:"role"`
	Skills            List   `yaml:"skills"`
	AvailabilityDates List   `yaml:"availability_dates"`
	Availability      string `yaml:"availability"`
	PortfolioURL      string `yaml:"portfolio_url"`
	ResumeRef         string `yaml:"cv_file_id"`
}

// Project is the seed form of a catalog record.
type Project struct {
	ID             string    `yaml:"id"`
	Name           string    `yaml:"project_name"`
	RequiredSkills List      `yaml:"required_skills"`
	Description    string    `yaml:"description"`
	Priority       string    `yaml:"priority"`
	Status         string    `yaml:"status"`
	StartDate      string    `yaml:"start_date"`
	EndDate        string    `yaml:"end_date"`
	Duration       string    `yaml:"duration"`
	Headcount      *int      `yaml:"headcount"`
	CreatedAt      time.Time `yaml:"created_at"`
}

// File is a parsed seed file.
type File struct {
	Employees []Employee `yaml:"employees"`
	Projects  []Project  `yaml:"projects"`
}

// EmployeeWriter stores employees.
type EmployeeWriter interface {
	Upsert(ctx context.Context, e model.Employee) error
}

// ProjectWriter stores projects.
type ProjectWriter interface {
	Upsert(ctx context.Context, p model.Project) error
}

// Load reads and parses a seed file.
func Load(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes a seed document. Unknown keys are rejected.
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSeed, err)
	}
	return &f, nil
}

// ToEmployee converts a seed record into a normalized employee. A missing
// id is generated.
func (e Employee) ToEmployee() (model.Employee, error) {
	dates, err := model.ParseDates(e.AvailabilityDates)
	if err != nil {
		return model.Employee{}, err
	}
	out := model.Employee{
		ID:                e.ID,
		Name:              e.Name,
		Role:              e.Role,
		Skills:            e.Skills,
		AvailabilityDates: dates,
		Availability:      e.Availability,
		PortfolioURL:      e.PortfolioURL,
		ResumeRef:         e.ResumeRef,
	}
	if strings.TrimSpace(out.ID) == "" {
		out.ID = uuid.NewString()
	}
	out.Normalize()
	return out, out.Validate()
}

// ToProject converts a seed record into a normalized project.
func (p Project) ToProject() (model.Project, error) {
	priority, err := model.ParsePriority(p.Priority)
	if err != nil {
		return model.Project{}, err
	}
	status, err := model.ParseProjectStatus(p.Status)
	if err != nil {
		return model.Project{}, err
	}
	out := model.Project{
		ID:             p.ID,
		Name:           p.Name,
		RequiredSkills: p.RequiredSkills,
		Description:    p.Description,
		Priority:       priority,
		Status:         status,
		Duration:       p.Duration,
		Headcount:      p.Headcount,
		CreatedAt:      p.CreatedAt.UTC(),
	}
	if out.StartDate, err = optionalDate(p.StartDate); err != nil {
		return model.Project{}, err
	}
	if out.EndDate, err = optionalDate(p.EndDate); err != nil {
		return model.Project{}, err
	}
	if strings.TrimSpace(out.ID) == "" {
		out.ID = uuid.NewString()
	}
	out.Normalize()
	return out, out.Validate()
}

// Result counts what Apply stored.
type Result struct {
	Employees int
	Projects  int
}

// Apply validates every record first and then writes them. Nothing is
// written when any record is invalid.
func Apply(ctx context.Context, f *File, employees EmployeeWriter, projects ProjectWriter) (Result, error) {
	emps := make([]model.Employee, 0, len(f.Employees))
	seen := make(map[string]struct{}, len(f.Employees))
	for i, e := range f.Employees {
		out, err := e.ToEmployee()
		if err != nil {
			return Result{}, fmt.Errorf("%w: employees[%d]: %w", ErrInvalidSeed, i, err)
		}
		if _, dup := seen[out.ID]; dup {
			return Result{}, fmt.Errorf("%w: employees[%d]: duplicate id %s", ErrInvalidSeed, i, out.ID)
		}
		seen[out.ID] = struct{}{}
		emps = append(emps, out)
	}

	projs := make([]model.Project, 0, len(f.Projects))
	seen = make(map[string]struct{}, len(f.Projects))
	for i, p := range f.Projects {
		out, err := p.ToProject()
		if err != nil {
			return Result{}, fmt.Errorf("%w: projects[%d]: %w", ErrInvalidSeed, i, err)
		}
		if _, dup := seen[out.ID]; dup {
			return Result{}, fmt.Errorf("%w: projects[%d]: duplicate id %s", ErrInvalidSeed, i, out.ID)
		}
		seen[out.ID] = struct{}{}
		projs = append(projs, out)
	}

	var res Result
	for _, e := range emps {
		if err := employees.Upsert(ctx, e); err != nil {
			return res, fmt.Errorf("store employee %s: %w", e.ID, err)
		}
		res.Employees++
	}
	for _, p := range projs {
		if err := projects.Upsert(ctx, p); err != nil {
			return res, fmt.Errorf("store project %s: %w", p.ID, err)
		}
		res.Projects++
	}
	return res, nil
}

func optionalDate(s string) (*model.Date, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	d, err := model.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
