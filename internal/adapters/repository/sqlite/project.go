package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/okian/staffing/internal/domain/model"
)

// ProjectRepository is the project catalog.
type ProjectRepository struct {
	db *DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

const projectColumns = `id, name, required_skills, description, priority, status,
	start_date, end_date, duration, headcount, created_at`

// Upsert normalizes, validates and stores a project.
func (r *ProjectRepository) Upsert(ctx context.Context, p model.Project) error {
	p.Normalize()
	if err := p.Validate(); err != nil {
		return err
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	skills, err := json.Marshal(p.RequiredSkills)
	if err != nil {
		return fmt.Errorf("encode required skills: %w", err)
	}

	var headcount sql.NullInt64
	if limit, ok := p.HeadcountLimit(); ok {
		headcount = sql.NullInt64{Int64: int64(limit), Valid: true}
	}

	query := `
		INSERT INTO projects (` + projectColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			required_skills = excluded.required_skills,
			description = excluded.description,
			priority = excluded.priority,
			status = excluded.status,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			duration = excluded.duration,
			headcount = excluded.headcount
	`
	_, err = r.db.ExecContext(ctx, query,
		p.ID, p.Name, string(skills), p.Description, string(p.Priority), string(p.Status),
		nullDate(p.StartDate), nullDate(p.EndDate), p.Duration, headcount, formatTime(p.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert project: %w", err)
	}
	return nil
}

// GetProject retrieves a project by ID
func (r *ProjectRepository) GetProject(ctx context.Context, id string) (model.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = ?`

	p, err := scanProject(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Project{}, fmt.Errorf("%w: project %s", model.ErrNotFound, id)
	}
	if err != nil {
		return model.Project{}, fmt.Errorf("failed to get project: %w", err)
	}
	return p, nil
}

// ListProjects returns all projects, newest first.
func (r *ProjectRepository) ListProjects(ctx context.Context) ([]model.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects ORDER BY created_at DESC, id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	out := []model.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return out, nil
}

func scanProject(s scanner) (model.Project, error) {
	var (
		p                model.Project
		skills, created  string
		priority, status string
		start, end       sql.NullString
		headcount        sql.NullInt64
	)
	if err := s.Scan(&p.ID, &p.Name, &skills, &p.Description, &priority, &status,
		&start, &end, &p.Duration, &headcount, &created); err != nil {
		return model.Project{}, err
	}
	if err := json.Unmarshal([]byte(skills), &p.RequiredSkills); err != nil {
		return model.Project{}, fmt.Errorf("decode required skills of %s: %w", p.ID, err)
	}
	p.Priority = model.Priority(priority)
	p.Status = model.ProjectStatus(status)

	var err error
	if p.StartDate, err = scanDate(start); err != nil {
		return model.Project{}, err
	}
	if p.EndDate, err = scanDate(end); err != nil {
		return model.Project{}, err
	}
	if headcount.Valid {
		n := int(headcount.Int64)
		p.Headcount = &n
	}
	if p.CreatedAt, err = parseTime(created); err != nil {
		return model.Project{}, err
	}
	return p, nil
}

func nullDate(d *model.Date) sql.NullString {
	if d == nil || d.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func scanDate(s sql.NullString) (*model.Date, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	d, err := model.ParseDate(s.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
