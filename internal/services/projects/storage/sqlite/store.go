// Package sqlite provides a SQLite-backed project storage implementation.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sqlitemigrate "github.com/valusophy/city/internal/platform/storage/sqlitemigrate"
	"github.com/valusophy/city/internal/services/projects/storage"
	"github.com/valusophy/city/internal/services/projects/storage/sqlite/migrations"
)

// Store persists project state in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// New wraps a shared SQLite handle and applies project migrations.
func New(sqlDB *sql.DB) (*Store, error) {
	if sqlDB == nil {
		return nil, fmt.Errorf("sql db is required")
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS, ""); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// CreateProject inserts one project row.
func (s *Store) CreateProject(ctx context.Context, project storage.Project) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	projectID := strings.TrimSpace(project.ID)
	if projectID == "" {
		return fmt.Errorf("project id is required")
	}
	title := strings.TrimSpace(project.Title)
	if title == "" {
		return fmt.Errorf("title is required")
	}
	leaderID := strings.TrimSpace(project.LeaderID)
	if leaderID == "" {
		return fmt.Errorf("leader id is required")
	}
	status := strings.TrimSpace(project.Status)
	if status == "" {
		status = storage.StatusRecruiting
	}
	createdAt := project.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO projects (
		   id, title, description, leader_id, status, start_date, created_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		projectID,
		title,
		project.Description,
		leaderID,
		status,
		strings.TrimSpace(project.StartDate),
		toMillis(createdAt),
	)
	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

// GetProject returns one project by id.
func (s *Store) GetProject(ctx context.Context, projectID string) (storage.Project, error) {
	if err := ctx.Err(); err != nil {
		return storage.Project{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Project{}, fmt.Errorf("storage is not configured")
	}
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return storage.Project{}, fmt.Errorf("project id is required")
	}

	var project storage.Project
	var createdAt int64
	err := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, title, description, leader_id, status, start_date, created_at
		   FROM projects WHERE id = ?`,
		projectID,
	).Scan(
		&project.ID,
		&project.Title,
		&project.Description,
		&project.LeaderID,
		&project.Status,
		&project.StartDate,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Project{}, storage.ErrNotFound
		}
		return storage.Project{}, fmt.Errorf("get project: %w", err)
	}
	project.CreatedAt = fromMillis(createdAt)
	return project, nil
}

// ListProjects returns projects newest first with their member rosters.
func (s *Store) ListProjects(ctx context.Context) ([]storage.ProjectWithMembers, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, title, description, leader_id, status, start_date, created_at
		   FROM projects ORDER BY created_at DESC, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []storage.ProjectWithMembers
	byID := map[string]int{}
	for rows.Next() {
		var entry storage.ProjectWithMembers
		var createdAt int64
		err := rows.Scan(
			&entry.ID,
			&entry.Title,
			&entry.Description,
			&entry.LeaderID,
			&entry.Status,
			&entry.StartDate,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("list projects: %w", err)
		}
		entry.CreatedAt = fromMillis(createdAt)
		byID[entry.ID] = len(projects)
		projects = append(projects, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	if len(projects) == 0 {
		return projects, nil
	}

	memberRows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT m.project_id, m.resident_id, m.role, m.created_at,
		        r.name, r.email
		   FROM project_members m
		   JOIN residents r ON r.id = m.resident_id
		  ORDER BY m.created_at, m.resident_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list project members: %w", err)
	}
	defer memberRows.Close()

	for memberRows.Next() {
		var member storage.MemberWithResident
		var createdAt int64
		err := memberRows.Scan(
			&member.ProjectID,
			&member.ResidentID,
			&member.Role,
			&createdAt,
			&member.Name,
			&member.Email,
		)
		if err != nil {
			return nil, fmt.Errorf("list project members: %w", err)
		}
		member.CreatedAt = fromMillis(createdAt)
		if i, ok := byID[member.ProjectID]; ok {
			projects[i].Members = append(projects[i].Members, member)
		}
	}
	if err := memberRows.Err(); err != nil {
		return nil, fmt.Errorf("list project members: %w", err)
	}
	return projects, nil
}

// AddMember records a membership. A duplicate pair returns ErrAlreadyExists.
func (s *Store) AddMember(ctx context.Context, member storage.Member) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	projectID := strings.TrimSpace(member.ProjectID)
	residentID := strings.TrimSpace(member.ResidentID)
	if projectID == "" || residentID == "" {
		return fmt.Errorf("project id and resident id are required")
	}
	role := strings.TrimSpace(member.Role)
	if role == "" {
		role = "member"
	}
	createdAt := member.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT OR IGNORE INTO project_members (project_id, resident_id, role, created_at)
		 VALUES (?, ?, ?, ?)`,
		projectID,
		residentID,
		role,
		toMillis(createdAt),
	)
	if err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	inserted, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	if inserted == 0 {
		return storage.ErrAlreadyExists
	}
	return nil
}

// CreateApplication records an application. A second application by the
// same resident to the same project returns ErrAlreadyExists.
func (s *Store) CreateApplication(ctx context.Context, application storage.Application) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	applicationID := strings.TrimSpace(application.ID)
	if applicationID == "" {
		return fmt.Errorf("application id is required")
	}
	status := strings.TrimSpace(application.Status)
	if status == "" {
		status = "pending"
	}
	createdAt := application.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT OR IGNORE INTO project_applications (
		   id, project_id, resident_id, message, status, created_at
		 ) VALUES (?, ?, ?, ?, ?, ?)`,
		applicationID,
		strings.TrimSpace(application.ProjectID),
		strings.TrimSpace(application.ResidentID),
		application.Message,
		status,
		toMillis(createdAt),
	)
	if err != nil {
		return fmt.Errorf("create application: %w", err)
	}
	inserted, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("create application: %w", err)
	}
	if inserted == 0 {
		return storage.ErrAlreadyExists
	}
	return nil
}

var _ storage.ProjectStore = (*Store)(nil)
