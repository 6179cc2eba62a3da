// Package sqlite provides a SQLite-backed residency application store.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	sqlitemigrate "github.com/valusophy/city/internal/platform/storage/sqlitemigrate"
	"github.com/valusophy/city/internal/services/applications/storage"
	"github.com/valusophy/city/internal/services/applications/storage/sqlite/migrations"
)

// Store persists residency applications in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// New wraps a shared SQLite handle and applies application migrations.
func New(sqlDB *sql.DB) (*Store, error) {
	if sqlDB == nil {
		return nil, fmt.Errorf("sql db is required")
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS, ""); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// CreateApplication inserts one application row.
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

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO residency_applications (id, name, email, message, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		applicationID,
		strings.TrimSpace(application.Name),
		strings.TrimSpace(application.Email),
		application.Message,
		status,
		toMillis(createdAt),
	)
	if err != nil {
		return fmt.Errorf("create application: %w", err)
	}
	return nil
}

// ListApplications returns applications newest first.
func (s *Store) ListApplications(ctx context.Context) ([]storage.Application, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, name, email, message, status, created_at
		   FROM residency_applications ORDER BY created_at DESC, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	var applications []storage.Application
	for rows.Next() {
		var application storage.Application
		var createdAt int64
		err := rows.Scan(
			&application.ID,
			&application.Name,
			&application.Email,
			&application.Message,
			&application.Status,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("list applications: %w", err)
		}
		application.CreatedAt = fromMillis(createdAt)
		applications = append(applications, application)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return applications, nil
}

var _ storage.ApplicationStore = (*Store)(nil)
