// Package sqlite provides a SQLite-backed auth state store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sqlitemigrate "github.com/valusophy/city/internal/platform/storage/sqlitemigrate"
	"github.com/valusophy/city/internal/services/auth/storage"
	"github.com/valusophy/city/internal/services/auth/storage/sqlite/migrations"
)

// Store persists provider state records in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// New wraps a shared SQLite handle and applies auth migrations.
func New(sqlDB *sql.DB) (*Store, error) {
	if sqlDB == nil {
		return nil, fmt.Errorf("sql db is required")
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS, ""); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// CreateState inserts one state record.
func (s *Store) CreateState(ctx context.Context, record storage.StateRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	state := strings.TrimSpace(record.State)
	if state == "" {
		return fmt.Errorf("state is required")
	}
	createdAt := record.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO auth_states (state, code_verifier, redirect_uri, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		state,
		record.CodeVerifier,
		strings.TrimSpace(record.RedirectURI),
		toMillis(record.ExpiresAt),
		toMillis(createdAt),
	)
	if err != nil {
		return fmt.Errorf("create state: %w", err)
	}
	return nil
}

// GetState returns one state record.
func (s *Store) GetState(ctx context.Context, state string) (storage.StateRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.StateRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.StateRecord{}, fmt.Errorf("storage is not configured")
	}

	var record storage.StateRecord
	var expiresAt, createdAt int64
	err := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT state, code_verifier, redirect_uri, expires_at, created_at
		   FROM auth_states WHERE state = ?`,
		strings.TrimSpace(state),
	).Scan(
		&record.State,
		&record.CodeVerifier,
		&record.RedirectURI,
		&expiresAt,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.StateRecord{}, storage.ErrNotFound
		}
		return storage.StateRecord{}, fmt.Errorf("get state: %w", err)
	}
	record.ExpiresAt = fromMillis(expiresAt)
	record.CreatedAt = fromMillis(createdAt)
	return record, nil
}

// DeleteState removes one state record if present.
func (s *Store) DeleteState(ctx context.Context, state string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`DELETE FROM auth_states WHERE state = ?`,
		strings.TrimSpace(state),
	)
	if err != nil {
		return fmt.Errorf("delete state: %w", err)
	}
	return nil
}

// DeleteExpired removes records whose expiry is at or before now.
func (s *Store) DeleteExpired(ctx context.Context, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`DELETE FROM auth_states WHERE expires_at <= ?`,
		toMillis(now),
	)
	if err != nil {
		return fmt.Errorf("delete expired states: %w", err)
	}
	return nil
}

var _ storage.StateStore = (*Store)(nil)
