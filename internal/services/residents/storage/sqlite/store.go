// Package sqlite provides a SQLite-backed resident storage implementation.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sqlitemigrate "github.com/valusophy/city/internal/platform/storage/sqlitemigrate"
	"github.com/valusophy/city/internal/services/residents/storage"
	"github.com/valusophy/city/internal/services/residents/storage/sqlite/migrations"
)

// Store persists resident state in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// New wraps a shared SQLite handle and applies resident migrations.
func New(sqlDB *sql.DB) (*Store, error) {
	if sqlDB == nil {
		return nil, fmt.Errorf("sql db is required")
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS, ""); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

const residentColumns = `id, auth_user_id, name, email, apartment_number,
        building, floor, bio, avatar_url, status, created_at, updated_at`

// CreateResident inserts one resident row unless the auth user already has one.
func (s *Store) CreateResident(ctx context.Context, resident storage.Resident) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if s == nil || s.sqlDB == nil {
		return false, fmt.Errorf("storage is not configured")
	}
	residentID := strings.TrimSpace(resident.ID)
	authUserID := strings.TrimSpace(resident.AuthUserID)
	if residentID == "" {
		return false, fmt.Errorf("resident id is required")
	}
	if authUserID == "" {
		return false, fmt.Errorf("auth user id is required")
	}
	name := strings.TrimSpace(resident.Name)
	if name == "" {
		return false, fmt.Errorf("name is required")
	}
	createdAt := resident.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	updatedAt := resident.UpdatedAt.UTC()
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO residents (
		   id, auth_user_id, name, email, apartment_number,
		   building, floor, bio, avatar_url, status, created_at, updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(auth_user_id) DO NOTHING`,
		residentID,
		authUserID,
		name,
		strings.TrimSpace(resident.Email),
		strings.TrimSpace(resident.ApartmentNumber),
		strings.TrimSpace(resident.Building),
		resident.Floor,
		resident.Bio,
		strings.TrimSpace(resident.AvatarURL),
		strings.TrimSpace(resident.Status),
		toMillis(createdAt),
		toMillis(updatedAt),
	)
	if err != nil {
		return false, fmt.Errorf("create resident: %w", err)
	}
	inserted, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("create resident: %w", err)
	}
	return inserted > 0, nil
}

// GetResident returns one resident by id.
func (s *Store) GetResident(ctx context.Context, residentID string) (storage.Resident, error) {
	if err := ctx.Err(); err != nil {
		return storage.Resident{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Resident{}, fmt.Errorf("storage is not configured")
	}
	residentID = strings.TrimSpace(residentID)
	if residentID == "" {
		return storage.Resident{}, fmt.Errorf("resident id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT `+residentColumns+` FROM residents WHERE id = ?`,
		residentID,
	)
	return scanResident(row)
}

// GetResidentByAuthUserID returns one resident by its auth principal id.
func (s *Store) GetResidentByAuthUserID(ctx context.Context, authUserID string) (storage.Resident, error) {
	if err := ctx.Err(); err != nil {
		return storage.Resident{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Resident{}, fmt.Errorf("storage is not configured")
	}
	authUserID = strings.TrimSpace(authUserID)
	if authUserID == "" {
		return storage.Resident{}, fmt.Errorf("auth user id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT `+residentColumns+` FROM residents WHERE auth_user_id = ?`,
		authUserID,
	)
	return scanResident(row)
}

// UpdateResidentProfile applies mutable profile fields to one resident.
func (s *Store) UpdateResidentProfile(ctx context.Context, residentID string, update storage.ProfileUpdate, updatedAt time.Time) (storage.Resident, error) {
	if err := ctx.Err(); err != nil {
		return storage.Resident{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Resident{}, fmt.Errorf("storage is not configured")
	}
	residentID = strings.TrimSpace(residentID)
	if residentID == "" {
		return storage.Resident{}, fmt.Errorf("resident id is required")
	}
	name := strings.TrimSpace(update.Name)
	if name == "" {
		return storage.Resident{}, fmt.Errorf("name is required")
	}
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE residents
		    SET name = ?, bio = ?, avatar_url = ?, status = ?, updated_at = ?
		  WHERE id = ?`,
		name,
		update.Bio,
		strings.TrimSpace(update.AvatarURL),
		strings.TrimSpace(update.Status),
		toMillis(updatedAt.UTC()),
		residentID,
	)
	if err != nil {
		return storage.Resident{}, fmt.Errorf("update resident profile: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return storage.Resident{}, fmt.Errorf("update resident profile: %w", err)
	}
	if affected == 0 {
		return storage.Resident{}, storage.ErrNotFound
	}
	return s.GetResident(ctx, residentID)
}

// ListResidents returns all residents ordered by apartment number.
func (s *Store) ListResidents(ctx context.Context) ([]storage.Resident, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT `+residentColumns+` FROM residents ORDER BY building, apartment_number`,
	)
	if err != nil {
		return nil, fmt.Errorf("list residents: %w", err)
	}
	defer rows.Close()

	var residents []storage.Resident
	for rows.Next() {
		resident, err := scanResidentRow(rows)
		if err != nil {
			return nil, fmt.Errorf("list residents: %w", err)
		}
		residents = append(residents, resident)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list residents: %w", err)
	}
	return residents, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResident(row *sql.Row) (storage.Resident, error) {
	resident, err := scanResidentRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Resident{}, storage.ErrNotFound
		}
		return storage.Resident{}, fmt.Errorf("get resident: %w", err)
	}
	return resident, nil
}

func scanResidentRow(row rowScanner) (storage.Resident, error) {
	var resident storage.Resident
	var createdAt int64
	var updatedAt int64
	err := row.Scan(
		&resident.ID,
		&resident.AuthUserID,
		&resident.Name,
		&resident.Email,
		&resident.ApartmentNumber,
		&resident.Building,
		&resident.Floor,
		&resident.Bio,
		&resident.AvatarURL,
		&resident.Status,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return storage.Resident{}, err
	}
	resident.CreatedAt = fromMillis(createdAt)
	resident.UpdatedAt = fromMillis(updatedAt)
	return resident, nil
}

var _ storage.ResidentStore = (*Store)(nil)
