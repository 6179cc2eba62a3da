// Package sqlite provides a SQLite-backed penthouse block store.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	sqlitemigrate "github.com/valusophy/city/internal/platform/storage/sqlitemigrate"
	"github.com/valusophy/city/internal/services/penthouse/storage"
	"github.com/valusophy/city/internal/services/penthouse/storage/sqlite/migrations"
)

// Store persists penthouse layouts in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// New wraps a shared SQLite handle and applies penthouse migrations.
func New(sqlDB *sql.DB) (*Store, error) {
	if sqlDB == nil {
		return nil, fmt.Errorf("sql db is required")
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS, ""); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// ReplaceBlocks swaps a resident's layout inside one transaction. Either
// the whole new layout lands or the old one stays.
func (s *Store) ReplaceBlocks(ctx context.Context, residentID string, blocks []storage.Block) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	residentID = strings.TrimSpace(residentID)
	if residentID == "" {
		return fmt.Errorf("resident id is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace blocks: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM penthouse_blocks WHERE resident_id = ?`, residentID); err != nil {
		return fmt.Errorf("clear blocks: %w", err)
	}
	for _, block := range blocks {
		content := block.Content
		if len(content) == 0 {
			content = []byte("{}")
		}
		createdAt := block.CreatedAt.UTC()
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		_, err := tx.ExecContext(
			ctx,
			`INSERT INTO penthouse_blocks (
			   id, resident_id, kind, width, position, content, created_at
			 ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			strings.TrimSpace(block.ID),
			residentID,
			strings.TrimSpace(block.Kind),
			strings.TrimSpace(block.Width),
			block.Position,
			string(content),
			toMillis(createdAt),
		)
		if err != nil {
			return fmt.Errorf("insert block %s: %w", block.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace blocks: %w", err)
	}
	return nil
}

// ListBlocks returns a resident's blocks in position order.
func (s *Store) ListBlocks(ctx context.Context, residentID string) ([]storage.Block, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, resident_id, kind, width, position, content, created_at
		   FROM penthouse_blocks
		  WHERE resident_id = ?
		  ORDER BY position`,
		strings.TrimSpace(residentID),
	)
	if err != nil {
		return nil, fmt.Errorf("list blocks: %w", err)
	}
	defer rows.Close()

	var blocks []storage.Block
	for rows.Next() {
		var block storage.Block
		var content string
		var createdAt int64
		err := rows.Scan(
			&block.ID,
			&block.ResidentID,
			&block.Kind,
			&block.Width,
			&block.Position,
			&content,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("list blocks: %w", err)
		}
		block.Content = []byte(content)
		block.CreatedAt = fromMillis(createdAt)
		blocks = append(blocks, block)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list blocks: %w", err)
	}
	return blocks, nil
}

var _ storage.BlockStore = (*Store)(nil)
