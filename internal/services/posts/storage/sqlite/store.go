// Package sqlite provides a SQLite-backed post storage implementation.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sqlitemigrate "github.com/valusophy/city/internal/platform/storage/sqlitemigrate"
	"github.com/valusophy/city/internal/services/posts/storage"
	"github.com/valusophy/city/internal/services/posts/storage/sqlite/migrations"
)

// Store persists post state in SQLite. It shares the database handle with
// the resident store; posts reference residents by foreign key.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// New wraps a shared SQLite handle and applies post migrations.
func New(sqlDB *sql.DB) (*Store, error) {
	if sqlDB == nil {
		return nil, fmt.Errorf("sql db is required")
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS, ""); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

const postColumns = `p.id, p.resident_id, p.title, p.content, p.kind,
        p.file_url, p.thumbnail_url, p.views, p.created_at`

// CreatePost inserts one post row.
func (s *Store) CreatePost(ctx context.Context, post storage.Post) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	postID := strings.TrimSpace(post.ID)
	residentID := strings.TrimSpace(post.ResidentID)
	if postID == "" {
		return fmt.Errorf("post id is required")
	}
	if residentID == "" {
		return fmt.Errorf("resident id is required")
	}
	title := strings.TrimSpace(post.Title)
	if title == "" {
		return fmt.Errorf("title is required")
	}
	createdAt := post.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO posts (
		   id, resident_id, title, content, kind,
		   file_url, thumbnail_url, views, created_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		postID,
		residentID,
		title,
		post.Content,
		strings.TrimSpace(post.Kind),
		strings.TrimSpace(post.FileURL),
		strings.TrimSpace(post.ThumbnailURL),
		post.Views,
		toMillis(createdAt),
	)
	if err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

// GetPost returns one post by id.
func (s *Store) GetPost(ctx context.Context, postID string) (storage.Post, error) {
	if err := ctx.Err(); err != nil {
		return storage.Post{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Post{}, fmt.Errorf("storage is not configured")
	}
	postID = strings.TrimSpace(postID)
	if postID == "" {
		return storage.Post{}, fmt.Errorf("post id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT `+postColumns+` FROM posts p WHERE p.id = ?`,
		postID,
	)
	post, err := scanPost(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Post{}, storage.ErrNotFound
		}
		return storage.Post{}, fmt.Errorf("get post: %w", err)
	}
	return post, nil
}

// ListPosts returns posts newest first with author summaries joined in. A
// non-empty residentID restricts the listing to that author.
func (s *Store) ListPosts(ctx context.Context, residentID string) ([]storage.PostWithAuthor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	query := `SELECT ` + postColumns + `,
	        r.id, r.name, r.apartment_number, r.avatar_url
	   FROM posts p
	   JOIN residents r ON r.id = p.resident_id`
	args := []any{}
	if residentID = strings.TrimSpace(residentID); residentID != "" {
		query += ` WHERE p.resident_id = ?`
		args = append(args, residentID)
	}
	query += ` ORDER BY p.created_at DESC, p.id`

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var posts []storage.PostWithAuthor
	for rows.Next() {
		var entry storage.PostWithAuthor
		var createdAt int64
		err := rows.Scan(
			&entry.ID,
			&entry.ResidentID,
			&entry.Title,
			&entry.Content,
			&entry.Kind,
			&entry.FileURL,
			&entry.ThumbnailURL,
			&entry.Views,
			&createdAt,
			&entry.Author.ID,
			&entry.Author.Name,
			&entry.Author.ApartmentNumber,
			&entry.Author.AvatarURL,
		)
		if err != nil {
			return nil, fmt.Errorf("list posts: %w", err)
		}
		entry.CreatedAt = fromMillis(createdAt)
		posts = append(posts, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// DeletePost removes one post. Likes and comments cascade.
func (s *Store) DeletePost(ctx context.Context, postID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	postID = strings.TrimSpace(postID)
	if postID == "" {
		return fmt.Errorf("post id is required")
	}

	result, err := s.sqlDB.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, postID)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// InsertLike records a like unless the pair already has one.
func (s *Store) InsertLike(ctx context.Context, postID, residentID string, createdAt time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if s == nil || s.sqlDB == nil {
		return false, fmt.Errorf("storage is not configured")
	}
	postID = strings.TrimSpace(postID)
	residentID = strings.TrimSpace(residentID)
	if postID == "" || residentID == "" {
		return false, fmt.Errorf("post id and resident id are required")
	}
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT OR IGNORE INTO post_likes (post_id, resident_id, created_at)
		 VALUES (?, ?, ?)`,
		postID,
		residentID,
		toMillis(createdAt),
	)
	if err != nil {
		return false, fmt.Errorf("insert like: %w", err)
	}
	inserted, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert like: %w", err)
	}
	return inserted > 0, nil
}

// DeleteLike removes one like pair if present.
func (s *Store) DeleteLike(ctx context.Context, postID, residentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`DELETE FROM post_likes WHERE post_id = ? AND resident_id = ?`,
		strings.TrimSpace(postID),
		strings.TrimSpace(residentID),
	)
	if err != nil {
		return fmt.Errorf("delete like: %w", err)
	}
	return nil
}

// CountLikes returns the number of likes on one post.
func (s *Store) CountLikes(ctx context.Context, postID string) (int, error) {
	return s.countEngagement(ctx, `SELECT COUNT(*) FROM post_likes WHERE post_id = ?`, postID)
}

// CreateComment inserts one comment row.
func (s *Store) CreateComment(ctx context.Context, comment storage.Comment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	commentID := strings.TrimSpace(comment.ID)
	if commentID == "" {
		return fmt.Errorf("comment id is required")
	}
	content := strings.TrimSpace(comment.Content)
	if content == "" {
		return fmt.Errorf("content is required")
	}
	createdAt := comment.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO post_comments (id, post_id, resident_id, content, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		commentID,
		strings.TrimSpace(comment.PostID),
		strings.TrimSpace(comment.ResidentID),
		content,
		toMillis(createdAt),
	)
	if err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

// ListComments returns a post's comments oldest first with author summaries.
func (s *Store) ListComments(ctx context.Context, postID string) ([]storage.CommentWithAuthor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT c.id, c.post_id, c.resident_id, c.content, c.created_at,
		        r.id, r.name, r.apartment_number, r.avatar_url
		   FROM post_comments c
		   JOIN residents r ON r.id = c.resident_id
		  WHERE c.post_id = ?
		  ORDER BY c.created_at, c.id`,
		strings.TrimSpace(postID),
	)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var comments []storage.CommentWithAuthor
	for rows.Next() {
		var entry storage.CommentWithAuthor
		var createdAt int64
		err := rows.Scan(
			&entry.ID,
			&entry.PostID,
			&entry.ResidentID,
			&entry.Content,
			&createdAt,
			&entry.Author.ID,
			&entry.Author.Name,
			&entry.Author.ApartmentNumber,
			&entry.Author.AvatarURL,
		)
		if err != nil {
			return nil, fmt.Errorf("list comments: %w", err)
		}
		entry.CreatedAt = fromMillis(createdAt)
		comments = append(comments, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

// CountComments returns the number of comments on one post.
func (s *Store) CountComments(ctx context.Context, postID string) (int, error) {
	return s.countEngagement(ctx, `SELECT COUNT(*) FROM post_comments WHERE post_id = ?`, postID)
}

// IncrementViews bumps a post's view counter.
func (s *Store) IncrementViews(ctx context.Context, postID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE posts SET views = views + 1 WHERE id = ?`,
		strings.TrimSpace(postID),
	)
	if err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	return nil
}

func (s *Store) countEngagement(ctx context.Context, query, postID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}

	var count int
	if err := s.sqlDB.QueryRowContext(ctx, query, strings.TrimSpace(postID)).Scan(&count); err != nil {
		return 0, fmt.Errorf("count engagement: %w", err)
	}
	return count, nil
}

func scanPost(row *sql.Row) (storage.Post, error) {
	var post storage.Post
	var createdAt int64
	err := row.Scan(
		&post.ID,
		&post.ResidentID,
		&post.Title,
		&post.Content,
		&post.Kind,
		&post.FileURL,
		&post.ThumbnailURL,
		&post.Views,
		&createdAt,
	)
	if err != nil {
		return storage.Post{}, err
	}
	post.CreatedAt = fromMillis(createdAt)
	return post, nil
}

var _ storage.PostStore = (*Store)(nil)
