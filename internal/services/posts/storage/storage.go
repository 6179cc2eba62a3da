// Package storage defines persistence contracts for posts and their
// engagement records.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates a requested post record is missing.
var ErrNotFound = errors.New("record not found")

// Post kinds accepted by the content ledger.
const (
	KindText  = "text"
	KindImage = "image"
	KindVideo = "video"
)

// Post stores one resident-authored feed entry.
type Post struct {
	ID           string
	ResidentID   string
	Title        string
	Content      string
	Kind         string
	FileURL      string
	ThumbnailURL string
	Views        int
	CreatedAt    time.Time
}

// AuthorSummary carries the resident fields shown alongside a post.
type AuthorSummary struct {
	ID              string
	Name            string
	ApartmentNumber string
	AvatarURL       string
}

// PostWithAuthor joins a post with its author's summary.
type PostWithAuthor struct {
	Post
	Author AuthorSummary
}

// Comment stores one resident comment on a post.
type Comment struct {
	ID         string
	PostID     string
	ResidentID string
	Content    string
	CreatedAt  time.Time
}

// CommentWithAuthor joins a comment with its author's summary.
type CommentWithAuthor struct {
	Comment
	Author AuthorSummary
}

// PostStore persists posts, likes, and comments.
type PostStore interface {
	CreatePost(ctx context.Context, post Post) error
	GetPost(ctx context.Context, postID string) (Post, error)
	// ListPosts returns posts newest first, joined with author summaries.
	// A non-empty residentID restricts the listing to that author.
	ListPosts(ctx context.Context, residentID string) ([]PostWithAuthor, error)
	DeletePost(ctx context.Context, postID string) error

	// InsertLike records a like unless one already exists for the pair.
	// It reports whether a row was inserted.
	InsertLike(ctx context.Context, postID, residentID string, createdAt time.Time) (inserted bool, err error)
	DeleteLike(ctx context.Context, postID, residentID string) error
	CountLikes(ctx context.Context, postID string) (int, error)

	CreateComment(ctx context.Context, comment Comment) error
	ListComments(ctx context.Context, postID string) ([]CommentWithAuthor, error)
	CountComments(ctx context.Context, postID string) (int, error)

	IncrementViews(ctx context.Context, postID string) error
}
