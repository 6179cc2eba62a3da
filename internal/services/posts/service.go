// Package posts implements the resident content feed: post creation with
// optional media, listings with engagement counts, likes, and comments.
package posts

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/valusophy/city/internal/platform/errors"
	"github.com/valusophy/city/internal/platform/id"
	"github.com/valusophy/city/internal/services/media"
	"github.com/valusophy/city/internal/services/posts/storage"
	residentstorage "github.com/valusophy/city/internal/services/residents/storage"
)

// ResidentResolver maps auth principals to resident records.
type ResidentResolver interface {
	EnsureResident(ctx context.Context, authUserID, email string) (residentstorage.Resident, error)
}

// Service coordinates post operations over the stores.
type Service struct {
	store     storage.PostStore
	residents ResidentResolver
	media     media.Store
	clock     func() time.Time
}

// NewService builds a post service. The media store may be nil when uploads
// are disabled.
func NewService(store storage.PostStore, residents ResidentResolver, mediaStore media.Store) *Service {
	return &Service{
		store:     store,
		residents: residents,
		media:     mediaStore,
		clock:     time.Now,
	}
}

// Upload carries an optional file attached to a post.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// CreatePostInput carries the fields of a new post.
type CreatePostInput struct {
	Title   string
	Kind    string
	Content string
	Upload  *Upload
}

// View is a post decorated with engagement counts and its author summary.
type View struct {
	Post          storage.Post
	Author        storage.AuthorSummary
	LikesCount    int
	CommentsCount int
}

// CreatePost stores a new post for the caller's resident, uploading any
// attached media first. The resident is provisioned on first access; a post
// insert failure after that leaves the resident standing.
func (s *Service) CreatePost(ctx context.Context, authUserID, email string, input CreatePostInput) (storage.Post, error) {
	if s == nil || s.store == nil || s.residents == nil {
		return storage.Post{}, fmt.Errorf("post service is not configured")
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return storage.Post{}, apperrors.New(apperrors.CodePostEmptyTitle, "title is required")
	}
	kind := strings.TrimSpace(input.Kind)
	switch kind {
	case storage.KindText, storage.KindImage, storage.KindVideo:
	default:
		return storage.Post{}, apperrors.WithMetadata(
			apperrors.CodePostInvalidKind,
			"unsupported post type",
			map[string]string{"kind": kind},
		)
	}

	resident, err := s.residents.EnsureResident(ctx, authUserID, email)
	if err != nil {
		return storage.Post{}, err
	}

	var fileURL, thumbnailURL string
	if input.Upload != nil && kind != storage.KindText {
		fileURL, err = s.uploadFile(ctx, authUserID, input.Upload)
		if err != nil {
			return storage.Post{}, err
		}
		if kind == storage.KindImage {
			thumbnailURL = fileURL
		}
	}

	postID, err := id.NewID()
	if err != nil {
		return storage.Post{}, apperrors.Wrap(apperrors.CodeBackendFailure, "generate post id", err)
	}
	post := storage.Post{
		ID:           postID,
		ResidentID:   resident.ID,
		Title:        title,
		Content:      strings.TrimSpace(input.Content),
		Kind:         kind,
		FileURL:      fileURL,
		ThumbnailURL: thumbnailURL,
		CreatedAt:    s.clock().UTC(),
	}
	if err := s.store.CreatePost(ctx, post); err != nil {
		return storage.Post{}, apperrors.Wrap(apperrors.CodeBackendFailure, "create post", err)
	}
	return post, nil
}

func (s *Service) uploadFile(ctx context.Context, authUserID string, upload *Upload) (string, error) {
	if s.media == nil {
		return "", apperrors.New(apperrors.CodeMediaUploadFailed, "media storage is not configured")
	}
	objectPath, err := media.ObjectPath(authUserID, upload.Filename, s.clock())
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeMediaUploadFailed, "build object path", err)
	}
	if err := s.media.Upload(ctx, objectPath, upload.Data, upload.ContentType); err != nil {
		return "", apperrors.Wrap(apperrors.CodeMediaUploadFailed, "upload media", err)
	}
	return s.media.PublicURL(objectPath), nil
}

// ListPosts returns posts newest first with like and comment counts. The
// counts are fetched concurrently per post.
func (s *Service) ListPosts(ctx context.Context, residentID string) ([]View, error) {
	if s == nil || s.store == nil {
		return nil, fmt.Errorf("post service is not configured")
	}

	entries, err := s.store.ListPosts(ctx, residentID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeBackendFailure, "list posts", err)
	}

	views := make([]View, len(entries))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, entry := range entries {
		views[i] = View{Post: entry.Post, Author: entry.Author}
		group.Go(func() error {
			likes, err := s.store.CountLikes(groupCtx, entry.ID)
			if err != nil {
				return fmt.Errorf("count likes for %s: %w", entry.ID, err)
			}
			views[i].LikesCount = likes
			return nil
		})
		group.Go(func() error {
			comments, err := s.store.CountComments(groupCtx, entry.ID)
			if err != nil {
				return fmt.Errorf("count comments for %s: %w", entry.ID, err)
			}
			views[i].CommentsCount = comments
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeBackendFailure, "list posts", err)
	}
	return views, nil
}

// DeletePost removes the caller's post. Media removal is best effort; a
// failed object delete is logged and does not block the row delete.
func (s *Service) DeletePost(ctx context.Context, authUserID, email, postID string) error {
	if s == nil || s.store == nil || s.residents == nil {
		return fmt.Errorf("post service is not configured")
	}

	resident, err := s.residents.EnsureResident(ctx, authUserID, email)
	if err != nil {
		return err
	}
	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		if err == storage.ErrNotFound {
			return apperrors.New(apperrors.CodePostNotFound, "post not found")
		}
		return apperrors.Wrap(apperrors.CodeBackendFailure, "get post", err)
	}
	if post.ResidentID != resident.ID {
		return apperrors.New(apperrors.CodePostNotOwner, "post belongs to another resident")
	}

	if post.FileURL != "" && s.media != nil {
		if objectPath, ok := objectPathFromURL(s.media, post.FileURL); ok {
			if owner, ok := media.PathOwner(objectPath); !ok || owner != resident.AuthUserID {
				log.Printf("skip media removal for post %s: object %q outside owner namespace", post.ID, objectPath)
			} else if err := s.media.Remove(ctx, objectPath); err != nil {
				log.Printf("remove media for post %s: %v", post.ID, err)
			}
		}
	}

	if err := s.store.DeletePost(ctx, postID); err != nil {
		if err == storage.ErrNotFound {
			return apperrors.New(apperrors.CodePostNotFound, "post not found")
		}
		return apperrors.Wrap(apperrors.CodeBackendFailure, "delete post", err)
	}
	return nil
}

// objectPathFromURL recovers the object path from a public URL produced by
// the same store.
func objectPathFromURL(store media.Store, fileURL string) (string, bool) {
	base := store.PublicURL("")
	if base == "" || !strings.HasPrefix(fileURL, base) {
		return "", false
	}
	objectPath := strings.TrimLeft(strings.TrimPrefix(fileURL, base), "/")
	if objectPath == "" {
		return "", false
	}
	return objectPath, true
}

// ToggleLike flips the caller's like on a post and reports the new state.
func (s *Service) ToggleLike(ctx context.Context, authUserID, email, postID string) (liked bool, err error) {
	if s == nil || s.store == nil || s.residents == nil {
		return false, fmt.Errorf("post service is not configured")
	}

	resident, err := s.residents.EnsureResident(ctx, authUserID, email)
	if err != nil {
		return false, err
	}
	if _, err := s.store.GetPost(ctx, postID); err != nil {
		if err == storage.ErrNotFound {
			return false, apperrors.New(apperrors.CodePostNotFound, "post not found")
		}
		return false, apperrors.Wrap(apperrors.CodeBackendFailure, "get post", err)
	}

	inserted, err := s.store.InsertLike(ctx, postID, resident.ID, s.clock().UTC())
	if err != nil {
		return false, apperrors.Wrap(apperrors.CodeBackendFailure, "insert like", err)
	}
	if inserted {
		return true, nil
	}
	if err := s.store.DeleteLike(ctx, postID, resident.ID); err != nil {
		return false, apperrors.Wrap(apperrors.CodeBackendFailure, "delete like", err)
	}
	return false, nil
}

// AddComment stores a trimmed, non-blank comment by the caller.
func (s *Service) AddComment(ctx context.Context, authUserID, email, postID, content string) (storage.Comment, error) {
	if s == nil || s.store == nil || s.residents == nil {
		return storage.Comment{}, fmt.Errorf("post service is not configured")
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return storage.Comment{}, apperrors.New(apperrors.CodeCommentEmptyBody, "comment content is required")
	}

	resident, err := s.residents.EnsureResident(ctx, authUserID, email)
	if err != nil {
		return storage.Comment{}, err
	}
	if _, err := s.store.GetPost(ctx, postID); err != nil {
		if err == storage.ErrNotFound {
			return storage.Comment{}, apperrors.New(apperrors.CodePostNotFound, "post not found")
		}
		return storage.Comment{}, apperrors.Wrap(apperrors.CodeBackendFailure, "get post", err)
	}

	commentID, err := id.NewID()
	if err != nil {
		return storage.Comment{}, apperrors.Wrap(apperrors.CodeBackendFailure, "generate comment id", err)
	}
	comment := storage.Comment{
		ID:         commentID,
		PostID:     strings.TrimSpace(postID),
		ResidentID: resident.ID,
		Content:    content,
		CreatedAt:  s.clock().UTC(),
	}
	if err := s.store.CreateComment(ctx, comment); err != nil {
		return storage.Comment{}, apperrors.Wrap(apperrors.CodeBackendFailure, "create comment", err)
	}
	return comment, nil
}

// ListComments returns a post's comments oldest first.
func (s *Service) ListComments(ctx context.Context, postID string) ([]storage.CommentWithAuthor, error) {
	if s == nil || s.store == nil {
		return nil, fmt.Errorf("post service is not configured")
	}
	comments, err := s.store.ListComments(ctx, postID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeBackendFailure, "list comments", err)
	}
	return comments, nil
}

// RecordView bumps a post's view counter. Failures are logged only.
func (s *Service) RecordView(ctx context.Context, postID string) {
	if s == nil || s.store == nil {
		return
	}
	if err := s.store.IncrementViews(ctx, postID); err != nil {
		log.Printf("record view for post %s: %v", postID, err)
	}
}
