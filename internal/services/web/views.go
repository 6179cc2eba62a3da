package web

import (
	"time"

	"github.com/valusophy/city/internal/services/posts"
	poststorage "github.com/valusophy/city/internal/services/posts/storage"
	projectstorage "github.com/valusophy/city/internal/services/projects/storage"
	residentstorage "github.com/valusophy/city/internal/services/residents/storage"
)

// residentSummaryView is the resident summary embedded in posts and
// comments.
type residentSummaryView struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	ApartmentNumber string `json:"apartment_number"`
	AvatarURL       string `json:"avatar_url,omitempty"`
}

type postView struct {
	ID            string               `json:"id"`
	ResidentID    string               `json:"resident_id"`
	Title         string               `json:"title"`
	Content       string               `json:"content,omitempty"`
	Type          string               `json:"type"`
	FileURL       string               `json:"file_url,omitempty"`
	ThumbnailURL  string               `json:"thumbnail_url,omitempty"`
	Views         int                  `json:"views"`
	LikesCount    int                  `json:"likes_count"`
	CommentsCount int                  `json:"comments_count"`
	CreatedAt     time.Time            `json:"created_at"`
	Resident      *residentSummaryView `json:"resident,omitempty"`
}

type commentView struct {
	ID         string              `json:"id"`
	PostID     string              `json:"post_id"`
	ResidentID string              `json:"resident_id"`
	Content    string              `json:"content"`
	CreatedAt  time.Time           `json:"created_at"`
	Resident   residentSummaryView `json:"resident"`
}

type residentView struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	ApartmentNumber string    `json:"apartment_number"`
	Building        string    `json:"building"`
	Floor           int       `json:"floor"`
	Bio             string    `json:"bio,omitempty"`
	AvatarURL       string    `json:"avatar_url,omitempty"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}

type memberView struct {
	ResidentID string `json:"resident_id"`
	Role       string `json:"role"`
	Name       string `json:"name"`
	Email      string `json:"email"`
}

type projectView struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	LeaderID    string       `json:"leader_id"`
	Status      string       `json:"status"`
	StartDate   string       `json:"start_date,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	Members     []memberView `json:"members"`
}

type applicationView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func toAuthorView(author poststorage.AuthorSummary) *residentSummaryView {
	if author.ID == "" {
		return nil
	}
	return &residentSummaryView{
		ID:              author.ID,
		Name:            author.Name,
		ApartmentNumber: author.ApartmentNumber,
		AvatarURL:       author.AvatarURL,
	}
}

func toPostView(view posts.View) postView {
	return postView{
		ID:            view.Post.ID,
		ResidentID:    view.Post.ResidentID,
		Title:         view.Post.Title,
		Content:       view.Post.Content,
		Type:          view.Post.Kind,
		FileURL:       view.Post.FileURL,
		ThumbnailURL:  view.Post.ThumbnailURL,
		Views:         view.Post.Views,
		LikesCount:    view.LikesCount,
		CommentsCount: view.CommentsCount,
		CreatedAt:     view.Post.CreatedAt,
		Resident:      toAuthorView(view.Author),
	}
}

func toCreatedPostView(post poststorage.Post) postView {
	return postView{
		ID:           post.ID,
		ResidentID:   post.ResidentID,
		Title:        post.Title,
		Content:      post.Content,
		Type:         post.Kind,
		FileURL:      post.FileURL,
		ThumbnailURL: post.ThumbnailURL,
		Views:        post.Views,
		CreatedAt:    post.CreatedAt,
	}
}

func toCommentView(comment poststorage.CommentWithAuthor) commentView {
	view := commentView{
		ID:         comment.ID,
		PostID:     comment.PostID,
		ResidentID: comment.ResidentID,
		Content:    comment.Content,
		CreatedAt:  comment.CreatedAt,
	}
	if author := toAuthorView(comment.Author); author != nil {
		view.Resident = *author
	}
	return view
}

func toResidentView(resident residentstorage.Resident) residentView {
	return residentView{
		ID:              resident.ID,
		Name:            resident.Name,
		Email:           resident.Email,
		ApartmentNumber: resident.ApartmentNumber,
		Building:        resident.Building,
		Floor:           resident.Floor,
		Bio:             resident.Bio,
		AvatarURL:       resident.AvatarURL,
		Status:          resident.Status,
		CreatedAt:       resident.CreatedAt,
	}
}

func toCreatedProjectView(project projectstorage.Project) projectView {
	return toProjectView(projectstorage.ProjectWithMembers{Project: project})
}

func toProjectView(project projectstorage.ProjectWithMembers) projectView {
	members := make([]memberView, 0, len(project.Members))
	for _, member := range project.Members {
		members = append(members, memberView{
			ResidentID: member.ResidentID,
			Role:       member.Role,
			Name:       member.Name,
			Email:      member.Email,
		})
	}
	return projectView{
		ID:          project.ID,
		Title:       project.Title,
		Description: project.Description,
		LeaderID:    project.LeaderID,
		Status:      project.Status,
		StartDate:   project.StartDate,
		CreatedAt:   project.CreatedAt,
		Members:     members,
	}
}
