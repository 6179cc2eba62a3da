// Package storage defines persistence contracts for collaborative projects.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates a requested project record is missing.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness-constrained record already exists.
var ErrAlreadyExists = errors.New("record already exists")

// Project statuses.
const (
	StatusRecruiting = "recruiting"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// RoleLeader marks the member who created a project.
const RoleLeader = "leader"

// Project stores one collaborative project.
type Project struct {
	ID          string
	Title       string
	Description string
	LeaderID    string
	Status      string
	StartDate   string
	CreatedAt   time.Time
}

// Member stores one project membership.
type Member struct {
	ProjectID  string
	ResidentID string
	Role       string
	CreatedAt  time.Time
}

// MemberWithResident joins a membership with its resident's name and email.
type MemberWithResident struct {
	Member
	Name  string
	Email string
}

// ProjectWithMembers joins a project with its member roster.
type ProjectWithMembers struct {
	Project
	Members []MemberWithResident
}

// Application stores one residency application to a project.
type Application struct {
	ID         string
	ProjectID  string
	ResidentID string
	Message    string
	Status     string
	CreatedAt  time.Time
}

// ProjectStore persists projects, memberships, and applications.
type ProjectStore interface {
	CreateProject(ctx context.Context, project Project) error
	GetProject(ctx context.Context, projectID string) (Project, error)
	// ListProjects returns projects newest first with member rosters.
	ListProjects(ctx context.Context) ([]ProjectWithMembers, error)
	// AddMember records a membership; a duplicate pair returns
	// ErrAlreadyExists.
	AddMember(ctx context.Context, member Member) error
	// CreateApplication records an application; a second application by the
	// same resident to the same project returns ErrAlreadyExists.
	CreateApplication(ctx context.Context, application Application) error
}
