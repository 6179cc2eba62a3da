// Package projects implements the collaboration registry: project creation
// with leader enrollment, listings with member rosters, and applications.
package projects

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	apperrors "github.com/valusophy/city/internal/platform/errors"
	"github.com/valusophy/city/internal/platform/id"
	"github.com/valusophy/city/internal/services/projects/storage"
	residentstorage "github.com/valusophy/city/internal/services/residents/storage"
)

// ResidentResolver maps auth principals to resident records.
type ResidentResolver interface {
	EnsureResident(ctx context.Context, authUserID, email string) (residentstorage.Resident, error)
}

// Service coordinates project operations.
type Service struct {
	store     storage.ProjectStore
	residents ResidentResolver
	clock     func() time.Time
}

// NewService builds a project service.
func NewService(store storage.ProjectStore, residents ResidentResolver) *Service {
	return &Service{
		store:     store,
		residents: residents,
		clock:     time.Now,
	}
}

// CreateProjectInput carries the fields of a new project.
type CreateProjectInput struct {
	Title       string
	Description string
	StartDate   string
}

// CreateProjectResult reports the created project and whether the leader
// membership row landed. A false LeaderEnrolled means the project stands
// without its leader on the roster.
type CreateProjectResult struct {
	Project        storage.Project
	LeaderEnrolled bool
}

// CreateProject stores a new recruiting project led by the caller's
// resident, then enrolls the leader. The membership insert failing leaves
// the project in place; the partial outcome is reported, not rolled back.
func (s *Service) CreateProject(ctx context.Context, authUserID, email string, input CreateProjectInput) (CreateProjectResult, error) {
	if s == nil || s.store == nil || s.residents == nil {
		return CreateProjectResult{}, fmt.Errorf("project service is not configured")
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return CreateProjectResult{}, apperrors.New(apperrors.CodeProjectEmptyTitle, "title is required")
	}

	resident, err := s.residents.EnsureResident(ctx, authUserID, email)
	if err != nil {
		return CreateProjectResult{}, err
	}

	projectID, err := id.NewID()
	if err != nil {
		return CreateProjectResult{}, apperrors.Wrap(apperrors.CodeBackendFailure, "generate project id", err)
	}
	now := s.clock().UTC()
	project := storage.Project{
		ID:          projectID,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		LeaderID:    resident.ID,
		Status:      storage.StatusRecruiting,
		StartDate:   strings.TrimSpace(input.StartDate),
		CreatedAt:   now,
	}
	if err := s.store.CreateProject(ctx, project); err != nil {
		return CreateProjectResult{}, apperrors.Wrap(apperrors.CodeBackendFailure, "create project", err)
	}

	result := CreateProjectResult{Project: project}
	err = s.store.AddMember(ctx, storage.Member{
		ProjectID:  projectID,
		ResidentID: resident.ID,
		Role:       storage.RoleLeader,
		CreatedAt:  now,
	})
	if err != nil {
		log.Printf("enroll leader %s in project %s: %v", resident.ID, projectID, err)
	} else {
		result.LeaderEnrolled = true
	}
	return result, nil
}

// ListProjects returns projects newest first with member rosters.
func (s *Service) ListProjects(ctx context.Context) ([]storage.ProjectWithMembers, error) {
	if s == nil || s.store == nil {
		return nil, fmt.Errorf("project service is not configured")
	}
	projects, err := s.store.ListProjects(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeBackendFailure, "list projects", err)
	}
	return projects, nil
}

// Apply records the caller's application to a project. A second application
// to the same project reports a conflict.
func (s *Service) Apply(ctx context.Context, authUserID, email, projectID, message string) (storage.Application, error) {
	if s == nil || s.store == nil || s.residents == nil {
		return storage.Application{}, fmt.Errorf("project service is not configured")
	}

	resident, err := s.residents.EnsureResident(ctx, authUserID, email)
	if err != nil {
		return storage.Application{}, err
	}
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.Application{}, apperrors.New(apperrors.CodeProjectNotFound, "project not found")
		}
		return storage.Application{}, apperrors.Wrap(apperrors.CodeBackendFailure, "get project", err)
	}

	applicationID, err := id.NewID()
	if err != nil {
		return storage.Application{}, apperrors.Wrap(apperrors.CodeBackendFailure, "generate application id", err)
	}
	application := storage.Application{
		ID:         applicationID,
		ProjectID:  strings.TrimSpace(projectID),
		ResidentID: resident.ID,
		Message:    strings.TrimSpace(message),
		Status:     "pending",
		CreatedAt:  s.clock().UTC(),
	}
	if err := s.store.CreateApplication(ctx, application); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return storage.Application{}, apperrors.New(apperrors.CodeProjectAlreadyApplied, "already applied")
		}
		return storage.Application{}, apperrors.Wrap(apperrors.CodeBackendFailure, "create application", err)
	}
	return application, nil
}
