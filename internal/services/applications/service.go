// Package applications handles the residency contact form: submissions are
// stored with a pending status, then the operator is notified by email on a
// best-effort basis.
package applications

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	apperrors "github.com/valusophy/city/internal/platform/errors"
	"github.com/valusophy/city/internal/platform/id"
	"github.com/valusophy/city/internal/services/applications/storage"
)

// Service coordinates application submissions.
type Service struct {
	store         storage.ApplicationStore
	sender        Sender
	operatorEmail string
	clock         func() time.Time
}

// NewService builds an application service. A nil sender disables the
// notification email.
func NewService(store storage.ApplicationStore, sender Sender, operatorEmail string) *Service {
	return &Service{
		store:         store,
		sender:        sender,
		operatorEmail: strings.TrimSpace(operatorEmail),
		clock:         time.Now,
	}
}

// SubmitInput carries one contact form submission.
type SubmitInput struct {
	Name    string
	Email   string
	Message string
}

// Submit stores a pending application and notifies the operator. A failed
// notification is logged and never fails the submission.
func (s *Service) Submit(ctx context.Context, input SubmitInput) (storage.Application, error) {
	if s == nil || s.store == nil {
		return storage.Application{}, fmt.Errorf("application service is not configured")
	}

	name := strings.TrimSpace(input.Name)
	email := strings.TrimSpace(input.Email)
	message := strings.TrimSpace(input.Message)
	if name == "" || email == "" || message == "" {
		return storage.Application{}, apperrors.New(apperrors.CodeApplicationMissingField, "name, email, and message are required")
	}

	applicationID, err := id.NewID()
	if err != nil {
		return storage.Application{}, apperrors.Wrap(apperrors.CodeBackendFailure, "generate application id", err)
	}
	application := storage.Application{
		ID:        applicationID,
		Name:      name,
		Email:     email,
		Message:   message,
		Status:    "pending",
		CreatedAt: s.clock().UTC(),
	}
	if err := s.store.CreateApplication(ctx, application); err != nil {
		return storage.Application{}, apperrors.Wrap(apperrors.CodeBackendFailure, "create application", err)
	}

	s.notify(application)
	return application, nil
}

func (s *Service) notify(application storage.Application) {
	if s.sender == nil || s.operatorEmail == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	subject := "New residency application from " + application.Name
	body := fmt.Sprintf("Name: %s\nEmail: %s\n\n%s", application.Name, application.Email, application.Message)
	if err := s.sender.Send(ctx, s.operatorEmail, subject, body); err != nil {
		log.Printf("notify operator about application %s: %v", application.ID, err)
	}
}
