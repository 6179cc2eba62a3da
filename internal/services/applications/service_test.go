package applications

import (
	"context"
	"fmt"
	"strings"
	"testing"

	apperrors "github.com/valusophy/city/internal/platform/errors"
	"github.com/valusophy/city/internal/services/applications/storage"
)

type memApplicationStore struct {
	applications []storage.Application
}

func (m *memApplicationStore) CreateApplication(_ context.Context, application storage.Application) error {
	m.applications = append(m.applications, application)
	return nil
}

func (m *memApplicationStore) ListApplications(_ context.Context) ([]storage.Application, error) {
	return m.applications, nil
}

var _ storage.ApplicationStore = (*memApplicationStore)(nil)

type fakeSender struct {
	sent []string
	err  error
}

func (f *fakeSender) Send(_ context.Context, to, subject, body string) error {
	f.sent = append(f.sent, to+"|"+subject)
	return f.err
}

func TestSubmitStoresAndNotifies(t *testing.T) {
	store := &memApplicationStore{}
	sender := &fakeSender{}
	service := NewService(store, sender, "operator@valusophy.city")

	application, err := service.Submit(context.Background(), SubmitInput{
		Name:    "  Ada  ",
		Email:   "ada@example.com",
		Message: "I want to move in",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if application.Name != "Ada" {
		t.Fatalf("name = %q, want trimmed", application.Name)
	}
	if application.Status != "pending" {
		t.Fatalf("status = %q, want pending", application.Status)
	}
	if len(store.applications) != 1 {
		t.Fatalf("stored = %d, want 1", len(store.applications))
	}
	if len(sender.sent) != 1 || !strings.HasPrefix(sender.sent[0], "operator@valusophy.city|") {
		t.Fatalf("sent = %v", sender.sent)
	}
}

func TestSubmitRequiresAllFields(t *testing.T) {
	service := NewService(&memApplicationStore{}, nil, "")
	tests := []SubmitInput{
		{Email: "a@b.c", Message: "m"},
		{Name: "a", Message: "m"},
		{Name: "a", Email: "a@b.c"},
		{Name: " ", Email: " ", Message: " "},
	}
	for i, input := range tests {
		_, err := service.Submit(context.Background(), input)
		if apperrors.CodeOf(err) != apperrors.CodeApplicationMissingField {
			t.Errorf("case %d: code = %v, want missing field", i, apperrors.CodeOf(err))
		}
	}
}

func TestSubmitSurvivesSenderFailure(t *testing.T) {
	store := &memApplicationStore{}
	sender := &fakeSender{err: fmt.Errorf("smtp unreachable")}
	service := NewService(store, sender, "operator@valusophy.city")

	if _, err := service.Submit(context.Background(), SubmitInput{
		Name: "Ada", Email: "ada@example.com", Message: "hello",
	}); err != nil {
		t.Fatalf("submit with failing sender: %v", err)
	}
	if len(store.applications) != 1 {
		t.Fatalf("stored = %d, want 1", len(store.applications))
	}
}

func TestSubmitSkipsEmailWhenUnconfigured(t *testing.T) {
	store := &memApplicationStore{}
	service := NewService(store, nil, "")

	if _, err := service.Submit(context.Background(), SubmitInput{
		Name: "Ada", Email: "ada@example.com", Message: "hello",
	}); err != nil {
		t.Fatalf("submit without sender: %v", err)
	}
	if len(store.applications) != 1 {
		t.Fatalf("stored = %d, want 1", len(store.applications))
	}
}
