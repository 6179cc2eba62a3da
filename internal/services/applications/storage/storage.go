// Package storage defines persistence contracts for residency applications.
package storage

import (
	"context"
	"time"
)

// Application stores one residency contact form submission.
type Application struct {
	ID        string
	Name      string
	Email     string
	Message   string
	Status    string
	CreatedAt time.Time
}

// ApplicationStore persists residency applications.
type ApplicationStore interface {
	CreateApplication(ctx context.Context, application Application) error
	// ListApplications returns applications newest first.
	ListApplications(ctx context.Context) ([]Application, error)
}
