// Package storage defines persistence contracts for OAuth provider state.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates a requested state record is missing.
var ErrNotFound = errors.New("record not found")

// StateRecord tracks one in-flight provider authorization.
type StateRecord struct {
	State        string
	CodeVerifier string
	RedirectURI  string
	ExpiresAt    time.Time
	CreatedAt    time.Time
}

// StateStore persists provider state records.
type StateStore interface {
	CreateState(ctx context.Context, record StateRecord) error
	GetState(ctx context.Context, state string) (StateRecord, error)
	DeleteState(ctx context.Context, state string) error
	// DeleteExpired removes records whose expiry is at or before now.
	DeleteExpired(ctx context.Context, now time.Time) error
}
