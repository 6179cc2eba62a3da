// Package storage defines persistence contracts for resident records.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates a requested resident record is missing.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness-constrained record already exists.
var ErrAlreadyExists = errors.New("record already exists")

// Resident stores one city resident profile keyed to an auth principal.
type Resident struct {
	ID              string
	AuthUserID      string
	Name            string
	Email           string
	ApartmentNumber string
	Building        string
	Floor           int
	Bio             string
	AvatarURL       string
	Status          string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ProfileUpdate carries the mutable profile fields of a resident.
type ProfileUpdate struct {
	Name      string
	Bio       string
	AvatarURL string
	Status    string
}

// ResidentStore persists resident records.
type ResidentStore interface {
	// CreateResident inserts a resident if no row exists for its auth user id.
	// It reports whether a row was inserted; when another row already holds
	// the auth user id, created is false and no error is returned.
	CreateResident(ctx context.Context, resident Resident) (created bool, err error)
	GetResident(ctx context.Context, residentID string) (Resident, error)
	GetResidentByAuthUserID(ctx context.Context, authUserID string) (Resident, error)
	UpdateResidentProfile(ctx context.Context, residentID string, update ProfileUpdate, updatedAt time.Time) (Resident, error)
	ListResidents(ctx context.Context) ([]Resident, error)
}
