package residents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	apperrors "github.com/valusophy/city/internal/platform/errors"
	"github.com/valusophy/city/internal/services/residents/storage"
)

// UpdateProfile applies mutable profile fields to the caller's resident,
// provisioning one first if needed. Housing metadata is untouched.
func (p *Provisioner) UpdateProfile(ctx context.Context, authUserID, email string, update storage.ProfileUpdate) (storage.Resident, error) {
	if p == nil || p.store == nil {
		return storage.Resident{}, fmt.Errorf("resident provisioner is not configured")
	}
	if strings.TrimSpace(update.Name) == "" {
		return storage.Resident{}, apperrors.New(apperrors.CodeResidentEmptyName, "name is required")
	}

	resident, err := p.EnsureResident(ctx, authUserID, email)
	if err != nil {
		return storage.Resident{}, err
	}
	updated, err := p.store.UpdateResidentProfile(ctx, resident.ID, update, p.clock().UTC())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.Resident{}, apperrors.New(apperrors.CodeResidentNotFound, "resident not found")
		}
		return storage.Resident{}, apperrors.Wrap(apperrors.CodeBackendFailure, "update resident profile", err)
	}
	return updated, nil
}

// ListResidents returns all residents for the city directory.
func (p *Provisioner) ListResidents(ctx context.Context) ([]storage.Resident, error) {
	if p == nil || p.store == nil {
		return nil, fmt.Errorf("resident provisioner is not configured")
	}
	residents, err := p.store.ListResidents(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeBackendFailure, "list residents", err)
	}
	return residents, nil
}
