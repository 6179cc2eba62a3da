package residents

import (
	"context"
	"testing"

	apperrors "github.com/valusophy/city/internal/platform/errors"
	"github.com/valusophy/city/internal/services/residents/storage"
)

func TestUpdateProfileRequiresName(t *testing.T) {
	provisioner := newProvisioner(t)
	_, err := provisioner.UpdateProfile(context.Background(), "auth-1", "u1@example.com", storage.ProfileUpdate{
		Bio: "no name",
	})
	if apperrors.CodeOf(err) != apperrors.CodeResidentEmptyName {
		t.Fatalf("code = %v, want empty name", apperrors.CodeOf(err))
	}
}

func TestUpdateProfileProvisionsThenUpdates(t *testing.T) {
	provisioner := newProvisioner(t)

	updated, err := provisioner.UpdateProfile(context.Background(), "auth-1", "u1@example.com", storage.ProfileUpdate{
		Name:   "Ursula",
		Bio:    "builder",
		Status: "active",
	})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if updated.Name != "Ursula" || updated.Bio != "builder" {
		t.Fatalf("updated = %+v", updated)
	}
	// Housing metadata assigned at provisioning survives the edit.
	if updated.ApartmentNumber == "" || updated.Floor == 0 {
		t.Fatalf("housing missing: %+v", updated)
	}
}

func TestListResidents(t *testing.T) {
	provisioner := newProvisioner(t)

	for _, principal := range []string{"auth-1", "auth-2"} {
		if _, err := provisioner.EnsureResident(context.Background(), principal, principal+"@example.com"); err != nil {
			t.Fatalf("ensure %s: %v", principal, err)
		}
	}

	residents, err := provisioner.ListResidents(context.Background())
	if err != nil {
		t.Fatalf("list residents: %v", err)
	}
	if len(residents) != 2 {
		t.Fatalf("residents len = %d, want 2", len(residents))
	}
}
