package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/valusophy/city/internal/platform/storage/sqlitedb"
	"github.com/valusophy/city/internal/services/residents/storage"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	db, err := sqlitedb.Open(filepath.Join(t.TempDir(), "city.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	store, err := New(db)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func TestCreateAndGetResident(t *testing.T) {
	store := openStore(t)
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

	created, err := store.CreateResident(context.Background(), storage.Resident{
		ID:              "res-1",
		AuthUserID:      "auth-1",
		Name:            "u1",
		Email:           "u1@example.com",
		ApartmentNumber: "A3-17",
		Building:        "A",
		Floor:           7,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		t.Fatalf("create resident: %v", err)
	}
	if !created {
		t.Fatal("expected insert to report created")
	}

	got, err := store.GetResidentByAuthUserID(context.Background(), "auth-1")
	if err != nil {
		t.Fatalf("get by auth user: %v", err)
	}
	if got.ID != "res-1" || got.Name != "u1" || got.Floor != 7 {
		t.Fatalf("resident = %+v", got)
	}
	if !got.CreatedAt.Equal(now) {
		t.Fatalf("created_at = %v, want %v", got.CreatedAt, now)
	}

	byID, err := store.GetResident(context.Background(), "res-1")
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if byID.AuthUserID != "auth-1" {
		t.Fatalf("auth_user_id = %q", byID.AuthUserID)
	}
}

func TestCreateResidentIsIdempotentPerAuthUser(t *testing.T) {
	store := openStore(t)
	now := time.Now().UTC()

	first := storage.Resident{
		ID: "res-1", AuthUserID: "auth-1", Name: "u1",
		ApartmentNumber: "A1-1", Building: "A", Floor: 1,
		CreatedAt: now, UpdatedAt: now,
	}
	if created, err := store.CreateResident(context.Background(), first); err != nil || !created {
		t.Fatalf("first create = (%v, %v)", created, err)
	}

	second := first
	second.ID = "res-2"
	second.Name = "dup"
	created, err := store.CreateResident(context.Background(), second)
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if created {
		t.Fatal("expected conflicting insert to be skipped")
	}

	got, err := store.GetResidentByAuthUserID(context.Background(), "auth-1")
	if err != nil {
		t.Fatalf("get resident: %v", err)
	}
	if got.ID != "res-1" || got.Name != "u1" {
		t.Fatalf("expected original row to stand, got %+v", got)
	}
}

func TestGetResidentNotFound(t *testing.T) {
	store := openStore(t)
	if _, err := store.GetResident(context.Background(), "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.GetResidentByAuthUserID(context.Background(), "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateResidentProfile(t *testing.T) {
	store := openStore(t)
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

	if _, err := store.CreateResident(context.Background(), storage.Resident{
		ID: "res-1", AuthUserID: "auth-1", Name: "u1",
		ApartmentNumber: "A1-1", Building: "A", Floor: 1,
		CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		t.Fatalf("create resident: %v", err)
	}

	updated, err := store.UpdateResidentProfile(context.Background(), "res-1", storage.ProfileUpdate{
		Name:      "Ursula",
		Bio:       "build things",
		AvatarURL: "https://cdn.example.com/u1.png",
		Status:    "active",
	}, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if updated.Name != "Ursula" || updated.Bio != "build things" || updated.Status != "active" {
		t.Fatalf("updated = %+v", updated)
	}
	if !updated.UpdatedAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("updated_at = %v", updated.UpdatedAt)
	}
	// Housing metadata is not touched by profile edits.
	if updated.ApartmentNumber != "A1-1" || updated.Floor != 1 {
		t.Fatalf("housing changed: %+v", updated)
	}
}

func TestUpdateResidentProfileNotFound(t *testing.T) {
	store := openStore(t)
	_, err := store.UpdateResidentProfile(context.Background(), "missing", storage.ProfileUpdate{Name: "x"}, time.Now())
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListResidents(t *testing.T) {
	store := openStore(t)
	now := time.Now().UTC()
	for _, resident := range []storage.Resident{
		{ID: "res-1", AuthUserID: "auth-1", Name: "a", ApartmentNumber: "A2-1", Building: "A", Floor: 1, CreatedAt: now, UpdatedAt: now},
		{ID: "res-2", AuthUserID: "auth-2", Name: "b", ApartmentNumber: "A1-5", Building: "A", Floor: 2, CreatedAt: now, UpdatedAt: now},
	} {
		if _, err := store.CreateResident(context.Background(), resident); err != nil {
			t.Fatalf("create %s: %v", resident.ID, err)
		}
	}

	residents, err := store.ListResidents(context.Background())
	if err != nil {
		t.Fatalf("list residents: %v", err)
	}
	if len(residents) != 2 {
		t.Fatalf("residents len = %d, want 2", len(residents))
	}
	if residents[0].ApartmentNumber != "A1-5" {
		t.Fatalf("expected apartment ordering, got %q first", residents[0].ApartmentNumber)
	}
}
