package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/valusophy/city/internal/platform/storage/sqlitedb"
	"github.com/valusophy/city/internal/services/projects/storage"
	residentstorage "github.com/valusophy/city/internal/services/residents/storage"
	residentsqlite "github.com/valusophy/city/internal/services/residents/storage/sqlite"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	db, err := sqlitedb.Open(filepath.Join(t.TempDir(), "city.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	residents, err := residentsqlite.New(db)
	if err != nil {
		t.Fatalf("new resident store: %v", err)
	}
	now := time.Now().UTC()
	for _, resident := range []residentstorage.Resident{
		{ID: "res-1", AuthUserID: "auth-1", Name: "u1", Email: "u1@example.com", ApartmentNumber: "A1-1", Building: "A", Floor: 1, CreatedAt: now, UpdatedAt: now},
		{ID: "res-2", AuthUserID: "auth-2", Name: "u2", Email: "u2@example.com", ApartmentNumber: "A2-2", Building: "A", Floor: 2, CreatedAt: now, UpdatedAt: now},
	} {
		if _, err := residents.CreateResident(context.Background(), resident); err != nil {
			t.Fatalf("seed resident %s: %v", resident.ID, err)
		}
	}

	store, err := New(db)
	if err != nil {
		t.Fatalf("new project store: %v", err)
	}
	return store
}

func TestCreateAndListProjects(t *testing.T) {
	store := openStore(t)
	base := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

	for _, project := range []storage.Project{
		{ID: "proj-1", Title: "garden", LeaderID: "res-1", Status: storage.StatusRecruiting, CreatedAt: base},
		{ID: "proj-2", Title: "library", LeaderID: "res-2", Status: storage.StatusRecruiting, CreatedAt: base.Add(time.Minute)},
	} {
		if err := store.CreateProject(context.Background(), project); err != nil {
			t.Fatalf("create project %s: %v", project.ID, err)
		}
	}
	if err := store.AddMember(context.Background(), storage.Member{
		ProjectID: "proj-1", ResidentID: "res-1", Role: storage.RoleLeader, CreatedAt: base,
	}); err != nil {
		t.Fatalf("add leader: %v", err)
	}
	if err := store.AddMember(context.Background(), storage.Member{
		ProjectID: "proj-1", ResidentID: "res-2", Role: "member", CreatedAt: base.Add(time.Second),
	}); err != nil {
		t.Fatalf("add member: %v", err)
	}

	projects, err := store.ListProjects(context.Background())
	if err != nil {
		t.Fatalf("list projects: %v", err)
	}
	if len(projects) != 2 {
		t.Fatalf("projects len = %d, want 2", len(projects))
	}
	if projects[0].ID != "proj-2" {
		t.Fatalf("expected newest first, got %q", projects[0].ID)
	}
	roster := projects[1].Members
	if len(roster) != 2 {
		t.Fatalf("roster len = %d, want 2", len(roster))
	}
	if roster[0].Role != storage.RoleLeader || roster[0].Name != "u1" || roster[0].Email != "u1@example.com" {
		t.Fatalf("leader roster entry = %+v", roster[0])
	}
}

func TestAddMemberDuplicate(t *testing.T) {
	store := openStore(t)
	now := time.Now().UTC()

	if err := store.CreateProject(context.Background(), storage.Project{
		ID: "proj-1", Title: "garden", LeaderID: "res-1", CreatedAt: now,
	}); err != nil {
		t.Fatalf("create project: %v", err)
	}
	if err := store.AddMember(context.Background(), storage.Member{
		ProjectID: "proj-1", ResidentID: "res-1", Role: storage.RoleLeader, CreatedAt: now,
	}); err != nil {
		t.Fatalf("first add: %v", err)
	}
	err := store.AddMember(context.Background(), storage.Member{
		ProjectID: "proj-1", ResidentID: "res-1", Role: "member", CreatedAt: now,
	})
	if !errors.Is(err, storage.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestCreateApplicationDuplicate(t *testing.T) {
	store := openStore(t)
	now := time.Now().UTC()

	if err := store.CreateProject(context.Background(), storage.Project{
		ID: "proj-1", Title: "garden", LeaderID: "res-1", CreatedAt: now,
	}); err != nil {
		t.Fatalf("create project: %v", err)
	}
	if err := store.CreateApplication(context.Background(), storage.Application{
		ID: "app-1", ProjectID: "proj-1", ResidentID: "res-2", Message: "let me in", CreatedAt: now,
	}); err != nil {
		t.Fatalf("first application: %v", err)
	}
	err := store.CreateApplication(context.Background(), storage.Application{
		ID: "app-2", ProjectID: "proj-1", ResidentID: "res-2", Message: "again", CreatedAt: now,
	})
	if !errors.Is(err, storage.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestGetProjectNotFound(t *testing.T) {
	store := openStore(t)
	if _, err := store.GetProject(context.Background(), "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateProjectDefaultsStatus(t *testing.T) {
	store := openStore(t)
	now := time.Now().UTC()

	if err := store.CreateProject(context.Background(), storage.Project{
		ID: "proj-1", Title: "garden", LeaderID: "res-1", CreatedAt: now,
	}); err != nil {
		t.Fatalf("create project: %v", err)
	}
	project, err := store.GetProject(context.Background(), "proj-1")
	if err != nil {
		t.Fatalf("get project: %v", err)
	}
	if project.Status != storage.StatusRecruiting {
		t.Fatalf("status = %q, want recruiting", project.Status)
	}
}
