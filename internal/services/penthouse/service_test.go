package penthouse

import (
	"context"
	"encoding/json"
	"testing"

	apperrors "github.com/valusophy/city/internal/platform/errors"
	"github.com/valusophy/city/internal/services/penthouse/storage"
	residentstorage "github.com/valusophy/city/internal/services/residents/storage"
)

type fakeResolver struct{}

func (fakeResolver) EnsureResident(_ context.Context, authUserID, email string) (residentstorage.Resident, error) {
	if authUserID == "" {
		return residentstorage.Resident{}, apperrors.New(apperrors.CodeUnauthenticated, "auth user id is required")
	}
	return residentstorage.Resident{ID: "res-" + authUserID, AuthUserID: authUserID, Email: email}, nil
}

type memBlockStore struct {
	layouts map[string][]storage.Block
}

func newMemBlockStore() *memBlockStore {
	return &memBlockStore{layouts: map[string][]storage.Block{}}
}

func (m *memBlockStore) ReplaceBlocks(_ context.Context, residentID string, blocks []storage.Block) error {
	m.layouts[residentID] = append([]storage.Block(nil), blocks...)
	return nil
}

func (m *memBlockStore) ListBlocks(_ context.Context, residentID string) ([]storage.Block, error) {
	return m.layouts[residentID], nil
}

var _ storage.BlockStore = (*memBlockStore)(nil)

func TestReplaceAssignsDensePositions(t *testing.T) {
	store := newMemBlockStore()
	service := NewService(store, fakeResolver{})

	views, err := service.Replace(context.Background(), "auth-1", "a@b.c", []BlockInput{
		{Kind: KindHeader, Content: json.RawMessage(`{"title":"Hi"}`)},
		{Kind: KindDivider, Width: "half"},
		{Kind: KindText, Width: "third", Content: json.RawMessage(`{"text":"body"}`)},
	})
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if len(views) != 3 {
		t.Fatalf("views len = %d, want 3", len(views))
	}
	for i, view := range views {
		if view.Position != i {
			t.Errorf("position[%d] = %d, want dense ordering", i, view.Position)
		}
		if view.ID == "" {
			t.Errorf("block %d has no id", i)
		}
	}
	if views[0].Width != WidthFull {
		t.Errorf("default width = %q, want full", views[0].Width)
	}
	if views[1].Width != WidthHalf || views[2].Width != WidthThird {
		t.Errorf("widths = %q, %q", views[1].Width, views[2].Width)
	}
}

func TestReplaceRejectsInvalidBlock(t *testing.T) {
	store := newMemBlockStore()
	service := NewService(store, fakeResolver{})

	// Seed a layout then attempt an invalid replace; nothing should change.
	if _, err := service.Replace(context.Background(), "auth-1", "a@b.c", []BlockInput{
		{Kind: KindDivider},
	}); err != nil {
		t.Fatalf("seed replace: %v", err)
	}

	_, err := service.Replace(context.Background(), "auth-1", "a@b.c", []BlockInput{
		{Kind: KindHeader, Content: json.RawMessage(`{}`)},
	})
	if apperrors.CodeOf(err) != apperrors.CodeBlockInvalidContent {
		t.Fatalf("code = %v, want invalid content", apperrors.CodeOf(err))
	}

	blocks, err := service.List(context.Background(), "auth-1", "a@b.c")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(blocks) != 1 || blocks[0].Kind != KindDivider {
		t.Fatalf("layout changed after failed replace: %+v", blocks)
	}
}

func TestReplaceEmptyLayout(t *testing.T) {
	store := newMemBlockStore()
	service := NewService(store, fakeResolver{})

	views, err := service.Replace(context.Background(), "auth-1", "a@b.c", nil)
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if len(views) != 0 {
		t.Fatalf("views len = %d, want 0", len(views))
	}
}
