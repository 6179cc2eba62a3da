package penthouse

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	apperrors "github.com/valusophy/city/internal/platform/errors"
	"github.com/valusophy/city/internal/platform/id"
	"github.com/valusophy/city/internal/services/penthouse/storage"
	residentstorage "github.com/valusophy/city/internal/services/residents/storage"
)

// ResidentResolver maps auth principals to resident records.
type ResidentResolver interface {
	EnsureResident(ctx context.Context, authUserID, email string) (residentstorage.Resident, error)
}

// Service coordinates penthouse layout operations.
type Service struct {
	store     storage.BlockStore
	residents ResidentResolver
	clock     func() time.Time
}

// NewService builds a penthouse service.
func NewService(store storage.BlockStore, residents ResidentResolver) *Service {
	return &Service{
		store:     store,
		residents: residents,
		clock:     time.Now,
	}
}

// BlockInput is one incoming block of a layout replace.
type BlockInput struct {
	Kind    string          `json:"kind"`
	Width   string          `json:"width,omitempty"`
	Content json.RawMessage `json:"content"`
}

// BlockView is one stored block as returned to callers.
type BlockView struct {
	ID       string          `json:"id"`
	Kind     string          `json:"kind"`
	Width    string          `json:"width"`
	Position int             `json:"position"`
	Content  json.RawMessage `json:"content"`
}

// Replace validates the incoming layout and swaps the caller's blocks in
// one transaction. Positions are assigned densely in input order.
func (s *Service) Replace(ctx context.Context, authUserID, email string, inputs []BlockInput) ([]BlockView, error) {
	if s == nil || s.store == nil || s.residents == nil {
		return nil, fmt.Errorf("penthouse service is not configured")
	}

	resident, err := s.residents.EnsureResident(ctx, authUserID, email)
	if err != nil {
		return nil, err
	}

	now := s.clock().UTC()
	blocks := make([]storage.Block, 0, len(inputs))
	for position, input := range inputs {
		width, err := normalizeWidth(input.Width)
		if err != nil {
			return nil, err
		}
		content, err := validateContent(input.Kind, input.Content)
		if err != nil {
			return nil, err
		}
		blockID, err := id.NewID()
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeBackendFailure, "generate block id", err)
		}
		blocks = append(blocks, storage.Block{
			ID:         blockID,
			ResidentID: resident.ID,
			Kind:       input.Kind,
			Width:      width,
			Position:   position,
			Content:    content,
			CreatedAt:  now,
		})
	}

	if err := s.store.ReplaceBlocks(ctx, resident.ID, blocks); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeBackendFailure, "replace blocks", err)
	}
	return views(blocks), nil
}

// List returns the caller's blocks in position order.
func (s *Service) List(ctx context.Context, authUserID, email string) ([]BlockView, error) {
	if s == nil || s.store == nil || s.residents == nil {
		return nil, fmt.Errorf("penthouse service is not configured")
	}

	resident, err := s.residents.EnsureResident(ctx, authUserID, email)
	if err != nil {
		return nil, err
	}
	blocks, err := s.store.ListBlocks(ctx, resident.ID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeBackendFailure, "list blocks", err)
	}
	return views(blocks), nil
}

// ListFor returns another resident's blocks by resident id.
func (s *Service) ListFor(ctx context.Context, residentID string) ([]BlockView, error) {
	if s == nil || s.store == nil {
		return nil, fmt.Errorf("penthouse service is not configured")
	}
	blocks, err := s.store.ListBlocks(ctx, residentID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeBackendFailure, "list blocks", err)
	}
	return views(blocks), nil
}

func views(blocks []storage.Block) []BlockView {
	out := make([]BlockView, len(blocks))
	for i, block := range blocks {
		out[i] = BlockView{
			ID:       block.ID,
			Kind:     block.Kind,
			Width:    block.Width,
			Position: block.Position,
			Content:  json.RawMessage(block.Content),
		}
	}
	return out
}
