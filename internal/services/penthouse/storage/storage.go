// Package storage defines persistence contracts for penthouse profile
// blocks.
package storage

import (
	"context"
	"time"
)

// Block stores one positioned profile block. Content is the kind-specific
// payload serialized as JSON; validation happens before rows reach the
// store.
type Block struct {
	ID         string
	ResidentID string
	Kind       string
	Width      string
	Position   int
	Content    []byte
	CreatedAt  time.Time
}

// BlockStore persists a resident's penthouse layout.
type BlockStore interface {
	// ReplaceBlocks swaps a resident's entire layout in one transaction.
	// Callers pass blocks with dense positions 0..N-1.
	ReplaceBlocks(ctx context.Context, residentID string, blocks []Block) error
	// ListBlocks returns a resident's blocks in position order.
	ListBlocks(ctx context.Context, residentID string) ([]Block, error)
}
