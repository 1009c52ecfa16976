package chain

import "context"

// ListOpts filters and paginates block listings.
type ListOpts struct {
	Type   BlockType // Zero value matches all types
	Limit  int
	Offset int
}

// Store is the persistence interface for chain blocks. Blocks are
// append-only; there is no update or delete.
type Store interface {
	// Append persists a new block at the chain tail.
	Append(ctx context.Context, b *Block) error

	// Last retrieves the most recent block.
	Last(ctx context.Context) (*Block, error)

	// List retrieves blocks matching the options in append order.
	List(ctx context.Context, opts ListOpts) ([]*Block, error)

	// Count returns the number of blocks in the chain.
	Count(ctx context.Context) (int64, error)
}
