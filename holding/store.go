package holding

import "context"

// ListOpts filters and paginates holding listings.
type ListOpts struct {
	Name   string // Zero value matches all names
	Limit  int
	Offset int
}

// Store is the persistence interface for holdings.
type Store interface {
	// Create persists a new holding row.
	Create(ctx context.Context, h *Holding) error

	// GetByKey retrieves the holding with the exact merge key.
	GetByKey(ctx context.Context, key Key) (*Holding, error)

	// GetOldestByName retrieves the owner's oldest holding row with the
	// given name. Sales draw from the oldest lot first.
	GetOldestByName(ctx context.Context, owner, name string) (*Holding, error)

	// ListByOwner retrieves the owner's holdings matching the options.
	ListByOwner(ctx context.Context, owner string, opts ListOpts) ([]*Holding, error)

	// Update persists changes to an existing holding row.
	Update(ctx context.Context, h *Holding) error
}
