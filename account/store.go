package account

import "context"

// ListOpts filters and paginates account listings.
type ListOpts struct {
	Tier   Tier // Zero value matches all tiers
	Limit  int
	Offset int
}

// Store is the persistence interface for accounts.
type Store interface {
	// Create persists a new account. Identity must be unique.
	Create(ctx context.Context, acct *Account) error

	// Get retrieves an account by identity.
	Get(ctx context.Context, identity string) (*Account, error)

	// List retrieves accounts matching the options.
	List(ctx context.Context, opts ListOpts) ([]*Account, error)

	// Update persists changes to an existing account.
	Update(ctx context.Context, acct *Account) error
}
