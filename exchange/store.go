package exchange

import (
	"context"

	"github.com/xraph/harvest/id"
)

// ListOpts filters and paginates transaction listings.
type ListOpts struct {
	// Identity, when set, matches transactions where the account was either
	// the seller or the buyer.
	Identity string
	Limit    int
	Offset   int
}

// Store is the persistence interface for transactions.
type Store interface {
	// Create persists a new transaction record.
	Create(ctx context.Context, txn *Transaction) error

	// Get retrieves a transaction by ID.
	Get(ctx context.Context, txnID id.TransactionID) (*Transaction, error)

	// List retrieves transactions matching the options, newest first.
	List(ctx context.Context, opts ListOpts) ([]*Transaction, error)
}
