package store

import (
	"context"

	"github.com/xraph/harvest/account"
	"github.com/xraph/harvest/chain"
	"github.com/xraph/harvest/exchange"
	"github.com/xraph/harvest/holding"
	"github.com/xraph/harvest/id"
)

// Store is the unified storage interface for all Harvest entities.
// Instead of embedding the sub-interfaces, we explicitly declare all methods
// to avoid naming conflicts.
type Store interface {
	// Account methods
	CreateAccount(ctx context.Context, acct *account.Account) error
	GetAccount(ctx context.Context, identity string) (*account.Account, error)
	ListAccounts(ctx context.Context, opts account.ListOpts) ([]*account.Account, error)
	UpdateAccount(ctx context.Context, acct *account.Account) error

	// Holding methods
	CreateHolding(ctx context.Context, h *holding.Holding) error
	GetHoldingByKey(ctx context.Context, key holding.Key) (*holding.Holding, error)
	GetOldestHoldingByName(ctx context.Context, owner, name string) (*holding.Holding, error)
	ListHoldings(ctx context.Context, owner string, opts holding.ListOpts) ([]*holding.Holding, error)
	UpdateHolding(ctx context.Context, h *holding.Holding) error

	// Transaction methods
	CreateTransaction(ctx context.Context, txn *exchange.Transaction) error
	GetTransaction(ctx context.Context, txnID id.TransactionID) (*exchange.Transaction, error)
	ListTransactions(ctx context.Context, opts exchange.ListOpts) ([]*exchange.Transaction, error)

	// Chain methods
	AppendBlock(ctx context.Context, b *chain.Block) error
	LastBlock(ctx context.Context) (*chain.Block, error)
	ListBlocks(ctx context.Context, opts chain.ListOpts) ([]*chain.Block, error)
	CountBlocks(ctx context.Context) (int64, error)

	// ApplyExchange applies a validated exchange change set: buyer-side
	// holding upsert, settlement on both accounts and the seller holding,
	// the transaction record, and the sealed blocks. Backends apply the set
	// as close to atomically as they can.
	ApplyExchange(ctx context.Context, set *ExchangeSet) error

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// ExchangeSet is the write set of one settled exchange. Every entity in the
// set is a post-settlement value; the engine validates and seals everything
// before handing the set to the store.
type ExchangeSet struct {
	// BuyerHolding is the buyer-side row after the transferred quantity is
	// merged in. BuyerHoldingIsNew selects insert vs update.
	BuyerHolding      *holding.Holding
	BuyerHoldingIsNew bool

	// SellerHolding is the seller-side row after its quantity decrement.
	SellerHolding *holding.Holding

	// Seller and Buyer carry the settled balances.
	Seller *account.Account
	Buyer  *account.Account

	// Transaction is the exchange record.
	Transaction *exchange.Transaction

	// Blocks are the sealed chain blocks, in append order.
	Blocks []*chain.Block
}
